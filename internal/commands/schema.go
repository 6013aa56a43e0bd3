// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dacolabs/xmlgen/internal/session"
	"github.com/dacolabs/xmlgen/internal/table"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

type schemaDescribeOptions struct {
	schema string
	output string
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the XML Schema",
	}
	cmd.AddCommand(newSchemaDescribeCmd())
	return cmd
}

func newSchemaDescribeCmd() *cobra.Command {
	opts := &schemaDescribeOptions{}

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the extracted constraints, containers and required tables",
		Long: `Show every element path with its occurrence bounds, the detected collection
containers and the tables a run would load.`,
		Example: `  # Describe the schema as a table
  xmlgen schema describe --schema WCOData.xsd

  # Describe the schema as YAML
  xmlgen schema describe --schema WCOData.xsd -o yaml`,
		PreRunE: session.PreRunLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runSchemaDescribe(cmd.OutOrStdout(), sess, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", defaultSchema, "XML Schema to describe")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json, yaml)")

	return cmd
}

type constraintView struct {
	Path      string `json:"path" yaml:"path"`
	MinOccurs int    `json:"minOccurs" yaml:"minOccurs"`
	MaxOccurs string `json:"maxOccurs" yaml:"maxOccurs"`
	Group     string `json:"group" yaml:"group"`
	InChoice  bool   `json:"inChoice,omitempty" yaml:"inChoice,omitempty"`
}

type containerView struct {
	Wrapper string `json:"wrapper" yaml:"wrapper"`
	Child   string `json:"child" yaml:"child"`
}

type schemaView struct {
	Root        string           `json:"root" yaml:"root"`
	Constraints []constraintView `json:"constraints" yaml:"constraints"`
	Containers  []containerView  `json:"containers" yaml:"containers"`
	Tables      []string         `json:"tables" yaml:"tables"`
}

func describeSchema(s *xschema.Schema, sess *session.Context) (*schemaView, error) {
	root, err := s.RootNamed(sess.Config.Root)
	if err != nil {
		return nil, err
	}
	view := &schemaView{Root: root, Tables: table.RequiredTables(s, sess.Config)}
	for c := range s.Walk() {
		view.Constraints = append(view.Constraints, constraintView{
			Path:      c.Path,
			MinOccurs: c.MinOccurs,
			MaxOccurs: c.MaxString(),
			Group:     c.Group.String(),
			InChoice:  c.InChoice,
		})
	}
	for _, c := range s.Containers {
		view.Containers = append(view.Containers, containerView{Wrapper: c.Wrapper, Child: c.Child})
	}
	sort.Slice(view.Containers, func(i, j int) bool {
		return view.Containers[i].Wrapper+"/"+view.Containers[i].Child < view.Containers[j].Wrapper+"/"+view.Containers[j].Child
	})
	return view, nil
}

func runSchemaDescribe(out io.Writer, sess *session.Context, opts *schemaDescribeOptions) error {
	s, err := xschema.LoadPath(opts.schema)
	if err != nil {
		return err
	}
	view, err := describeSchema(s, sess)
	if err != nil {
		return err
	}

	switch opts.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(view)
	case "table":
		return printSchemaTable(out, view)
	default:
		return fmt.Errorf("unsupported output format %q", opts.output)
	}
}

func printSchemaTable(out io.Writer, view *schemaView) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATH\tMIN\tMAX\tGROUP")
	for _, c := range view.Constraints {
		group := c.Group
		if c.InChoice && group != "choice" {
			group += " (in choice)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Path, c.MinOccurs, c.MaxOccurs, group)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CONTAINER\tCHILD")
	for _, c := range view.Containers {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", c.Wrapper, c.Child)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nRoot: %s\nTables: %s\n", view.Root, strings.Join(view.Tables, ", "))
	return err
}
