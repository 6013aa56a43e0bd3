// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dacolabs/xmlgen/internal/prompts"
	"github.com/dacolabs/xmlgen/internal/session"
	"github.com/dacolabs/xmlgen/internal/validate"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

type validateOptions struct {
	schema string
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate an XML document against the schema",
		Long: `Check a document against the XML Schema: element structure, occurrence bounds,
datatypes and facets. The document element must match the configured root.`,
		Example: `  # Validate a generated feed
  xmlgen validate feed.xml --schema WCOData.xsd`,
		Args:    cobra.ExactArgs(1),
		PreRunE: session.PreRunLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.RequireFromCommand(cmd)
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), args[0], opts.schema, sess.Config.Root)
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", defaultSchema, "XML Schema describing the document")

	return cmd
}

func runValidate(out io.Writer, path, schemaPath, root string) error {
	report, err := validateDocument(path, schemaPath, root)
	if err != nil {
		return err
	}
	printReport(out, path, report)
	if !report.Valid() {
		return fmt.Errorf("%s is not valid: %d error(s)", path, len(report.Errors))
	}
	return nil
}

func validateDocument(path, schemaPath, root string) (*validate.Report, error) {
	s, err := xschema.LoadPath(schemaPath)
	if err != nil {
		return nil, err
	}
	rootPath, err := s.RootNamed(root)
	if err != nil {
		return nil, err
	}
	compiled, err := validate.Load(schemaPath)
	if err != nil {
		return nil, err
	}
	return validate.File(path, compiled, strings.TrimPrefix(rootPath, "/"))
}

func printReport(out io.Writer, path string, report *validate.Report) {
	fields := []prompts.ResultField{
		{Label: "File", Value: path},
		{Label: "Root", Value: report.Root},
		{Label: "Errors", Value: fmt.Sprint(len(report.Errors))},
		{Label: "Warnings", Value: fmt.Sprint(len(report.Warnings))},
	}
	if report.Valid() {
		prompts.PrintResult(out, fields, "Document is valid")
		return
	}
	details := make([]string, 0, len(report.Errors)+len(report.Warnings))
	for _, d := range report.Errors {
		details = append(details, d.String())
	}
	for _, d := range report.Warnings {
		details = append(details, d.String())
	}
	prompts.PrintFailure(out, fields, details, "Document is not valid")
}
