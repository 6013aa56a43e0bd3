// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/output"
	"github.com/dacolabs/xmlgen/internal/prompts"
	"github.com/dacolabs/xmlgen/internal/session"
	"github.com/dacolabs/xmlgen/internal/transform"
)

const (
	defaultOutput = "output.xml"
	defaultSchema = "schema.xsd"
)

type generateOptions struct {
	dataDir        string
	output         string
	schema         string
	strategy       string
	spillDir       string
	window         int
	workers        int
	validate       bool
	mock           bool
	timing         bool
	nonInteractive bool
}

func newGenerateCmd(strategies transform.Register) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the XML document from parquet tables",
		Long: fmt.Sprintf(`Generate the XML document from a directory holding one sub-directory of
parquet files per table.

Available strategies: %s`, strings.Join(strategies.Available(), ", ")),
		Example: `  # Interactive mode
  xmlgen generate

  # Join every table in memory
  xmlgen generate -d ./data -o feed.xml -s WCOData.xsd

  # Stream from the attribute table in windows of 10000 records
  xmlgen generate -d ./data -o feed.xml --strategy attributes --window 10000

  # Write the mock document and validate it
  xmlgen generate --mock -o mock.xml --validate`,
		PreRunE: session.PreRunLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, strategies, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dataDir, "data-directory", "d", "", "Directory containing one sub-directory of parquet files per table")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output XML file (default "+defaultOutput+")")
	cmd.Flags().StringVarP(&opts.schema, "schema", "s", defaultSchema, "XML Schema describing the document")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", fmt.Sprintf("Transformation strategy (%s)", strings.Join(strategies.Available(), ", ")))
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate the generated document against the schema")
	cmd.Flags().BoolVarP(&opts.mock, "mock", "m", false, "Write the fixed mock document instead of reading tables")
	cmd.Flags().BoolVarP(&opts.timing, "time", "t", false, "Show the time taken")
	cmd.Flags().IntVar(&opts.window, "window", 0, fmt.Sprintf("Records per streaming window (default %d)", config.DefaultWindow))
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent record builders (default number of CPUs)")
	cmd.Flags().StringVar(&opts.spillDir, "spill-dir", "", "Directory for the on-disk attribute index")
	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Run without prompts")

	return cmd
}

// resolveConfig applies the flags that override the loaded configuration.
func resolveConfig(cmd *cobra.Command, base *config.Config, opts *generateOptions) (*config.Config, error) {
	cfg := *base
	if opts.strategy != "" {
		cfg.Strategy = config.Strategy(opts.strategy)
	}
	if cmd.Flags().Changed("window") {
		cfg.Window = opts.window
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.workers
	}
	if cmd.Flags().Changed("spill-dir") {
		cfg.SpillDir = opts.spillDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func strategyOptions(strategies transform.Register) []prompts.StrategyOption {
	names := strategies.Available()
	options := make([]prompts.StrategyOption, len(names))
	for i, name := range names {
		options[i] = prompts.StrategyOption{Name: name, Description: strategies[name].Description()}
	}
	return options
}

func runGenerate(cmd *cobra.Command, strategies transform.Register, opts *generateOptions) error {
	start := time.Now()
	out := cmd.OutOrStdout()

	sess, err := session.RequireFromCommand(cmd)
	if err != nil {
		return err
	}

	if opts.mock {
		if opts.output == "" {
			opts.output = defaultOutput
		}
		if err := output.WriteMock(opts.output); err != nil {
			return fmt.Errorf("failed to write mock document: %w", err)
		}
		prompts.PrintResult(out, []prompts.ResultField{
			{Label: "Output", Value: opts.output},
			{Label: "Mode", Value: "mock"},
		}, "")
		return finishGenerate(cmd, sess.Config, opts, start)
	}

	strategy := opts.strategy
	if strategy == "" {
		strategy = string(sess.Config.Strategy)
	}
	if opts.nonInteractive {
		if opts.dataDir == "" {
			return errors.New("--data-directory is required in non-interactive mode")
		}
	} else {
		askStrategy := !cmd.Flags().Changed("strategy") && opts.dataDir == "" && len(strategies) > 1
		if err := prompts.RunGenerateForm(
			&opts.dataDir, &opts.output, &opts.schema, &strategy,
			askStrategy, strategyOptions(strategies),
		); err != nil {
			return err
		}
	}
	if opts.output == "" {
		opts.output = defaultOutput
	}
	opts.strategy = strategy

	cfg, err := resolveConfig(cmd, sess.Config, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Generating %s from %s with the %s strategy...\n", opts.output, opts.dataDir, cfg.Strategy)
	res, err := transform.Execute(cmd.Context(), strategies, transform.Options{
		DataDir:    opts.dataDir,
		SchemaPath: opts.schema,
		Output:     opts.output,
		Config:     cfg,
	})
	if err != nil {
		return err
	}

	fields := []prompts.ResultField{
		{Label: "Output", Value: res.Output},
		{Label: "Strategy", Value: res.Strategy},
		{Label: "Tables", Value: fmt.Sprint(res.Tables)},
	}
	for _, s := range res.Sections {
		fields = append(fields, prompts.ResultField{Label: s.Container, Value: fmt.Sprintf("%d records", s.Records)})
	}
	prompts.PrintResult(out, fields, "")

	return finishGenerate(cmd, cfg, opts, start)
}

// finishGenerate runs the optional validation and timing report. An invalid document is
// reported but does not fail the command.
func finishGenerate(cmd *cobra.Command, cfg *config.Config, opts *generateOptions, start time.Time) error {
	out := cmd.OutOrStdout()
	if opts.validate {
		report, err := validateDocument(opts.output, opts.schema, cfg.Root)
		if err != nil {
			return err
		}
		printReport(out, opts.output, report)
	}
	if opts.timing {
		fmt.Fprintf(out, "Time taken: %s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}
