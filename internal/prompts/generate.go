// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package prompts

import (
	"github.com/charmbracelet/huh"
)

// StrategyOption describes a selectable transformation strategy.
type StrategyOption struct {
	Name        string
	Description string
}

// StrategySelect returns a select field for choosing the transformation strategy.
func StrategySelect(value *string, strategies []StrategyOption) *huh.Select[string] {
	options := make([]huh.Option[string], len(strategies))
	for i, s := range strategies {
		label := s.Name
		if s.Description != "" {
			label = s.Name + " - " + s.Description
		}
		options[i] = huh.NewOption(label, s.Name)
	}
	return huh.NewSelect[string]().
		Title("Strategy").
		Options(options...).
		Value(value)
}

// RunGenerateForm prompts for the values of the generate command that are still
// empty. askStrategy adds the strategy select even when strategy already holds the
// configured default.
func RunGenerateForm(dataDir, output, schema, strategy *string, askStrategy bool, strategies []StrategyOption) error {
	askDataDir := *dataDir == ""
	askOutput := *output == ""
	askSchema := *schema == ""
	if !askDataDir && !askOutput && !askSchema && !askStrategy {
		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Data directory").
				Prompt(": ").
				Inline(true).
				Placeholder("one sub-directory of parquet files per table").
				Value(dataDir).
				Validate(requiredValidator("data directory")),
		).WithHideFunc(func() bool { return !askDataDir }),
		huh.NewGroup(
			huh.NewInput().
				Title("Schema").
				Prompt(": ").
				Inline(true).
				Placeholder("WCOData.xsd").
				Value(schema).
				Validate(requiredValidator("schema")),
		).WithHideFunc(func() bool { return !askSchema }),
		huh.NewGroup(
			huh.NewInput().
				Title("Output file").
				Prompt(": ").
				Inline(true).
				Placeholder("output.xml").
				Value(output).
				Validate(requiredValidator("output file")),
		).WithHideFunc(func() bool { return !askOutput }),
		huh.NewGroup(
			StrategySelect(strategy, strategies),
		).WithHideFunc(func() bool { return !askStrategy }),
	).WithTheme(Theme()).Run()
}
