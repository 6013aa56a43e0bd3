// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package join implements the multi-table join strategy: every table is merged in
// memory and the document is written once.
package join

import (
	"context"
	"os"

	"github.com/dacolabs/xmlgen/internal/assemble"
	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/denorm"
	"github.com/dacolabs/xmlgen/internal/output"
	"github.com/dacolabs/xmlgen/internal/populate"
	"github.com/dacolabs/xmlgen/internal/transform"
)

// Strategy is the multi-table join strategy.
type Strategy struct{}

// New creates the join strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy identifier.
func (s *Strategy) Name() string {
	return string(config.StrategyJoin)
}

// Description returns a one-line summary.
func (s *Strategy) Description() string {
	return "Join every table in memory and write the document once"
}

// Transform merges the tables, builds every section in parallel and writes the
// document.
func (s *Strategy) Transform(ctx context.Context, run *transform.Run) (*transform.Result, error) {
	sections, err := denorm.Merge(ctx, run.Tables, run.Config)
	if err != nil {
		return nil, err
	}

	asm := assemble.New(populate.New(run.Schema, run.Config.Segments), run.Root, run.Workers)
	input := make([]assemble.Section, len(sections))
	result := &transform.Result{}
	for i, sec := range sections {
		input[i] = assemble.Section{
			Container: sec.Spec.Container,
			Element:   sec.Spec.Element,
			Records:   sec.Records,
		}
		result.Sections = append(result.Sections, transform.SectionResult{
			Container: sec.Spec.Container,
			Records:   len(sec.Records),
		})
	}

	doc, err := asm.Document(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := output.WriteDocument(run.Output, doc); err != nil {
		os.Remove(run.Output) //nolint:errcheck
		return nil, err
	}
	return result, nil
}
