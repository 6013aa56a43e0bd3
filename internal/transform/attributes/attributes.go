// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package attributes implements the generic attribute table strategy: root records are
// enriched from a long-format pair table in fixed windows and streamed to the output.
package attributes

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/assemble"
	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/denorm"
	"github.com/dacolabs/xmlgen/internal/output"
	"github.com/dacolabs/xmlgen/internal/populate"
	"github.com/dacolabs/xmlgen/internal/spill"
	"github.com/dacolabs/xmlgen/internal/transform"
	"github.com/dacolabs/xmlgen/internal/xmltree"
)

// Strategy is the attribute table strategy.
type Strategy struct{}

// New creates the attribute table strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy identifier.
func (s *Strategy) Name() string {
	return string(config.StrategyAttributes)
}

// Description returns a one-line summary.
func (s *Strategy) Description() string {
	return "Stream records enriched from the element/value attribute table"
}

func openIndex(cfg *config.Config) (spill.Index, error) {
	if cfg.SpillDir == "" {
		return spill.NewMemory(), nil
	}
	idx, err := spill.OpenBolt(cfg.SpillDir)
	if err != nil {
		return nil, fmt.Errorf("opening spill index: %w", err)
	}
	logger.Verbose("spilling attribute index to " + idx.Path())
	return idx, nil
}

// Transform indexes the attribute table, then writes each section window by window.
func (s *Strategy) Transform(ctx context.Context, run *transform.Run) (result *transform.Result, err error) {
	idx, err := openIndex(run.Config)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	aj, err := denorm.NewAttributeJoin(ctx, run.Tables, run.Config, idx)
	if err != nil {
		return nil, err
	}

	result = &transform.Result{Sections: make([]transform.SectionResult, len(run.Config.Sections))}
	sections := make([]assemble.StreamSection, len(run.Config.Sections))
	for i, spec := range run.Config.Sections {
		sr := &result.Sections[i]
		sr.Container = spec.Container
		sections[i] = assemble.StreamSection{
			Container: spec.Container,
			Element:   spec.Element,
			Windows:   aj.Windows(ctx, spec),
			OnWindow: func(index, n int) {
				sr.Records += n
				logWindow(spec.Container, index, n)
			},
		}
	}

	f, err := output.Create(run.Output)
	if err != nil {
		return nil, err
	}
	asm := assemble.New(populate.New(run.Schema, run.Config.Segments), run.Root, run.Workers)
	if err := asm.Stream(ctx, xmltree.NewWriter(f), sections); err != nil {
		f.Close()             //nolint:errcheck
		os.Remove(run.Output) //nolint:errcheck
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(run.Output) //nolint:errcheck
		return nil, err
	}
	return result, nil
}

func logWindow(container string, index, n int) {
	if !logger.IsVerbose() {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Verbose(fmt.Sprintf("[%s window %d] %d records, heap %.2f MB, sys %.2f MB",
		container, index, n, float64(m.HeapAlloc)/(1<<20), float64(m.Sys)/(1<<20)))
}
