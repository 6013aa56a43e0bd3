// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package transform orchestrates a run: schema extraction, table discovery and the
// selected denormalization strategy.
package transform

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/denorm"
	"github.com/dacolabs/xmlgen/internal/table"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

// ErrUnknownStrategy is returned when no strategy is registered under a name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Run is the input of one strategy execution. Schema artifacts and configuration are
// shared read-only with every worker.
type Run struct {
	Schema *xschema.Schema
	// Root is the document root path, such as "/WCOData".
	Root    string
	Tables  denorm.Tables
	Config  *config.Config
	Output  string
	Workers int
}

// SectionResult summarizes one written container.
type SectionResult struct {
	Container string
	Records   int
}

// Result summarizes a completed run.
type Result struct {
	Strategy string
	Output   string
	Tables   int
	Sections []SectionResult
}

// Records returns the number of records written across all sections.
func (r *Result) Records() int {
	n := 0
	for _, s := range r.Sections {
		n += s.Records
	}
	return n
}

// Strategy turns loaded tables into an output document.
type Strategy interface {
	// Name returns the strategy identifier used on the command line.
	Name() string
	// Description returns a one-line summary for help and prompts.
	Description() string
	// Transform writes the document for run. A failed transform leaves no output file.
	Transform(ctx context.Context, run *Run) (*Result, error)
}

// Register holds the available strategies by name.
type Register map[string]Strategy

// Add registers s under its name.
func (r Register) Add(s Strategy) {
	r[s.Name()] = s
}

// Get retrieves a strategy by name.
func (r Register) Get(name string) (Strategy, error) {
	s, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Available returns all registered strategy names, sorted.
func (r Register) Available() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configures Execute.
type Options struct {
	DataDir    string
	SchemaPath string
	Output     string
	Config     *config.Config
}

// Execute loads the schema, discovers the required tables and runs the configured
// strategy. The schema is loaded before any table is touched.
func Execute(ctx context.Context, strategies Register, opts Options) (*Result, error) {
	cfg := opts.Config
	strategy, err := strategies.Get(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	s, err := xschema.LoadPath(opts.SchemaPath)
	if err != nil {
		return nil, err
	}
	root, err := s.RootNamed(cfg.Root)
	if err != nil {
		return nil, err
	}
	logger.Verbose(fmt.Sprintf("schema %s: %d paths, %d containers, root %s",
		opts.SchemaPath, len(s.Constraints), len(s.Containers), root))

	names := table.RequiredTables(s, cfg)
	tables := denorm.Tables(table.NewSource(opts.DataDir).Discover(names))
	logger.Info(fmt.Sprintf("loaded %d of %d tables from %s", len(tables), len(names), opts.DataDir))

	result, err := strategy.Transform(ctx, &Run{
		Schema:  s,
		Root:    root,
		Tables:  tables,
		Config:  cfg,
		Output:  opts.Output,
		Workers: cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	result.Strategy = strategy.Name()
	result.Output = opts.Output
	result.Tables = len(tables)
	return result, nil
}
