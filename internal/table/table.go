// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package table discovers and reads relational input tables.
//
// Each table lives in its own directory under a data directory and is made of one or
// more parquet files. Tables are exposed as lazily evaluated relations: nothing is
// read until rows are requested.
package table

import (
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

// FileExt is the extension of table data files.
const FileExt = ".parquet"

// Source is a directory holding one sub-directory per table.
type Source struct {
	dir string
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Dir returns the data directory.
func (s *Source) Dir() string {
	return s.dir
}

// Discover returns a relation for every named table that has data files.
// Tables without a directory or without data files are absent from the result.
func (s *Source) Discover(names []string) map[string]*Relation {
	tables := make(map[string]*Relation, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if _, done := tables[key]; done {
			continue
		}
		files, err := s.files(key)
		if err != nil {
			logger.Verbose("table " + key + " unavailable: " + err.Error())
			continue
		}
		if len(files) == 0 {
			logger.Verbose("table " + key + " has no data files")
			continue
		}
		tables[key] = &Relation{name: key, files: files}
	}
	return tables
}

func (s *Source) files(name string) ([]string, error) {
	dir := filepath.Join(s.dir, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || strings.HasPrefix(n, "_") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(n), FileExt) {
			continue
		}
		files = append(files, filepath.Join(dir, n))
	}
	sort.Strings(files)
	return files, nil
}

// Relation is a lazily evaluated table.
type Relation struct {
	name  string
	files []string

	// columns and rows back in-memory relations.
	columns []string
	rows    []record.Record
	memory  bool
}

// FromRecords returns an in-memory relation over rows.
func FromRecords(name string, columns []string, rows []record.Record) *Relation {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.ToLower(c)
	}
	return &Relation{name: strings.ToLower(name), columns: cols, rows: rows, memory: true}
}

// Name returns the lowercase table name.
func (r *Relation) Name() string {
	return r.name
}

// Files returns the data files backing the relation.
func (r *Relation) Files() []string {
	return r.files
}

// Rows iterates the relation's rows in file order then row order.
// Iteration stops at the first read error, which is yielded with a nil record.
func (r *Relation) Rows() iter.Seq2[record.Record, error] {
	return func(yield func(record.Record, error) bool) {
		if r.memory {
			for _, row := range r.rows {
				if !yield(row, nil) {
					return
				}
			}
			return
		}
		for _, path := range r.files {
			if !readFile(path, yield) {
				return
			}
		}
	}
}

// Columns returns the relation's lowercase column names in schema order.
func (r *Relation) Columns() ([]string, error) {
	if r.memory {
		return r.columns, nil
	}
	if len(r.files) == 0 {
		return nil, nil
	}
	return fileColumns(r.files[0])
}

// HasColumn reports whether the relation carries column.
func (r *Relation) HasColumn(column string) (bool, error) {
	cols, err := r.Columns()
	if err != nil {
		return false, err
	}
	column = strings.ToLower(column)
	for _, c := range cols {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of rows without materializing them.
func (r *Relation) Count() (int64, error) {
	if r.memory {
		return int64(len(r.rows)), nil
	}
	var total int64
	for _, path := range r.files {
		n, err := fileRowCount(path)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Collect materializes every row.
func (r *Relation) Collect() ([]record.Record, error) {
	var rows []record.Record
	for row, err := range r.Rows() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RequiredTables returns the tables a run needs: candidate tables named like a schema
// element, plus the root, classification, attribute and segment tables the
// configuration refers to.
func RequiredTables(s *xschema.Schema, cfg *config.Config) []string {
	var names []string
	seen := make(map[string]struct{})
	add := func(name string) {
		name = strings.ToLower(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, t := range cfg.Tables {
		if s.HasElement(t) {
			add(t)
		}
	}
	add(cfg.RootTable)
	add(cfg.Classification.Table)
	for _, sec := range cfg.Sections {
		add(sec.Table)
	}
	if cfg.Strategy == config.StrategyAttributes {
		add(cfg.Attributes.Table)
	}
	if cfg.Segments.Element != "" && s.HasElement(cfg.Segments.Element) {
		for _, t := range cfg.Segments.Tables {
			add(t.Table)
		}
	}
	return names
}
