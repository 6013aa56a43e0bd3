// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package denorm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/table"
)

// Merge joins every loaded table onto the root table and splits the result into the
// configured sections.
//
// Relation children are nested into their parents first, so multi-level chains reach
// the root already merged. Every other table carrying the root key column is then
// grouped by that key and attached to the root records under the table name. Root
// records with no matching rows get an empty sequence.
func Merge(ctx context.Context, tables Tables, cfg *config.Config) ([]Section, error) {
	if _, err := tables.require(cfg.RootTable); err != nil {
		return nil, err
	}
	m := newMerger(tables, cfg)

	roots, err := m.rows(strings.ToLower(cfg.RootTable))
	if err != nil {
		return nil, err
	}

	for _, name := range m.joinable() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := tables[name].HasColumn(cfg.KeyColumn)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Verbose(fmt.Sprintf("table %s has no %s column, not joined", name, cfg.KeyColumn))
			continue
		}
		rows, err := m.rows(name)
		if err != nil {
			return nil, err
		}
		attach(roots, cfg.KeyColumn, name, groupRows(rows, cfg.KeyColumn, m.key), m.key)
	}

	classes, err := classify(tables, cfg, m.key)
	if err != nil {
		return nil, err
	}
	if classes != nil {
		column := strings.ToLower(cfg.Classification.Column)
		for _, rec := range roots {
			if _, exists := rec[column]; exists {
				continue
			}
			rec[column] = record.Null()
			if k, ok := rec.Key(cfg.KeyColumn); ok {
				if class, ok := classes[m.key(k)]; ok {
					rec[column] = record.Scalar(class)
				}
			}
		}
	}

	sections := make([]Section, 0, len(cfg.Sections))
	for _, spec := range cfg.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sec, err := m.section(spec, roots, classes)
		if err != nil {
			return nil, err
		}
		logger.Verbose(fmt.Sprintf("section %s: %d records", spec.Container, len(sec.Records)))
		sections = append(sections, sec)
	}
	return sections, nil
}

type merger struct {
	tables    Tables
	cfg       *config.Config
	key       KeyFunc
	relations map[string][]config.Relation
	merged    map[string][]record.Record
	active    map[string]bool
}

func newMerger(tables Tables, cfg *config.Config) *merger {
	m := &merger{
		tables:    tables,
		cfg:       cfg,
		key:       Keys(cfg.Keys),
		relations: make(map[string][]config.Relation),
		merged:    make(map[string][]record.Record),
		active:    make(map[string]bool),
	}
	for _, r := range cfg.Relations {
		parent := strings.ToLower(r.Parent)
		m.relations[parent] = append(m.relations[parent], r)
	}
	return m
}

// rows returns a table's rows with every declared relation child nested in.
func (m *merger) rows(name string) ([]record.Record, error) {
	if rows, ok := m.merged[name]; ok {
		return rows, nil
	}
	rel, ok := m.tables[name]
	if !ok {
		return nil, nil
	}
	rows, err := collectClones(rel)
	if err != nil {
		return nil, err
	}
	if m.active[name] {
		return rows, nil
	}
	m.active[name] = true
	defer delete(m.active, name)

	for _, r := range m.relations[name] {
		for _, child := range r.Children {
			child = strings.ToLower(child)
			if _, ok := m.tables[child]; !ok {
				continue
			}
			childRows, err := m.rows(child)
			if err != nil {
				return nil, err
			}
			attach(rows, r.Key, child, groupRows(childRows, r.Key, m.key), m.key)
		}
	}
	m.merged[name] = rows
	return rows, nil
}

// joinable returns the loaded tables that are attached directly to root records,
// sorted by name.
func (m *merger) joinable() []string {
	skip := m.cfg.ChildTables()
	for _, name := range []string{m.cfg.RootTable, m.cfg.Classification.Table, m.cfg.Attributes.Table} {
		skip[strings.ToLower(name)] = struct{}{}
	}
	for _, s := range m.cfg.Sections {
		if s.Table != "" {
			skip[strings.ToLower(s.Table)] = struct{}{}
		}
	}
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		if _, ok := skip[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *merger) section(spec config.Section, roots []record.Record, classes map[string]string) (Section, error) {
	sel := newSelector(spec, m.cfg)
	sec := Section{Spec: spec}

	if spec.MatchType != "" {
		for _, rec := range roots {
			if sel.full() {
				break
			}
			k, ok := rec.Key(m.cfg.KeyColumn)
			if !ok || classes[m.key(k)] != spec.MatchType {
				continue
			}
			if sel.keep(rec) {
				sec.Records = append(sec.Records, rec)
			}
		}
		return sec, nil
	}

	rows, err := m.rows(strings.ToLower(spec.Table))
	if err != nil {
		return sec, err
	}
	if rows == nil {
		logger.Verbose(fmt.Sprintf("section %s: table %s not loaded", spec.Container, spec.Table))
	}
	for _, row := range rows {
		if sel.full() {
			break
		}
		if sel.keep(row) {
			sec.Records = append(sec.Records, row)
		}
	}
	return sec, nil
}

// groupRows groups rows by column in source order. Rows with a blank key never match.
func groupRows(rows []record.Record, column string, key KeyFunc) map[string][]record.Value {
	groups := make(map[string][]record.Value)
	for _, row := range rows {
		k, ok := row.Key(column)
		if !ok {
			continue
		}
		k = key(k)
		groups[k] = append(groups[k], record.Nested(row))
	}
	return groups
}

// attach left-joins groups onto rows under field.
func attach(rows []record.Record, column, field string, groups map[string][]record.Value, key KeyFunc) {
	for _, row := range rows {
		var items []record.Value
		if k, ok := row.Key(column); ok {
			items = groups[key(k)]
		}
		row[field] = record.Sequence(items...)
	}
}

func collectClones(rel *table.Relation) ([]record.Record, error) {
	var out []record.Record
	for row, err := range rel.Rows() {
		if err != nil {
			return nil, err
		}
		out = append(out, row.Clone())
	}
	return out, nil
}
