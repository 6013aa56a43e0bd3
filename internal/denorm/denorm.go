// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package denorm turns relational tables into nested per-record trees ready for
// population.
//
// Two strategies are provided. Merge joins every loaded table in memory and returns
// complete sections. Attributes joins a long-format (guid, element, value) table in
// fixed-size windows so that output can be streamed.
package denorm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/table"
)

// ErrMissingTable is returned when a table the configuration requires was not loaded.
var ErrMissingTable = errors.New("required table not loaded")

// Tables holds loaded relations keyed by lowercase table name.
type Tables map[string]*table.Relation

// Section is one output container with its records in output order.
type Section struct {
	Spec    config.Section
	Records []record.Record
}

// KeyFunc maps a raw join key to its comparison form.
type KeyFunc func(string) string

// Keys returns the key function configured by cfg. With GUID normalization enabled,
// parseable GUIDs compare by their canonical lowercase form.
func Keys(cfg config.Keys) KeyFunc {
	if !cfg.NormalizeGUIDs {
		return func(k string) string { return k }
	}
	return func(k string) string {
		if id, err := uuid.Parse(strings.TrimSpace(k)); err == nil {
			return id.String()
		}
		return k
	}
}

func (t Tables) require(name string) (*table.Relation, error) {
	rel, ok := t[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, name)
	}
	return rel, nil
}

// classify reads the classification lookup. The first classification of a key wins.
func classify(tables Tables, cfg *config.Config, key KeyFunc) (map[string]string, error) {
	if !usesMatchType(cfg) {
		return nil, nil
	}
	rel, err := tables.require(cfg.Classification.Table)
	if err != nil {
		return nil, err
	}
	classes := make(map[string]string)
	for row, err := range rel.Rows() {
		if err != nil {
			return nil, err
		}
		k, ok := row.Key(cfg.KeyColumn)
		if !ok {
			continue
		}
		k = key(k)
		if _, seen := classes[k]; seen {
			continue
		}
		if class, ok := row.Key(cfg.Classification.Column); ok {
			classes[k] = class
		}
	}
	return classes, nil
}

func usesMatchType(cfg *config.Config) bool {
	for _, s := range cfg.Sections {
		if s.MatchType != "" {
			return true
		}
	}
	return false
}

// selector decides which records a section keeps.
type selector struct {
	spec   config.Section
	policy config.SegmentPolicy
	single []string
	multi  []string
	kept   int
}

func newSelector(spec config.Section, cfg *config.Config) *selector {
	s := &selector{spec: spec, policy: config.SegmentPolicyNone}
	if spec.SegmentFilter && cfg.Filters.RequireSegments != "" {
		s.policy = cfg.Filters.RequireSegments
	}
	for _, t := range cfg.Segments.Tables {
		if t.MultiField {
			s.multi = append(s.multi, strings.ToLower(t.Table))
		} else {
			s.single = append(s.single, strings.ToLower(t.Table))
		}
	}
	return s
}

// full reports whether the section limit has been reached.
func (s *selector) full() bool {
	return s.spec.Limit > 0 && s.kept >= s.spec.Limit
}

// keep applies the segment policy and counts kept records.
func (s *selector) keep(rec record.Record) bool {
	if s.full() || !MatchesSegmentPolicy(rec, s.policy, s.single, s.multi) {
		return false
	}
	s.kept++
	return true
}

// MatchesSegmentPolicy reports whether rec satisfies policy given the single-field and
// multi-field segment table names.
func MatchesSegmentPolicy(rec record.Record, policy config.SegmentPolicy, single, multi []string) bool {
	switch policy {
	case config.SegmentPolicyAnyPerKind:
		return hasAny(rec, single) && hasAny(rec, multi)
	case config.SegmentPolicyAll:
		for _, names := range [][]string{single, multi} {
			for _, n := range names {
				if !rec.Has(n) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

func hasAny(rec record.Record, names []string) bool {
	for _, n := range names {
		if rec.Has(n) {
			return true
		}
	}
	return false
}
