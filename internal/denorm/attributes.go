// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package denorm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/spill"
)

// AttributeJoin enriches root records with the pairs of a long-format attribute table
// and the rows of the loaded segment tables, and hands them out in fixed-size windows.
type AttributeJoin struct {
	cfg     *config.Config
	tables  Tables
	index   spill.Index
	classes map[string]string
	key     KeyFunc
	// segments holds each loaded segment table's rows grouped by root key.
	segments map[string]map[string][]record.Value
}

// NewAttributeJoin indexes the attribute table into index. Only pairs of classified
// GUIDs are kept. The caller owns index and closes it after the last window.
func NewAttributeJoin(ctx context.Context, tables Tables, cfg *config.Config, index spill.Index) (*AttributeJoin, error) {
	key := Keys(cfg.Keys)
	if _, err := tables.require(cfg.RootTable); err != nil {
		return nil, err
	}
	attrs, err := tables.require(cfg.Attributes.Table)
	if err != nil {
		return nil, err
	}
	classes, err := classify(tables, cfg, key)
	if err != nil {
		return nil, err
	}

	n := 0
	for row, err := range attrs.Rows() {
		if err != nil {
			return nil, err
		}
		if n++; n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		k, ok := row.Key(cfg.KeyColumn)
		if !ok {
			continue
		}
		k = key(k)
		if classes != nil {
			if _, classified := classes[k]; !classified {
				continue
			}
		}
		element, ok := row.Key(cfg.Attributes.ElementColumn)
		if !ok {
			continue
		}
		value, _ := row[strings.ToLower(cfg.Attributes.ValueColumn)].Text()
		if err := index.Add(k, spill.Pair{Element: strings.ToLower(element), Value: value}); err != nil {
			return nil, err
		}
	}
	logger.Verbose(fmt.Sprintf("indexed %d attribute pairs", index.Len()))

	segments, err := groupSegments(ctx, tables, cfg, key, classes)
	if err != nil {
		return nil, err
	}

	return &AttributeJoin{cfg: cfg, tables: tables, index: index, classes: classes, key: key, segments: segments}, nil
}

// groupSegments groups the rows of every loaded segment table by root key. Rows of
// unclassified keys are dropped when a classification is loaded.
func groupSegments(ctx context.Context, tables Tables, cfg *config.Config, key KeyFunc, classes map[string]string) (map[string]map[string][]record.Value, error) {
	m := newMerger(tables, cfg)
	out := make(map[string]map[string][]record.Value)
	for _, st := range cfg.Segments.Tables {
		name := strings.ToLower(st.Table)
		if _, ok := tables[name]; !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := m.rows(name)
		if err != nil {
			return nil, err
		}
		groups := groupRows(rows, cfg.KeyColumn, key)
		if classes != nil {
			for k := range groups {
				if _, classified := classes[k]; !classified {
					delete(groups, k)
				}
			}
		}
		logger.Verbose(fmt.Sprintf("segment table %s: %d keys", name, len(groups)))
		out[name] = groups
	}
	return out, nil
}

// Windows yields the records of one section in windows of the configured size, in
// source order. Each window is a fresh slice; the previous one can be released as soon
// as the next is requested.
func (a *AttributeJoin) Windows(ctx context.Context, spec config.Section) iter.Seq2[[]record.Record, error] {
	return func(yield func([]record.Record, error) bool) {
		name := spec.Table
		if spec.MatchType != "" {
			name = a.cfg.RootTable
		}
		rel, ok := a.tables[strings.ToLower(name)]
		if !ok {
			logger.Verbose(fmt.Sprintf("section %s: table %s not loaded", spec.Container, name))
			return
		}

		size := a.cfg.WindowSize()
		sel := newSelector(spec, a.cfg)
		window := make([]record.Record, 0, size)

		for row, err := range rel.Rows() {
			if err != nil {
				yield(nil, err)
				return
			}
			if sel.full() {
				break
			}
			if spec.MatchType != "" {
				k, ok := row.Key(a.cfg.KeyColumn)
				if !ok || a.classes[a.key(k)] != spec.MatchType {
					continue
				}
			}
			rec, err := a.Enrich(row)
			if err != nil {
				yield(nil, err)
				return
			}
			if !sel.keep(rec) {
				continue
			}
			window = append(window, rec)
			if len(window) == size {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				if !yield(window, nil) {
					return
				}
				window = make([]record.Record, 0, size)
			}
		}
		if len(window) > 0 {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			yield(window, nil)
		}
	}
}

// Enrich returns a copy of row with its segment rows attached under their table names
// and its attribute pairs applied. Values of repeated elements are joined with the
// configured separator in encounter order. A non-empty pair value overrides a
// same-named column.
func (a *AttributeJoin) Enrich(row record.Record) (record.Record, error) {
	rec := row.Clone()
	for name, groups := range a.segments {
		attach([]record.Record{rec}, a.cfg.KeyColumn, name, groups, a.key)
	}
	k, ok := rec.Key(a.cfg.KeyColumn)
	if !ok {
		return rec, nil
	}
	pairs, err := a.index.Lookup(a.key(k))
	if err != nil {
		return nil, err
	}
	ApplyPairs(rec, pairs, a.cfg.Attributes.Separator)
	return rec, nil
}

// ApplyPairs groups pairs by element and merges them into rec.
func ApplyPairs(rec record.Record, pairs []spill.Pair, sep string) {
	var order []string
	values := make(map[string][]string)
	for _, p := range pairs {
		if _, seen := values[p.Element]; !seen {
			order = append(order, p.Element)
			values[p.Element] = nil
		}
		if p.Value != "" {
			values[p.Element] = append(values[p.Element], p.Value)
		}
	}
	for _, element := range order {
		joined := strings.Join(values[element], sep)
		if joined == "" {
			if _, exists := rec[element]; !exists {
				rec[element] = record.Scalar("")
			}
			continue
		}
		rec[element] = ExpandValue(joined)
	}
}

// ExpandValue converts an attribute value to a field value. JSON arrays become
// sequences with one level of nested arrays flattened, JSON objects become nested
// records, and anything else stays a string scalar.
func ExpandValue(s string) record.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '[' && trimmed[0] != '{') {
		return record.Scalar(s)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return record.Scalar(s)
	}
	if items, ok := v.([]any); ok {
		var flat []record.Value
		for _, item := range items {
			if inner, ok := item.([]any); ok {
				for _, x := range inner {
					flat = append(flat, fromJSON(x))
				}
				continue
			}
			flat = append(flat, fromJSON(item))
		}
		return record.Sequence(flat...)
	}
	return fromJSON(v)
}

func fromJSON(v any) record.Value {
	switch x := v.(type) {
	case nil:
		return record.Null()
	case json.Number:
		return record.Scalar(x.String())
	case []any:
		items := make([]record.Value, len(x))
		for i, item := range x {
			items[i] = fromJSON(item)
		}
		return record.Sequence(items...)
	case map[string]any:
		rec := make(record.Record, len(x))
		for k, item := range x {
			rec[strings.ToLower(k)] = fromJSON(item)
		}
		return record.Nested(rec)
	default:
		return record.Scalar(x)
	}
}
