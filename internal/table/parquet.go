// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/parquet-go/parquet-go/format"

	"github.com/dacolabs/xmlgen/internal/record"
)

const readBatch = 256

// leaf describes how the values of one parquet leaf column become a record field.
type leaf struct {
	field string
	// path leads from field to the leaf inside a struct column. For repeated columns
	// it leads from the list element, with list wrapper levels removed.
	path     []string
	repeated bool
	maxDef   int
	// elemDef is the definition level at which the enclosing struct column, or the
	// list element of a repeated column, is present.
	elemDef int
	logical *format.LogicalType
}

// listWrappers are the group names the LIST encodings put between a list field and
// its element.
var listWrappers = map[string]bool{"list": true, "element": true, "item": true, "array": true, "bag": true, "array_element": true}

func openFile(path string) (*parquet.File, io.Closer, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("opening parquet file %s: %w", path, err)
	}
	return pf, f, nil
}

func fileColumns(path string) ([]string, error) {
	pf, c, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer c.Close() //nolint:errcheck

	fields := pf.Schema().Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = strings.ToLower(f.Name())
	}
	return cols, nil
}

func fileRowCount(path string) (int64, error) {
	pf, c, err := openFile(path)
	if err != nil {
		return 0, err
	}
	defer c.Close() //nolint:errcheck
	return pf.NumRows(), nil
}

func leaves(schema *parquet.Schema) []leaf {
	paths := schema.Columns()
	out := make([]leaf, len(paths))
	for i, path := range paths {
		l := leaf{field: strings.ToLower(path[0])}
		col, ok := schema.Lookup(path...)
		if ok {
			l.repeated = col.MaxRepetitionLevel > 0
			l.maxDef = col.MaxDefinitionLevel
			l.logical = col.Node.Type().LogicalType()
		}
		rest := path[1:]
		if l.repeated {
			wrappers := 0
			for wrappers < len(rest) && wrappers < 2 && listWrappers[strings.ToLower(rest[wrappers])] {
				wrappers++
			}
			l.elemDef = definitionLevel(schema, path[:1+wrappers])
			rest = rest[wrappers:]
		} else if len(rest) > 0 {
			l.elemDef = definitionLevel(schema, path[:1])
		}
		for _, name := range rest {
			l.path = append(l.path, strings.ToLower(name))
		}
		out[i] = l
	}
	return out
}

// definitionLevel counts the optional and repeated nodes along path.
func definitionLevel(schema *parquet.Schema, path []string) int {
	level := 0
	var node parquet.Node = schema
	for _, name := range path {
		var next parquet.Node
		for _, f := range node.Fields() {
			if f.Name() == name {
				next = f
				break
			}
		}
		if next == nil {
			break
		}
		if next.Optional() || next.Repeated() {
			level++
		}
		node = next
	}
	return level
}

// readFile streams one file's rows into yield. It returns false when iteration must
// stop, either because yield asked to or because an error was reported.
func readFile(path string, yield func(record.Record, error) bool) bool {
	pf, c, err := openFile(path)
	if err != nil {
		yield(nil, err)
		return false
	}
	defer c.Close() //nolint:errcheck

	cols := leaves(pf.Schema())
	buf := make([]parquet.Row, readBatch)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				if !yield(convertRow(cols, row), nil) {
					rows.Close() //nolint:errcheck
					return false
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close() //nolint:errcheck
				yield(nil, fmt.Errorf("reading %s: %w", path, err))
				return false
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			yield(nil, fmt.Errorf("reading %s: %w", path, err))
			return false
		}
	}
	return true
}

func convertRow(cols []leaf, row parquet.Row) record.Record {
	rec := make(record.Record, len(cols))
	// elements counts the list elements seen so far per repeated struct leaf.
	var elements map[int]int
	for _, v := range row {
		idx := v.Column()
		if idx < 0 || idx >= len(cols) {
			continue
		}
		col := cols[idx]
		if !col.repeated {
			if len(col.path) > 0 && v.DefinitionLevel() < col.elemDef {
				if _, seen := rec[col.field]; !seen {
					rec[col.field] = record.Null()
				}
				continue
			}
			setPath(rec, append([]string{col.field}, col.path...), record.Scalar(convertValue(col.logical, v)))
			continue
		}
		seq, ok := rec[col.field]
		if !ok {
			seq = record.Sequence()
		}
		switch {
		case len(col.path) == 0:
			// Empty and null lists are encoded as a single value below the max definition level.
			if !v.IsNull() && v.DefinitionLevel() == col.maxDef {
				seq.Items = append(seq.Items, record.Scalar(convertValue(col.logical, v)))
			}
		case v.DefinitionLevel() >= col.elemDef:
			if elements == nil {
				elements = make(map[int]int)
			}
			n := elements[idx]
			elements[idx]++
			if n >= len(seq.Items) {
				seq.Items = append(seq.Items, record.Nested(record.Record{}))
			}
			var scalar any
			if v.DefinitionLevel() == col.maxDef {
				scalar = convertValue(col.logical, v)
			}
			setPath(seq.Items[n].Record, col.path, record.Scalar(scalar))
		}
		rec[col.field] = seq
	}
	return rec
}

// setPath stores v at path, creating nested records for the intermediate names. A
// value already present at path is kept.
func setPath(rec record.Record, path []string, v record.Value) {
	for _, name := range path[:len(path)-1] {
		child, ok := rec[name]
		if !ok || child.Kind != record.KindNested || child.Record == nil {
			child = record.Nested(record.Record{})
			rec[name] = child
		}
		rec = child.Record
	}
	last := path[len(path)-1]
	if _, seen := rec[last]; !seen {
		rec[last] = v
	}
}

func convertValue(lt *format.LogicalType, v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return dateValue(v.Int32())
		}
		return int64(v.Int32())
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestampValue(lt.Timestamp, v.Int64())
		}
		return v.Int64()
	case parquet.Int96:
		return int96Value(v.Int96())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		b := v.ByteArray()
		if lt != nil && lt.UUID != nil {
			if id, err := uuid.FromBytes(b); err == nil {
				return id.String()
			}
		}
		return string(b)
	default:
		return v.String()
	}
}

func dateValue(days int32) record.Date {
	return record.DateOf(time.Unix(int64(days)*86400, 0))
}

// julianUnixEpoch is the Julian day number of 1970-01-01.
const julianUnixEpoch = 2440588

// int96Value decodes the legacy INT96 timestamp: nanoseconds within the day in the
// first eight bytes, Julian day number in the last four.
func int96Value(v deprecated.Int96) time.Time {
	nanos := int64(uint64(v[1])<<32 | uint64(v[0]))
	days := int64(v[2]) - julianUnixEpoch
	return time.Unix(days*86400, nanos).UTC()
}

func timestampValue(ts *format.TimestampType, n int64) time.Time {
	var t time.Time
	switch {
	case ts.Unit.Millis != nil:
		t = time.UnixMilli(n)
	case ts.Unit.Micros != nil:
		t = time.UnixMicro(n)
	default:
		t = time.Unix(0, n)
	}
	return t.UTC()
}
