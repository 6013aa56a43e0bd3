// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package populate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/xmltree"
)

// Segment element and column names.
const (
	SegmentTag      = "Segment"
	RecordTag       = "Record"
	FieldTag        = "Field"
	LastUpdatedTag  = "LastUpdated"
	DerivedNameTag  = "DerivedName"
	DerivedValueTag = "DerivedValue"

	lastUpdatedColumn = "lastupdated"
	sourceNameColumn  = "source_name"
	sourceNameLabel   = "Source Name"
)

func (p *Populator) buildSegments(wrapper *xmltree.Node, rec record.Record) error {
	for _, st := range p.segments.Tables {
		field := strings.ToLower(st.Table)
		v, ok := rec[field]
		if !ok {
			continue
		}
		rows, err := segmentRows(field, v)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		if st.MultiField {
			MultiFieldSegment(wrapper, st, rows)
		} else {
			SingleFieldSegment(wrapper, st, rows)
		}
	}
	return nil
}

func segmentRows(field string, v record.Value) ([]record.Record, error) {
	switch v.Kind {
	case record.KindSequence:
		rows := make([]record.Record, 0, len(v.Items))
		for _, item := range v.Items {
			if item.Kind != record.KindNested {
				return nil, &StructuralError{Path: field, Field: field, Kind: item.Kind}
			}
			rows = append(rows, item.Record)
		}
		return rows, nil
	case record.KindNested:
		return []record.Record{v.Record}, nil
	case record.KindScalar:
		if v.IsBlank() {
			return nil, nil
		}
	}
	return nil, &StructuralError{Path: field, Field: field, Kind: v.Kind}
}

// SingleFieldSegment renders the first row of a segment table as a Segment holding
// one Source Name field. It returns nil when rows is empty.
func SingleFieldSegment(parent *xmltree.Node, st config.SegmentTable, rows []record.Record) *xmltree.Node {
	if len(rows) == 0 {
		return nil
	}
	segment, rec := segmentHeader(parent, st, rows[0])
	addField(rec, sourceNameLabel, rows[0])
	return segment
}

// MultiFieldSegment renders every row of a segment table as a Field of one Segment.
// The record header comes from the first row. It returns nil when rows is empty.
func MultiFieldSegment(parent *xmltree.Node, st config.SegmentTable, rows []record.Record) *xmltree.Node {
	if len(rows) == 0 {
		return nil
	}
	segment, rec := segmentHeader(parent, st, rows[0])
	name := DerivedName(st)
	for _, row := range rows {
		addField(rec, name, row)
	}
	return segment
}

// DerivedName returns the field name used by multi-field segments.
func DerivedName(st config.SegmentTable) string {
	if st.FieldName != "" {
		return st.FieldName
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(st.Table, "_", " "))
}

func segmentHeader(parent *xmltree.Node, st config.SegmentTable, first record.Record) (*xmltree.Node, *xmltree.Node) {
	segment := parent.Add(SegmentTag)
	segment.SetAttr("Type", st.Label)
	rec := segment.Add(RecordTag)
	guid, _ := first[strings.ToLower(st.GUIDColumn)].Text()
	rec.SetAttr("GUID", guid)
	lastUpdated := rec.Add(LastUpdatedTag)
	if text, ok := first[lastUpdatedColumn].Text(); ok {
		lastUpdated.SetText(text)
	}
	return segment, rec
}

func addField(rec *xmltree.Node, name string, row record.Record) {
	field := rec.Add(FieldTag)
	field.AddText(DerivedNameTag, name)
	value := field.Add(DerivedValueTag)
	if text, ok := row[sourceNameColumn].Text(); ok {
		value.SetText(text)
	}
}
