// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package populate builds output elements from denormalized records under the
// occurrence constraints of a schema.
package populate

import (
	"fmt"
	"strings"

	"github.com/dacolabs/xmlgen/internal/config"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/xmltree"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

// StructuralError reports a field value whose shape cannot be rendered.
type StructuralError struct {
	Path  string
	Field string
	Kind  record.Kind
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("cannot render %s value of field %q at %s", e.Kind, e.Field, e.Path)
}

// Populator renders records as element trees. It holds only immutable schema and
// configuration data and is safe for concurrent use.
type Populator struct {
	schema   *xschema.Schema
	segments config.Segments
	segLower string
}

// New creates a Populator. Records reaching the segments element are rendered by the
// segment builders instead of the occurrence rules.
func New(s *xschema.Schema, segments config.Segments) *Populator {
	return &Populator{
		schema:   s,
		segments: segments,
		segLower: strings.ToLower(segments.Element),
	}
}

// Schema returns the schema the populator renders against.
func (p *Populator) Schema() *xschema.Schema {
	return p.schema
}

// Build creates the element declared at path and populates it from rec.
func (p *Populator) Build(path string, rec record.Record) (*xmltree.Node, error) {
	tag := path[strings.LastIndexByte(path, '/')+1:]
	node := xmltree.New(p.schema.Tag(path, tag))
	if err := p.Populate(node, path, rec); err != nil {
		return nil, err
	}
	return node, nil
}

// Populate appends to parent the children declared at path, in schema order, using the
// fields of rec.
func (p *Populator) Populate(parent *xmltree.Node, path string, rec record.Record) error {
	children := p.schema.Names[path]
	for _, lower := range children.Names() {
		tag, _ := children.Tag(lower)
		childPath := xschema.Join(path, tag)
		minOccurs, maxOccurs := p.schema.Bounds(childPath)

		if p.segLower != "" && lower == p.segLower {
			if err := p.buildSegments(parent.Add(tag), rec); err != nil {
				return err
			}
			continue
		}

		v, ok := rec[lower]
		if !ok {
			if _, isContainer := p.schema.Containers[lower]; isContainer {
				for range minOccurs {
					parent.Add(tag)
				}
				continue
			}
			if err := p.Populate(parent.Add(tag), childPath, rec); err != nil {
				return err
			}
			continue
		}

		switch v.Kind {
		case record.KindSequence:
			if err := p.sequence(parent, childPath, tag, lower, v.Items, minOccurs, maxOccurs); err != nil {
				return err
			}
		case record.KindNested:
			if err := p.Populate(parent.Add(tag), childPath, v.Record); err != nil {
				return err
			}
		case record.KindScalar:
			if text, ok := v.Text(); ok {
				parent.AddText(tag, text)
			}
		default:
			return &StructuralError{Path: childPath, Field: lower, Kind: v.Kind}
		}
	}
	return nil
}

func (p *Populator) sequence(parent *xmltree.Node, path, tag, field string, items []record.Value, minOccurs, maxOccurs int) error {
	used := len(items)
	if maxOccurs != xschema.Unbounded && used > maxOccurs {
		used = maxOccurs
	}
	for _, item := range items[:used] {
		child := parent.Add(tag)
		switch item.Kind {
		case record.KindNested:
			if err := p.Populate(child, path, item.Record); err != nil {
				return err
			}
		case record.KindScalar:
			if text, ok := item.Text(); ok {
				child.SetText(text)
			}
		default:
			return &StructuralError{Path: path, Field: field, Kind: item.Kind}
		}
	}
	for i := len(items); i < minOccurs; i++ {
		parent.Add(tag)
	}
	return nil
}
