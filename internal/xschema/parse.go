// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xschema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidSchema indicates the schema document could not be read or is malformed.
var ErrInvalidSchema = errors.New("invalid schema")

// node is a generic DOM element of the schema document.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// local strips a namespace prefix from a QName reference.
func local(qname string) string {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// Parse reads a schema document and builds its constraint table, name map and
// container map.
func Parse(r io.Reader) (*Schema, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if root.XMLName.Local != "schema" {
		return nil, fmt.Errorf("%w: root element is %q, want schema", ErrInvalidSchema, root.XMLName.Local)
	}

	w := &walker{
		schema:    newSchema(),
		types:     make(map[string]*node),
		groups:    make(map[string]*node),
		elements:  make(map[string]*node),
		expanding: make(map[string]bool),
	}
	for i := range root.Nodes {
		n := &root.Nodes[i]
		name := n.attr("name")
		if name == "" {
			continue
		}
		switch n.XMLName.Local {
		case "complexType":
			w.types[name] = n
		case "group":
			w.groups[name] = n
		case "element":
			w.elements[name] = n
		}
	}

	for i := range root.Nodes {
		n := &root.Nodes[i]
		if n.XMLName.Local != "element" {
			continue
		}
		if err := w.element(n, "", scope{}); err != nil {
			return nil, err
		}
	}
	if len(w.schema.tops) == 0 {
		return nil, fmt.Errorf("%w: no top-level element declarations", ErrInvalidSchema)
	}

	w.schema.Containers = DetectContainers(w.schema)
	return w.schema, nil
}

// scope carries the innermost model group of the element being declared.
type scope struct {
	group    Compositor
	inChoice bool
}

func (s scope) enter(g Compositor) scope {
	return scope{group: g, inChoice: s.inChoice || g == Choice}
}

type walker struct {
	schema    *Schema
	types     map[string]*node
	groups    map[string]*node
	elements  map[string]*node
	expanding map[string]bool
}

func (w *walker) element(n *node, parent string, sc scope) error {
	decl := n
	name := n.attr("name")
	if name == "" {
		ref := local(n.attr("ref"))
		if ref == "" {
			return nil
		}
		target, ok := w.elements[ref]
		if !ok {
			return fmt.Errorf("%w: element ref %q under %q not declared", ErrInvalidSchema, ref, parent)
		}
		decl = target
		name = ref
	}

	minOccurs, maxOccurs, err := occurs(n)
	if err != nil {
		return fmt.Errorf("%w: element %s/%s: %v", ErrInvalidSchema, parent, name, err)
	}
	path := Join(parent, name)
	w.schema.add(parent, Constraint{
		Path:      path,
		Name:      name,
		MinOccurs: minOccurs,
		MaxOccurs: maxOccurs,
		Group:     sc.group,
		InChoice:  sc.inChoice,
	})

	if decl != n {
		key := "element:" + name
		if w.expanding[key] {
			return nil
		}
		w.expanding[key] = true
		defer delete(w.expanding, key)
	}

	if typeName := local(decl.attr("type")); typeName != "" {
		if err := w.namedType(typeName, path); err != nil {
			return err
		}
	}
	return w.content(decl, path, scope{})
}

// namedType expands a top-level complexType into path. Built-in and simple types have
// no element content and are ignored.
func (w *walker) namedType(typeName, path string) error {
	ct, ok := w.types[typeName]
	if !ok {
		return nil
	}
	key := "type:" + typeName
	if w.expanding[key] {
		return nil
	}
	w.expanding[key] = true
	defer delete(w.expanding, key)
	return w.content(ct, path, scope{})
}

func (w *walker) content(n *node, path string, sc scope) error {
	for i := range n.Nodes {
		c := &n.Nodes[i]
		var err error
		switch c.XMLName.Local {
		case "element":
			err = w.element(c, path, sc)
		case "sequence":
			err = w.content(c, path, sc.enter(Sequence))
		case "choice":
			err = w.content(c, path, sc.enter(Choice))
		case "all":
			err = w.content(c, path, sc.enter(All))
		case "complexType", "complexContent":
			err = w.content(c, path, sc)
		case "extension":
			if base := local(c.attr("base")); base != "" {
				if err = w.namedType(base, path); err != nil {
					return err
				}
			}
			err = w.content(c, path, sc)
		case "restriction":
			err = w.content(c, path, sc)
		case "group":
			err = w.group(c, path, sc)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) group(n *node, path string, sc scope) error {
	ref := local(n.attr("ref"))
	if ref == "" {
		return w.content(n, path, sc)
	}
	g, ok := w.groups[ref]
	if !ok {
		return fmt.Errorf("%w: group ref %q under %q not declared", ErrInvalidSchema, ref, path)
	}
	key := "group:" + ref
	if w.expanding[key] {
		return nil
	}
	w.expanding[key] = true
	defer delete(w.expanding, key)
	return w.content(g, path, sc)
}

// occurs reads minOccurs and maxOccurs with XSD-style defaults relaxed to
// optional and unbounded.
func occurs(n *node) (int, int, error) {
	minOccurs := 0
	if s := strings.TrimSpace(n.attr("minOccurs")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("invalid minOccurs %q", s)
		}
		minOccurs = v
	}

	maxOccurs := Unbounded
	if s := strings.TrimSpace(n.attr("maxOccurs")); s != "" && !strings.EqualFold(s, "unbounded") {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("invalid maxOccurs %q", s)
		}
		maxOccurs = v
	}

	if maxOccurs != Unbounded && minOccurs > maxOccurs {
		return 0, 0, fmt.Errorf("minOccurs %d exceeds maxOccurs %d", minOccurs, maxOccurs)
	}
	return minOccurs, maxOccurs, nil
}
