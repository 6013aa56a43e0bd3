// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package xschema extracts occurrence constraints and name-resolution tables from an
// XML Schema definition.
package xschema

import (
	"fmt"
	"strings"
)

// Unbounded is the MaxOccurs value of an element without an upper bound.
const Unbounded = -1

// Compositor identifies the model group an element declaration belongs to.
type Compositor uint8

const (
	Sequence Compositor = iota
	Choice
	All
)

// String returns the XSD keyword of the compositor.
func (c Compositor) String() string {
	switch c {
	case Choice:
		return "choice"
	case All:
		return "all"
	default:
		return "sequence"
	}
}

// Constraint holds the occurrence bounds and exact tag name of one schema path.
type Constraint struct {
	Path      string
	Name      string
	MinOccurs int
	MaxOccurs int
	Group     Compositor
	// InChoice is set when any enclosing model group up to the parent element is a choice.
	InChoice bool
}

// IsUnbounded reports whether the element has no upper occurrence bound.
func (c Constraint) IsUnbounded() bool {
	return c.MaxOccurs == Unbounded
}

// Repeats reports whether the element may occur more than once.
func (c Constraint) Repeats() bool {
	return c.IsUnbounded() || c.MaxOccurs > 1
}

// Allows reports whether n occurrences are within bounds.
func (c Constraint) Allows(n int) bool {
	if n < c.MinOccurs {
		return false
	}
	return c.IsUnbounded() || n <= c.MaxOccurs
}

// MaxString renders MaxOccurs the way the schema spells it.
func (c Constraint) MaxString() string {
	if c.IsUnbounded() {
		return "unbounded"
	}
	return fmt.Sprint(c.MaxOccurs)
}

// Children lists the child tags of one parent path in schema document order.
type Children struct {
	order []string
	tags  map[string]string
}

func newChildren() *Children {
	return &Children{tags: make(map[string]string)}
}

func (c *Children) add(tag string) {
	lower := strings.ToLower(tag)
	if _, ok := c.tags[lower]; !ok {
		c.order = append(c.order, lower)
	}
	c.tags[lower] = tag
}

// Tag resolves a lowercase name to the exact child tag.
func (c *Children) Tag(lower string) (string, bool) {
	if c == nil {
		return "", false
	}
	tag, ok := c.tags[lower]
	return tag, ok
}

// Len returns the number of distinct children.
func (c *Children) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Names returns the lowercase child names in document order.
func (c *Children) Names() []string {
	if c == nil {
		return nil
	}
	return c.order
}

// NameMap maps a parent path to its children. The empty path holds the top-level elements.
type NameMap map[string]*Children

// Resolve maps a case-insensitive child name under parent to its exact tag.
func (m NameMap) Resolve(parent, name string) (string, bool) {
	return m[parent].Tag(strings.ToLower(name))
}

// Container describes a collection wrapper element and its repeated child.
type Container struct {
	Wrapper string
	Child   string
}

// ContainerMap maps a lowercase repeated child tag to its wrapper.
type ContainerMap map[string]Container

// Schema is the immutable result of constraint extraction. It is safe for concurrent
// read access.
type Schema struct {
	Constraints map[string]Constraint
	Names       NameMap
	Containers  ContainerMap

	paths []string
	tops  []string
}

func newSchema() *Schema {
	return &Schema{
		Constraints: make(map[string]Constraint),
		Names:       make(NameMap),
	}
}

func (s *Schema) add(parent string, c Constraint) {
	if _, ok := s.Constraints[c.Path]; !ok {
		s.paths = append(s.paths, c.Path)
	}
	s.Constraints[c.Path] = c
	children, ok := s.Names[parent]
	if !ok {
		children = newChildren()
		s.Names[parent] = children
	}
	children.add(c.Name)
	if parent == "" {
		s.tops = append(s.tops, c.Name)
	}
}

// Lookup returns the constraint declared at path.
func (s *Schema) Lookup(path string) (Constraint, bool) {
	c, ok := s.Constraints[path]
	return c, ok
}

// Bounds returns the occurrence bounds at path, defaulting to optional and unbounded.
func (s *Schema) Bounds(path string) (minOccurs, maxOccurs int) {
	if c, ok := s.Constraints[path]; ok {
		return c.MinOccurs, c.MaxOccurs
	}
	return 0, Unbounded
}

// Tag returns the exact tag declared at path, or fallback when path is undeclared.
func (s *Schema) Tag(path, fallback string) string {
	if c, ok := s.Constraints[path]; ok {
		return c.Name
	}
	return fallback
}

// Root returns the path of the document root: the first top-level element.
func (s *Schema) Root() string {
	if len(s.tops) == 0 {
		return ""
	}
	return "/" + s.tops[0]
}

// RootNamed returns the path of the top-level element called name (case-insensitive).
// An empty name selects the default root.
func (s *Schema) RootNamed(name string) (string, error) {
	if name == "" {
		if root := s.Root(); root != "" {
			return root, nil
		}
		return "", fmt.Errorf("%w: no top-level element", ErrInvalidSchema)
	}
	tag, ok := s.Names.Resolve("", name)
	if !ok {
		return "", fmt.Errorf("%w: no top-level element %q", ErrInvalidSchema, name)
	}
	return "/" + tag, nil
}

// Paths returns every declared path in discovery order.
func (s *Schema) Paths() []string {
	return s.paths
}

// ElementNames returns the set of declared tag names.
func (s *Schema) ElementNames() map[string]struct{} {
	names := make(map[string]struct{}, len(s.Constraints))
	for _, c := range s.Constraints {
		names[c.Name] = struct{}{}
	}
	return names
}

// HasElement reports whether any declaration uses name (case-insensitive).
func (s *Schema) HasElement(name string) bool {
	for _, c := range s.Constraints {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ParentPath returns the parent of a slash-joined path; top-level paths return "".
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return ""
	}
	return path[:i]
}

// Join appends a child tag to a parent path.
func Join(parent, tag string) string {
	return parent + "/" + tag
}
