// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xschema

import "iter"

// Walk returns an iterator over every constraint in discovery (depth-first) order.
func (s *Schema) Walk() iter.Seq[Constraint] {
	return func(yield func(Constraint) bool) {
		for _, path := range s.paths {
			if !yield(s.Constraints[path]) {
				return
			}
		}
	}
}

// Children returns an iterator over the children of parent in document order,
// yielding the lowercase name and the exact tag.
func (s *Schema) Children(parent string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		children := s.Names[parent]
		for _, lower := range children.Names() {
			if !yield(lower, children.tags[lower]) {
				return
			}
		}
	}
}

// Subtree returns an iterator over the constraints at or below path.
func (s *Schema) Subtree(path string) iter.Seq[Constraint] {
	return func(yield func(Constraint) bool) {
		s.subtree(path, yield)
	}
}

func (s *Schema) subtree(path string, yield func(Constraint) bool) bool {
	if c, ok := s.Constraints[path]; ok {
		if !yield(c) {
			return false
		}
	}
	for _, tag := range s.Children(path) {
		if !s.subtree(Join(path, tag), yield) {
			return false
		}
	}
	return true
}
