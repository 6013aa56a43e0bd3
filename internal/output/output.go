// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package output writes generated documents to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dacolabs/xmlgen/internal/xmltree"
)

// Mock record GUIDs.
var (
	MockEntityGUID       = uuid.MustParse("CD6FEAD6-EBFB-4FAC-BDF1-47E47AA5B2FD")
	MockRelationshipGUID = uuid.MustParse("5248D129-2092-4017-8E87-A068BD65FF56")
	MockDeleteGUID       = uuid.MustParse("A7B4D9C1-5FB4-41A1-8E22-0D38405C3EC4")
)

// Create opens path for writing, creating parent directories.
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	return os.Create(path) //nolint:gosec // path is provided by caller
}

// WriteDocument writes root as a complete document to path.
func WriteDocument(path string, root *xmltree.Node) error {
	f, err := Create(path)
	if err != nil {
		return err
	}
	if err := xmltree.WriteDocument(f, root); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// MockDocument returns the fixed document used to exercise delivery without input
// data: one entity, one relationship and one deletion, each with only a GUID.
func MockDocument() *xmltree.Node {
	root := xmltree.New("WCOData")
	for _, s := range []struct {
		container, element string
		id                 uuid.UUID
	}{
		{"Entities", "Entity", MockEntityGUID},
		{"Relationships", "Relationship", MockRelationshipGUID},
		{"EntityDeletes", "EntityDelete", MockDeleteGUID},
	} {
		root.Add(s.container).Add(s.element).AddText("EntityGUID", strings.ToUpper(s.id.String()))
	}
	return root
}

// WriteMock writes the mock document to path.
func WriteMock(path string) error {
	return WriteDocument(path, MockDocument())
}
