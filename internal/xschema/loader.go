// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xschema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Loader loads schema documents from a filesystem.
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a Loader that reads from the given filesystem.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadFile loads and parses a schema file.
func (l *Loader) LoadFile(name string) (*Schema, error) {
	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	defer f.Close() //nolint:errcheck

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// LoadPath loads a schema from an OS path, relative or absolute.
func LoadPath(path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return NewLoader(os.DirFS(filepath.Dir(abs))).LoadFile(filepath.Base(abs))
}
