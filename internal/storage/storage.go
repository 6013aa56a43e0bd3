// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package storage moves input tables and packaged output between the local disk and
// the locations named by storage URIs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedScheme indicates no backend is registered for a URI scheme.
	ErrUnsupportedScheme = errors.New("unsupported storage scheme")

	// ErrInvalidLocation indicates a storage URI could not be parsed.
	ErrInvalidLocation = errors.New("invalid storage location")
)

// SchemeFile is the scheme of local filesystem locations. URIs without a scheme use it.
const SchemeFile = "file"

// Location is a parsed storage URI.
type Location struct {
	Scheme string
	Host   string
	Path   string
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Path
	}
	return l.Scheme + "://" + l.Host + l.Path
}

// Parse parses a storage URI. Bare paths and Windows drive paths are file locations.
func Parse(uri string) (Location, error) {
	if uri == "" {
		return Location{}, fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	if !strings.Contains(uri, "://") || filepath.VolumeName(uri) != "" {
		return Location{Scheme: SchemeFile, Path: cleanPath(uri)}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == SchemeFile {
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = u.Host + path
		}
		if path == "" {
			return Location{}, fmt.Errorf("%w: %s has no path", ErrInvalidLocation, uri)
		}
		return Location{Scheme: SchemeFile, Path: cleanPath(filepath.FromSlash(path))}, nil
	}
	return Location{Scheme: scheme, Host: u.Host, Path: u.Path}, nil
}

// cleanPath cleans p but keeps a trailing separator, which marks a directory target.
func cleanPath(p string) string {
	clean := filepath.Clean(p)
	if strings.HasSuffix(p, string(filepath.Separator)) && !strings.HasSuffix(clean, string(filepath.Separator)) {
		clean += string(filepath.Separator)
	}
	return clean
}

// Fetcher copies the files under a location into a local directory.
type Fetcher interface {
	// Fetch mirrors src into dir and returns the number of files copied.
	Fetch(ctx context.Context, src Location, dir string) (int, error)
}

// Uploader copies a local file to a location.
type Uploader interface {
	// Upload copies file to dst and returns the final location of the copy.
	Upload(ctx context.Context, file string, dst Location) (Location, error)
}

// Backend serves one URI scheme.
type Backend interface {
	Fetcher
	Uploader
}

// Register holds the available backends by scheme.
type Register map[string]Backend

// Default returns a register with the local filesystem backend.
func Default() Register {
	r := make(Register)
	r.Add(SchemeFile, FileSystem{})
	return r
}

// Add registers b for scheme.
func (r Register) Add(scheme string, b Backend) {
	r[strings.ToLower(scheme)] = b
}

// Get retrieves the backend for scheme.
func (r Register) Get(scheme string) (Backend, error) {
	b, ok := r[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnsupportedScheme, scheme, strings.Join(r.Available(), ", "))
	}
	return b, nil
}

// Available returns all registered schemes, sorted.
func (r Register) Available() []string {
	schemes := make([]string, 0, len(r))
	for s := range r {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Fetch parses uri and mirrors it into dir with the matching backend.
func (r Register) Fetch(ctx context.Context, uri, dir string) (int, error) {
	loc, err := Parse(uri)
	if err != nil {
		return 0, err
	}
	b, err := r.Get(loc.Scheme)
	if err != nil {
		return 0, err
	}
	return b.Fetch(ctx, loc, dir)
}

// Upload parses uri and copies file there with the matching backend.
func (r Register) Upload(ctx context.Context, file, uri string) (Location, error) {
	loc, err := Parse(uri)
	if err != nil {
		return Location{}, err
	}
	b, err := r.Get(loc.Scheme)
	if err != nil {
		return Location{}, err
	}
	return b.Upload(ctx, file, loc)
}
