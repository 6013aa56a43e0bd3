// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/untillpro/goutils/logger"
)

// FileSystem is the backend for local paths.
type FileSystem struct{}

// Fetch mirrors the directory tree at src into dir. A src naming a single file copies
// just that file.
func (FileSystem) Fetch(ctx context.Context, src Location, dir string) (int, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", src, err)
	}
	if !info.IsDir() {
		if err := copyFile(src.Path, filepath.Join(dir, filepath.Base(src.Path))); err != nil {
			return 0, err
		}
		return 1, nil
	}

	n := 0
	err = filepath.WalkDir(src.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src.Path, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		n++
		logger.Verbose("fetched " + rel)
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("fetching %s: %w", src, err)
	}
	return n, nil
}

// Upload copies file to dst. When dst is an existing directory or ends with a path
// separator the file keeps its base name inside it.
func (FileSystem) Upload(ctx context.Context, file string, dst Location) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	target := dst.Path
	if info, err := os.Stat(target); (err == nil && info.IsDir()) || strings.HasSuffix(dst.Path, string(filepath.Separator)) {
		target = filepath.Join(target, filepath.Base(file))
	}
	if err := copyFile(file, target); err != nil {
		return Location{}, fmt.Errorf("uploading %s: %w", file, err)
	}
	return Location{Scheme: SchemeFile, Path: target}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // path comes from the user
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dst) //nolint:gosec // path comes from the user
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
