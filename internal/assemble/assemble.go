// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package assemble builds output subtrees in parallel and places them in the document,
// either in memory or streamed to a writer window by window.
package assemble

import (
	"context"
	"fmt"
	"iter"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dacolabs/xmlgen/internal/populate"
	"github.com/dacolabs/xmlgen/internal/record"
	"github.com/dacolabs/xmlgen/internal/xmltree"
	"github.com/dacolabs/xmlgen/internal/xschema"
)

// Workers returns n, or the number of CPUs when n is not positive.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Map applies fn to every item on a bounded pool and returns the results in item
// order. The first error cancels the remaining work and is returned.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// gctx is always done after Wait.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Assembler builds section subtrees with a shared populator.
type Assembler struct {
	populator *populate.Populator
	root      string
	workers   int
}

// New creates an Assembler for the document rooted at root, a schema path such as
// "/WCOData".
func New(p *populate.Populator, root string, workers int) *Assembler {
	return &Assembler{populator: p, root: root, workers: Workers(workers)}
}

// Root returns the document root path.
func (a *Assembler) Root() string {
	return a.root
}

// RootTag returns the exact tag of the document root.
func (a *Assembler) RootTag() string {
	return a.populator.Schema().Tag(a.root, a.root[1:])
}

// ContainerTag returns the exact tag of a section container under the root.
func (a *Assembler) ContainerTag(container string) string {
	return a.populator.Schema().Tag(xschema.Join(a.root, container), container)
}

func (a *Assembler) itemPath(container, element string) string {
	parent := xschema.Join(a.root, a.ContainerTag(container))
	return xschema.Join(parent, a.populator.Schema().Tag(xschema.Join(parent, element), element))
}

// BuildSection builds one subtree per record, in record order.
func (a *Assembler) BuildSection(ctx context.Context, container, element string, records []record.Record) ([]*xmltree.Node, error) {
	path := a.itemPath(container, element)
	return Map(ctx, a.workers, records, func(_ context.Context, rec record.Record) (*xmltree.Node, error) {
		return a.populator.Build(path, rec)
	})
}

// Section is one container's contents for the batch document.
type Section struct {
	Container string
	Element   string
	Records   []record.Record
}

// Document builds the whole document in memory. Containers are emitted in section
// order; empty sections still produce their container element.
func (a *Assembler) Document(ctx context.Context, sections []Section) (*xmltree.Node, error) {
	root := xmltree.New(a.RootTag())
	for _, s := range sections {
		nodes, err := a.BuildSection(ctx, s.Container, s.Element, s.Records)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", s.Container, err)
		}
		root.Add(a.ContainerTag(s.Container)).Append(nodes...)
	}
	return root, nil
}

// Stream writes the document incrementally. The root and every container are opened
// once; each window's subtrees are rendered in parallel, written in record order and
// released before the next window is requested.
func (a *Assembler) Stream(ctx context.Context, w *xmltree.Writer, sections []StreamSection) error {
	if err := w.Declaration(); err != nil {
		return err
	}
	if err := w.Open(a.RootTag()); err != nil {
		return err
	}
	for _, s := range sections {
		if err := a.streamSection(ctx, w, s); err != nil {
			return fmt.Errorf("streaming %s: %w", s.Container, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return w.Flush()
}

// StreamSection is one container's contents for a streamed document.
type StreamSection struct {
	Container string
	Element   string
	Windows   iter.Seq2[[]record.Record, error]
	// OnWindow is called after each window has been written.
	OnWindow func(index, records int)
}

func (a *Assembler) streamSection(ctx context.Context, w *xmltree.Writer, s StreamSection) error {
	if err := w.Open(a.ContainerTag(s.Container)); err != nil {
		return err
	}
	path := a.itemPath(s.Container, s.Element)
	depth := w.Depth()
	index := 0
	for window, err := range s.Windows {
		if err != nil {
			return err
		}
		chunks, err := Map(ctx, a.workers, window, func(_ context.Context, rec record.Record) ([]byte, error) {
			n, err := a.populator.Build(path, rec)
			if err != nil {
				return nil, err
			}
			return xmltree.Render(n, depth), nil
		})
		if err != nil {
			return err
		}
		for _, c := range chunks {
			if err := w.Raw(c); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if s.OnWindow != nil {
			s.OnWindow(index, len(window))
		}
		index++
	}
	return w.Close()
}
