// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xmltree

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Declaration is the XML declaration written before the root element.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

const indent = "  "

// ErrNoOpenElement is returned when closing more elements than were opened.
var ErrNoOpenElement = errors.New("no open element")

// Writer serializes elements with two-space indentation. It supports writing whole
// trees and streaming: containers can be opened, filled incrementally and closed.
type Writer struct {
	w    *bufio.Writer
	open []string
	err  error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024)}
}

// Declaration writes the XML declaration line.
func (w *Writer) Declaration() error {
	w.write(Declaration)
	w.write("\n")
	return w.err
}

// Depth returns the number of currently open elements.
func (w *Writer) Depth() int {
	return len(w.open)
}

// Open writes a start tag and keeps the element open for streamed children.
func (w *Writer) Open(tag string, attrs ...Attr) error {
	w.write(strings.Repeat(indent, len(w.open)))
	w.startTag(tag, attrs)
	w.write(">\n")
	w.open = append(w.open, tag)
	return w.err
}

// Close writes the end tag of the innermost open element.
func (w *Writer) Close() error {
	if len(w.open) == 0 {
		return ErrNoOpenElement
	}
	tag := w.open[len(w.open)-1]
	w.open = w.open[:len(w.open)-1]
	w.write(strings.Repeat(indent, len(w.open)))
	w.write("</" + tag + ">\n")
	return w.err
}

// Node writes a complete subtree at the current depth.
func (w *Writer) Node(n *Node) error {
	w.node(n, len(w.open))
	return w.err
}

// Raw writes pre-rendered bytes, typically produced by Render at the current depth.
func (w *Writer) Raw(b []byte) error {
	if w.err == nil {
		_, w.err = w.w.Write(b)
	}
	return w.err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Render serializes a subtree as it would appear depth levels deep.
func Render(n *Node, depth int) []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.node(n, depth)
	_ = w.Flush()
	return buf.Bytes()
}

// WriteDocument writes the declaration and the whole tree rooted at root.
func WriteDocument(out io.Writer, root *Node) error {
	w := NewWriter(out)
	if err := w.Declaration(); err != nil {
		return err
	}
	if err := w.Node(root); err != nil {
		return err
	}
	return w.Flush()
}

func (w *Writer) node(n *Node, depth int) {
	pad := strings.Repeat(indent, depth)
	w.write(pad)
	w.startTag(n.Tag, n.Attrs)
	switch {
	case len(n.Children) == 0 && !n.HasText:
		w.write("/>\n")
	case len(n.Children) == 0:
		w.write(">")
		w.text(n.Text)
		w.write("</" + n.Tag + ">\n")
	default:
		w.write(">")
		if n.HasText {
			w.text(n.Text)
		}
		w.write("\n")
		for _, c := range n.Children {
			w.node(c, depth+1)
		}
		w.write(pad + "</" + n.Tag + ">\n")
	}
}

func (w *Writer) startTag(tag string, attrs []Attr) {
	w.write("<" + tag)
	for _, a := range attrs {
		w.write(" " + a.Name + `="`)
		w.text(a.Value)
		w.write(`"`)
	}
}

func (w *Writer) text(s string) {
	if w.err == nil {
		w.err = xml.EscapeText(w.w, []byte(s))
	}
}

func (w *Writer) write(s string) {
	if w.err == nil {
		_, w.err = w.w.WriteString(s)
	}
}
