// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package validate checks a generated document against its XML Schema. Structure,
// occurrence bounds, datatypes and facets are checked by a compiled XSD 1.0 validator;
// the package adds the configured root check and a capped diagnostic report.
package validate

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
)

// MaxDiagnostics caps the number of recorded errors.
const MaxDiagnostics = 100

// Diagnostic codes produced by this package. Schema violations carry the validator's
// own codes, such as cvc-datatype-valid or cvc-complex-type.2.4.
const (
	CodeRoot      = "root"
	CodeTruncated = "truncated"
)

// rootSniffSize bounds how far into a document the root element is looked for.
const rootSniffSize = 64 << 10

// Severity is the level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single validation finding.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	// Path is the element path the finding refers to.
	Path string
	// Line is the 1-based input line, or 0 when unknown.
	Line int
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}
	if d.Path != "" {
		b.WriteString(d.Path + ": ")
	}
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	return b.String()
}

// Report holds the outcome of validating one document.
type Report struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	// Root is the local name of the document element, empty when none was found.
	Root    string
	dropped int
}

// Valid reports whether the document produced no errors.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the errors combined into one error, or nil when the document is valid.
func (r *Report) Err() error {
	if r.Valid() {
		return nil
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.String()
	}
	return errors.New(strings.Join(parts, "; "))
}

func (r *Report) add(d Diagnostic) {
	if len(r.Errors) >= MaxDiagnostics {
		r.dropped++
		return
	}
	d.Severity = SeverityError
	r.Errors = append(r.Errors, d)
}

// finish records a warning for diagnostics dropped past MaxDiagnostics.
func (r *Report) finish() {
	if r.dropped > 0 {
		r.Warnings = append(r.Warnings, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeTruncated,
			Message:  fmt.Sprintf("%d further errors not shown", r.dropped),
		})
	}
}

// Schema is a compiled XML Schema.
type Schema struct {
	compiled *xsd.Schema
	path     string
}

// Load compiles the schema at path. Includes and imports resolve relative to its
// directory.
func Load(path string) (*Schema, error) {
	compiled, err := xsd.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Schema{compiled: compiled, path: path}, nil
}

// Path returns the file the schema was compiled from.
func (s *Schema) Path() string {
	return s.path
}

// File validates the document at path against s. When root is not empty the
// document element must carry that local name.
func File(path string, s *Schema, root string) (*Report, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return Reader(f, s, root)
}

// Reader validates a document read from r against s. Malformed XML and schema
// violations are reported as diagnostics; only read failures return an error.
func Reader(r io.Reader, s *Schema, root string) (*Report, error) {
	report := &Report{}
	br := bufio.NewReaderSize(r, rootSniffSize)
	head, err := br.Peek(rootSniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	if name, line, ok := firstElement(head); ok {
		report.Root = name
		if root != "" && name != root {
			report.add(Diagnostic{
				Code:    CodeRoot,
				Message: fmt.Sprintf("root element %s, expected %s", name, root),
				Path:    "/" + name,
				Line:    line,
			})
		}
	}

	if err := s.compiled.Validate(br); err != nil {
		violations, ok := xsderrors.AsValidations(err)
		if !ok {
			return nil, err
		}
		for _, v := range violations {
			report.add(fromViolation(v))
		}
	}

	report.finish()
	return report, nil
}

func fromViolation(v xsderrors.Validation) Diagnostic {
	msg := v.Message
	if len(v.Expected) > 0 {
		msg += " (expected: " + strings.Join(v.Expected, ", ") + ")"
	}
	if v.Actual != "" {
		msg += " (actual: " + v.Actual + ")"
	}
	return Diagnostic{Code: v.Code, Message: msg, Path: v.Path, Line: v.Line}
}

// firstElement returns the local name and line of the first start element in head.
func firstElement(head []byte) (string, int, bool) {
	dec := xml.NewDecoder(bytes.NewReader(head))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", 0, false
		}
		if start, ok := tok.(xml.StartElement); ok {
			line, _ := dec.InputPos()
			return start.Name.Local, line, true
		}
	}
}
