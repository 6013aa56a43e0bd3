// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package record defines the denormalized record model produced by the denormalizer
// and consumed by the tree populator.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the shape of a field value.
type Kind uint8

const (
	// KindInvalid is the zero Kind. Populating it is a structural error.
	KindInvalid Kind = iota
	// KindScalar is a single leaf value (possibly null).
	KindScalar
	// KindSequence is an ordered one-to-many collection.
	KindSequence
	// KindNested is a single nested record.
	KindNested
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindNested:
		return "nested"
	default:
		return "invalid"
	}
}

// Value is a tagged field value. Only the member matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Scalar any
	Items  []Value
	Record Record
}

// Date is a calendar day read from a DATE column. It formats without a time of day,
// unlike a time.Time scalar which always formats as a full timestamp.
type Date struct {
	time.Time
}

// DateOf returns the calendar day of t in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Record holds a record's fields keyed by lowercase name.
type Record map[string]Value

// Scalar wraps a leaf value. A nil v is a null scalar.
func Scalar(v any) Value {
	return Value{Kind: KindScalar, Scalar: v}
}

// Null returns a null scalar.
func Null() Value {
	return Value{Kind: KindScalar}
}

// Sequence wraps an ordered collection. A nil items slice is an empty sequence.
func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindSequence, Items: items}
}

// Nested wraps a single nested record.
func Nested(r Record) Value {
	return Value{Kind: KindNested, Record: r}
}

// IsBlank reports whether v is a null scalar or an empty string scalar.
func (v Value) IsBlank() bool {
	if v.Kind != KindScalar {
		return false
	}
	switch s := v.Scalar.(type) {
	case nil:
		return true
	case string:
		return s == ""
	case []byte:
		return len(s) == 0
	}
	return false
}

// Text returns the canonical string form of a scalar value.
// Blank scalars return ok=false.
func (v Value) Text() (string, bool) {
	if v.Kind != KindScalar || v.IsBlank() {
		return "", false
	}
	return Format(v.Scalar), true
}

// Format renders a scalar in its canonical string form.
func Format(s any) string {
	switch x := s.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case Date:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Key returns the join-key form of a scalar field, or ok=false when the field is
// missing, not a scalar, or blank.
func (r Record) Key(column string) (string, bool) {
	v, ok := r[strings.ToLower(column)]
	if !ok {
		return "", false
	}
	return v.Text()
}

// Has reports whether r carries a non-empty value for name: a non-blank scalar, a
// non-empty sequence, or a nested record.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	if !ok {
		return false
	}
	switch v.Kind {
	case KindScalar:
		return !v.IsBlank()
	case KindSequence:
		return len(v.Items) > 0
	case KindNested:
		return v.Record != nil
	}
	return false
}

// Clone returns a shallow copy of r; values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r)+4)
	for k, v := range r {
		out[k] = v
	}
	return out
}
