// Package dataset is a small schema'd columnar container for tabular checks.
//
// A Frame is built once from typed rows and is read-only afterwards. Each
// column carries a declared Kind and a validity mask, so null handling is
// explicit and no cell is ever dynamically typed.
package dataset

import (
	"math"
	"strconv"
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/normalize"
)

// Kind is the declared type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Column is a read-only view over one typed column.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	Valid(i int) bool
	// Key renders cell i for equality comparisons. Null cells return "".
	Key(i int) string
	// Float coerces cell i to a number; false for nulls and non-numerics.
	Float(i int) (float64, bool)
	// Time coerces cell i to an instant; false for nulls and non-dates.
	Time(i int) (time.Time, bool)
}

type value interface {
	string | int64 | float64 | time.Time
}

type series[T value] struct {
	name  string
	kind  Kind
	vals  []T
	valid []bool
}

func (s *series[T]) Name() string     { return s.name }
func (s *series[T]) Kind() Kind       { return s.kind }
func (s *series[T]) Len() int         { return len(s.vals) }
func (s *series[T]) Valid(i int) bool { return s.valid[i] }

func (s *series[T]) Key(i int) string {
	if !s.valid[i] {
		return ""
	}
	switch v := any(s.vals[i]).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

func (s *series[T]) Float(i int) (float64, bool) {
	if !s.valid[i] {
		return 0, false
	}
	switch v := any(s.vals[i]).(type) {
	case float64:
		return v, !math.IsNaN(v)
	case int64:
		return float64(v), true
	case string:
		return normalize.ParseNumeric(&v)
	}
	return 0, false
}

func (s *series[T]) Time(i int) (time.Time, bool) {
	if !s.valid[i] {
		return time.Time{}, false
	}
	switch v := any(s.vals[i]).(type) {
	case time.Time:
		return v, true
	case string:
		if t := normalize.Timestamp(&v); t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// Frame is a named, ordered set of equally long columns.
type Frame struct {
	name  string
	rows  int
	cols  []Column
	index map[string]int
}

// Name is the table the frame was built for.
func (f *Frame) Name() string { return f.name }

// Len returns the row count.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return f.rows
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (Column, bool) {
	if f == nil {
		return nil, false
	}
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Columns lists column names in declaration order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}
