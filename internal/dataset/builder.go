package dataset

import "time"

// Field extracts one column from rows of type R.
type Field[R any] struct {
	name  string
	build func(rows []R) Column
}

func field[R any, T value](name string, kind Kind, get func(R) (T, bool)) Field[R] {
	return Field[R]{
		name: name,
		build: func(rows []R) Column {
			s := &series[T]{
				name:  name,
				kind:  kind,
				vals:  make([]T, len(rows)),
				valid: make([]bool, len(rows)),
			}
			for i, r := range rows {
				s.vals[i], s.valid[i] = get(r)
			}
			return s
		},
	}
}

func always[R any, T value](get func(R) T) func(R) (T, bool) {
	return func(r R) (T, bool) { return get(r), true }
}

func deref[R any, T value](get func(R) *T) func(R) (T, bool) {
	return func(r R) (T, bool) {
		p := get(r)
		if p == nil {
			var zero T
			return zero, false
		}
		return *p, true
	}
}

// String declares a non-null text column.
func String[R any](name string, get func(R) string) Field[R] {
	return field(name, KindString, always(get))
}

// NullableString declares a text column where nil is null.
func NullableString[R any](name string, get func(R) *string) Field[R] {
	return field(name, KindString, deref(get))
}

// Int declares a non-null integer column.
func Int[R any](name string, get func(R) int64) Field[R] {
	return field(name, KindInt, always(get))
}

// NullableInt declares an integer column where nil is null.
func NullableInt[R any](name string, get func(R) *int64) Field[R] {
	return field(name, KindInt, deref(get))
}

// Float declares a non-null numeric column.
func Float[R any](name string, get func(R) float64) Field[R] {
	return field(name, KindFloat, always(get))
}

// Time declares a non-null timestamp column.
func Time[R any](name string, get func(R) time.Time) Field[R] {
	return field(name, KindTime, always(get))
}

// NullableTime declares a timestamp column where nil is null.
func NullableTime[R any](name string, get func(R) *time.Time) Field[R] {
	return field(name, KindTime, deref(get))
}

// FromRows builds a frame over rows using the declared fields.
func FromRows[R any](table string, rows []R, fields ...Field[R]) *Frame {
	f := &Frame{
		name:  table,
		rows:  len(rows),
		cols:  make([]Column, 0, len(fields)),
		index: make(map[string]int, len(fields)),
	}
	for _, fd := range fields {
		f.index[fd.name] = len(f.cols)
		f.cols = append(f.cols, fd.build(rows))
	}
	return f
}
