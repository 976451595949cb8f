// Package normalize turns text-typed source fields into typed values.
//
// Every function here degrades malformed input to null and then to the
// caller's default. Nothing in this package returns an error.
package normalize

import (
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// nullTokens are placeholder spellings treated as a missing value.
// Matching is case-insensitive after Clean's trimming.
var nullTokens = map[string]struct{}{
	"":          {},
	"[NULL]":    {},
	"NULL":      {},
	"NONE":      {},
	"N/A":       {},
	"NA":        {},
	"NAN":       {},
	"-":         {},
	"--":        {},
	".":         {},
	"UNDEFINED": {},
}

// Clean trims surrounding whitespace and wrapping quote characters and
// reports whether a real value remains.
func Clean(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	v = strings.Trim(v, `"`)
	v = strings.Trim(v, "'")
	v = strings.TrimSpace(v)
	if _, ok := nullTokens[strings.ToUpper(v)]; ok {
		return "", false
	}
	return v, true
}

// IsNull reports whether s is missing or a placeholder token.
func IsNull(s *string) bool {
	_, ok := Clean(s)
	return !ok
}

// String returns the cleaned value or def when s is null.
func String(s *string, def string) string {
	if v, ok := Clean(s); ok {
		return v
	}
	return def
}

// NullableString returns the cleaned value, or nil when s is null.
func NullableString(s *string) *string {
	if v, ok := Clean(s); ok {
		return &v
	}
	return nil
}

// ParseNumeric parses s as an exact decimal and converts it to float64.
// Placeholders, malformed numbers and non-finite values yield false.
func ParseNumeric(s *string) (float64, bool) {
	v, ok := Clean(s)
	if !ok {
		return 0, false
	}
	d, _, err := apd.NewFromString(v)
	if err != nil || d.Form != apd.Finite {
		return 0, false
	}
	f, err := d.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Numeric returns the parsed number or def.
func Numeric(s *string, def float64) float64 {
	if f, ok := ParseNumeric(s); ok {
		return f
	}
	return def
}

// Strings normalizes a column of strings with one default.
func Strings(col []*string, def string) []string {
	out := make([]string, len(col))
	for i, s := range col {
		out[i] = String(s, def)
	}
	return out
}

// Numerics normalizes a column of numbers with one default.
func Numerics(col []*string, def float64) []float64 {
	out := make([]float64, len(col))
	for i, s := range col {
		out[i] = Numeric(s, def)
	}
	return out
}
