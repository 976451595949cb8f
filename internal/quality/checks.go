package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/dataset"
)

// orphanSampleSize caps the orphan keys reported by ReferentialIntegrity.
const orphanSampleSize = 10

// RowCount passes when the frame has at least min rows.
func RowCount(f *dataset.Frame, table string, min int) Result {
	n := f.Len()
	return Result{
		Name:    "row_count",
		Table:   table,
		Passed:  n >= min,
		Message: fmt.Sprintf("Row count: %d (min: %d)", n, min),
		Details: map[string]any{"row_count": n, "min_required": min},
	}
}

// Nulls counts null cells across columns. Unknown columns are skipped.
func Nulls(f *dataset.Frame, table string, columns ...string) Result {
	counts := make(map[string]int, len(columns))
	total := 0
	for _, name := range columns {
		col, ok := f.Column(name)
		if !ok {
			continue
		}
		n := 0
		for i := 0; i < col.Len(); i++ {
			if !col.Valid(i) {
				n++
			}
		}
		counts[name] = n
		total += n
	}

	msg := fmt.Sprintf("Nulls in critical columns: %d", total)
	if total > 0 {
		msg += fmt.Sprintf(" (%v)", counts)
	}
	return Result{
		Name:    "null_check",
		Table:   table,
		Passed:  total == 0,
		Message: msg,
		Details: map[string]any{"null_counts": counts, "null_total": total},
	}
}

// Duplicates counts rows whose key tuple occurs more than once. Every row
// of a duplicated group is counted.
func Duplicates(f *dataset.Frame, table string, keys ...string) Result {
	cols := make([]dataset.Column, 0, len(keys))
	present := make([]string, 0, len(keys))
	for _, k := range keys {
		if col, ok := f.Column(k); ok {
			cols = append(cols, col)
			present = append(present, k)
		}
	}
	if len(cols) == 0 {
		return Result{
			Name:    "duplicate_check",
			Table:   table,
			Passed:  true,
			Message: "No key columns found to check",
		}
	}

	groups := make(map[string]int, f.Len())
	for i := 0; i < f.Len(); i++ {
		groups[tupleKey(cols, i)]++
	}
	dups := 0
	for _, n := range groups {
		if n > 1 {
			dups += n
		}
	}

	return Result{
		Name:    "duplicate_check",
		Table:   table,
		Passed:  dups == 0,
		Message: fmt.Sprintf("Duplicates on %v: %d", present, dups),
		Details: map[string]any{"duplicate_count": dups, "key_columns": present},
	}
}

// NumericRange checks column values fall in [min, max]. Use math.Inf for
// an open bound. Nulls and non-numeric cells are ignored.
func NumericRange(f *dataset.Frame, table, column string, min, max float64) Result {
	name := "range_check_" + column
	col, ok := f.Column(column)
	if !ok {
		return Result{Name: name, Table: table, Passed: true, Message: fmt.Sprintf("Column '%s' not found", column)}
	}

	below, above, seen := 0, 0, 0
	actualMin, actualMax := math.Inf(1), math.Inf(-1)
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Float(i)
		if !ok {
			continue
		}
		seen++
		actualMin = math.Min(actualMin, v)
		actualMax = math.Max(actualMax, v)
		if v < min {
			below++
		}
		if v > max {
			above++
		}
	}

	var issues []string
	if below > 0 {
		issues = append(issues, fmt.Sprintf("%d values below %g", below, min))
	}
	if above > 0 {
		issues = append(issues, fmt.Sprintf("%d values above %g", above, max))
	}

	details := map[string]any{
		"below_min":    below,
		"above_max":    above,
		"issue_count":  below + above,
		"expected_min": min,
		"expected_max": max,
	}
	msg := "Range [n/a]"
	if seen > 0 {
		details["min"] = actualMin
		details["max"] = actualMax
		msg = fmt.Sprintf("Range [%g, %g]", actualMin, actualMax)
	}
	if len(issues) > 0 {
		msg += " - Issues: " + strings.Join(issues, ", ")
	} else {
		msg += " OK"
	}

	return Result{Name: name, Table: table, Passed: len(issues) == 0, Message: msg, Details: details}
}

// DateRange checks column values fall in [min, max]. A zero bound is open.
func DateRange(f *dataset.Frame, table, column string, min, max time.Time) Result {
	name := "date_range_" + column
	col, ok := f.Column(column)
	if !ok {
		return Result{Name: name, Table: table, Passed: true, Message: fmt.Sprintf("Column '%s' not found", column)}
	}

	before, after := 0, 0
	var actualMin, actualMax time.Time
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Time(i)
		if !ok {
			continue
		}
		if actualMin.IsZero() || v.Before(actualMin) {
			actualMin = v
		}
		if actualMax.IsZero() || v.After(actualMax) {
			actualMax = v
		}
		if !min.IsZero() && v.Before(min) {
			before++
		}
		if !max.IsZero() && v.After(max) {
			after++
		}
	}

	var issues []string
	if before > 0 {
		issues = append(issues, fmt.Sprintf("%d dates before %s", before, min.Format(time.DateOnly)))
	}
	if after > 0 {
		issues = append(issues, fmt.Sprintf("%d dates after %s", after, max.Format(time.DateOnly)))
	}

	msg := fmt.Sprintf("Date range [%s] to [%s]", formatDate(actualMin), formatDate(actualMax))
	if len(issues) > 0 {
		msg += " - " + strings.Join(issues, ", ")
	} else {
		msg += " OK"
	}

	return Result{
		Name:    name,
		Table:   table,
		Passed:  len(issues) == 0,
		Message: msg,
		Details: map[string]any{
			"min_date":    formatDate(actualMin),
			"max_date":    formatDate(actualMax),
			"before_min":  before,
			"after_max":   after,
			"issue_count": before + after,
		},
	}
}

// ReferentialIntegrity checks every non-null child key exists in the parent.
func ReferentialIntegrity(child, parent *dataset.Frame, childTable, parentTable, childKey, parentKey string) Result {
	name := "ref_integrity_" + childKey
	cc, ok1 := child.Column(childKey)
	pc, ok2 := parent.Column(parentKey)
	if !ok1 || !ok2 {
		return Result{Name: name, Table: childTable, Passed: true, Message: "Key columns not found for check"}
	}

	parents := make(map[string]struct{}, pc.Len())
	for i := 0; i < pc.Len(); i++ {
		if pc.Valid(i) {
			parents[pc.Key(i)] = struct{}{}
		}
	}

	orphanSet := make(map[string]struct{})
	orphanRows := 0
	for i := 0; i < cc.Len(); i++ {
		if !cc.Valid(i) {
			continue
		}
		k := cc.Key(i)
		if _, ok := parents[k]; !ok {
			orphanSet[k] = struct{}{}
			orphanRows++
		}
	}

	orphans := make([]string, 0, len(orphanSet))
	for k := range orphanSet {
		orphans = append(orphans, k)
	}
	sort.Strings(orphans)
	sample := orphans
	if len(sample) > orphanSampleSize {
		sample = sample[:orphanSampleSize]
	}

	msg := fmt.Sprintf("Orphan records: %d", len(orphans))
	if len(orphans) > 0 {
		msg += fmt.Sprintf(" (missing in %s)", parentTable)
	}
	return Result{
		Name:    name,
		Table:   childTable,
		Passed:  len(orphans) == 0,
		Message: msg,
		Details: map[string]any{
			"orphan_count":   len(orphans),
			"orphan_rows":    orphanRows,
			"sample_orphans": sample,
		},
	}
}

func tupleKey(cols []dataset.Column, i int) string {
	parts := make([]string, len(cols))
	for j, c := range cols {
		if c.Valid(i) {
			parts[j] = "v" + c.Key(i)
		} else {
			parts[j] = "n"
		}
	}
	return strings.Join(parts, "\x1f")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(time.DateOnly)
}
