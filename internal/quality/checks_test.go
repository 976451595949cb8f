package quality

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoziy/workforce/warehouse/internal/dataset"
)

type tsRow struct {
	EmployeeID *string
	WorkDate   *time.Time
	Hours      float64
}

func strp(s string) *string { return &s }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func timesheets(rows ...tsRow) *dataset.Frame {
	return dataset.FromRows("stg_timesheet", rows,
		dataset.NullableString("employee_id", func(r tsRow) *string { return r.EmployeeID }),
		dataset.NullableTime("work_date", func(r tsRow) *time.Time { return r.WorkDate }),
		dataset.Float("hours_worked", func(r tsRow) float64 { return r.Hours }),
	)
}

func employees(ids ...string) *dataset.Frame {
	return dataset.FromRows("stg_employee", ids,
		dataset.String("employee_id", func(s string) string { return s }),
	)
}

func TestRowCount(t *testing.T) {
	assert.False(t, RowCount(timesheets(), "stg_timesheet", 1).Passed)

	res := RowCount(timesheets(tsRow{Hours: 1}), "stg_timesheet", 1)
	assert.True(t, res.Passed)
	assert.Equal(t, 1, res.Details["row_count"])
}

func TestNulls(t *testing.T) {
	f := timesheets(
		tsRow{EmployeeID: strp("E1"), WorkDate: day(2024, 1, 1)},
		tsRow{WorkDate: day(2024, 1, 2)},
		tsRow{EmployeeID: strp("E2")},
	)

	res := Nulls(f, "stg_timesheet", "employee_id", "work_date", "not_a_column")
	assert.False(t, res.Passed)
	assert.Equal(t, 2, res.Details["null_total"])
	assert.Equal(t, map[string]int{"employee_id": 1, "work_date": 1}, res.Details["null_counts"])
}

func TestDuplicates(t *testing.T) {
	f := timesheets(
		tsRow{EmployeeID: strp("E1"), WorkDate: day(2024, 1, 1)},
		tsRow{EmployeeID: strp("E1"), WorkDate: day(2024, 1, 1)},
		tsRow{EmployeeID: strp("E1"), WorkDate: day(2024, 1, 2)},
	)

	res := Duplicates(f, "stg_timesheet", "employee_id", "work_date")
	assert.False(t, res.Passed)
	assert.Equal(t, 2, res.Details["duplicate_count"])

	res = Duplicates(f, "stg_timesheet", "nope")
	assert.True(t, res.Passed)
}

func TestNumericRange(t *testing.T) {
	tests := []struct {
		name   string
		hours  []float64
		passed bool
		issues int
	}{
		{"within bounds", []float64{0, 8, 24}, true, 0},
		{"above max", []float64{8, 25}, false, 1},
		{"below min", []float64{-1, 8}, false, 1},
		{"both", []float64{-1, 25}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]tsRow, len(tt.hours))
			for i, h := range tt.hours {
				rows[i] = tsRow{Hours: h}
			}
			res := NumericRange(timesheets(rows...), "stg_timesheet", "hours_worked", 0, 24)
			assert.Equal(t, tt.passed, res.Passed, res.Message)
			assert.Equal(t, tt.issues, res.Details["issue_count"])
		})
	}
}

func TestNumericRangeOpenBounds(t *testing.T) {
	res := NumericRange(timesheets(tsRow{Hours: 1e6}), "stg_timesheet", "hours_worked", 0, math.Inf(1))
	assert.True(t, res.Passed)

	res = NumericRange(timesheets(), "stg_timesheet", "missing", 0, 1)
	assert.True(t, res.Passed)
	assert.Contains(t, res.Message, "not found")
}

func TestDateRange(t *testing.T) {
	f := timesheets(
		tsRow{WorkDate: day(1999, 12, 31)},
		tsRow{WorkDate: day(2024, 6, 1)},
		tsRow{},
	)
	min := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	res := DateRange(f, "stg_timesheet", "work_date", min, time.Time{})
	assert.False(t, res.Passed)
	assert.Equal(t, 1, res.Details["before_min"])
	assert.Equal(t, "1999-12-31", res.Details["min_date"])

	res = DateRange(f, "stg_timesheet", "work_date", time.Time{}, time.Time{})
	assert.True(t, res.Passed)
}

func TestReferentialIntegrity(t *testing.T) {
	child := timesheets(
		tsRow{EmployeeID: strp("E1")},
		tsRow{EmployeeID: strp("E2")},
		tsRow{EmployeeID: strp("E2")},
		tsRow{},
	)

	res := ReferentialIntegrity(child, employees("E1"), "stg_timesheet", "stg_employee", "employee_id", "employee_id")
	assert.False(t, res.Passed)
	assert.Equal(t, 1, res.Details["orphan_count"])
	assert.Equal(t, 2, res.Details["orphan_rows"])
	assert.Equal(t, []string{"E2"}, res.Details["sample_orphans"])

	res = ReferentialIntegrity(child, employees("E1", "E2"), "stg_timesheet", "stg_employee", "employee_id", "employee_id")
	assert.True(t, res.Passed)
}

func TestReferentialIntegritySampleCapped(t *testing.T) {
	rows := make([]tsRow, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, tsRow{EmployeeID: strp(string(rune('A' + i)))})
	}

	res := ReferentialIntegrity(timesheets(rows...), employees(), "stg_timesheet", "stg_employee", "employee_id", "employee_id")
	require.False(t, res.Passed)
	assert.Equal(t, 25, res.Details["orphan_count"])
	assert.Len(t, res.Details["sample_orphans"], orphanSampleSize)
}
