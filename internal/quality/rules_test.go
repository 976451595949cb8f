package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteRun(t *testing.T) {
	suite := DefaultSuites()[SuiteStaging]

	frames := Frames{
		"stg_employee": employees("E1"),
		"stg_timesheet": timesheets(
			tsRow{EmployeeID: strp("E1"), WorkDate: day(2024, 1, 1), Hours: 8},
		),
	}

	r := suite.Run(frames, nil)
	assert.Equal(t, len(suite.Rules), len(r.Results))
	assert.True(t, r.Passed(), r.Summary())
}

func TestSuiteRunMissingTable(t *testing.T) {
	suite := Suite{Name: "x", Rules: []Rule{{Check: CheckRowCount, Table: "nope"}}}

	r := suite.Run(Frames{}, nil)
	require.Len(t, r.Results, 1)
	assert.False(t, r.Results[0].Passed)
	assert.True(t, r.Blocking())
}

func TestRuleSeverity(t *testing.T) {
	rule := Rule{Check: CheckNumericRange, Table: "stg_timesheet", Column: "hours_worked", Min: floatPtr(0), Max: floatPtr(24), Severity: SeverityWarning}

	res := rule.Evaluate(Frames{"stg_timesheet": timesheets(tsRow{Hours: 25})})
	assert.False(t, res.Passed)
	assert.Equal(t, SeverityWarning, res.Severity)
}

func TestLoadSuites(t *testing.T) {
	data := []byte(`
suites:
  staging:
    rules:
      - check: numeric_range
        table: stg_timesheet
        column: hours_worked
        min: 0
        max: 12
      - check: date_range
        table: stg_timesheet
        column: work_date
        min_date: "2020-01-01"
        severity: warning
`)
	suites, err := LoadSuites(data)
	require.NoError(t, err)

	staging := suites[SuiteStaging]
	assert.Equal(t, SuiteStaging, staging.Name)
	require.Len(t, staging.Rules, 2)
	require.NotNil(t, staging.Rules[0].Max)
	assert.Equal(t, 12.0, *staging.Rules[0].Max)

	// untouched suites keep their defaults
	assert.Equal(t, DefaultSuites()[SuiteWarehouse].Rules, suites[SuiteWarehouse].Rules)

	res := staging.Rules[1].Evaluate(Frames{"stg_timesheet": timesheets(tsRow{WorkDate: day(2019, 5, 5)})})
	assert.False(t, res.Passed)
}

func TestLoadSuitesRejectsBadRules(t *testing.T) {
	tests := map[string]string{
		"unknown check": "suites:\n  s:\n    rules:\n      - check: vibes\n        table: t\n",
		"missing table": "suites:\n  s:\n    rules:\n      - check: row_count\n",
		"bad date":      "suites:\n  s:\n    rules:\n      - check: date_range\n        table: t\n        column: d\n        min_date: yesterday\n",
		"inverted":      "suites:\n  s:\n    rules:\n      - check: numeric_range\n        table: t\n        column: c\n        min: 5\n        max: 1\n",
		"bad yaml":      "suites: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSuites([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSuitesFileDefaults(t *testing.T) {
	suites, err := LoadSuitesFile("")
	require.NoError(t, err)
	assert.Contains(t, suites, SuiteStaging)
	assert.Contains(t, suites, SuiteWarehouse)

	_, err = parseBound("2000-01-01")
	require.NoError(t, err)
	b, _ := parseBound("")
	assert.True(t, b.Equal(time.Time{}))
}
