package quality

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/dataset"
)

// Check names accepted in Rule.Check.
const (
	CheckRowCount             = "row_count"
	CheckNulls                = "nulls"
	CheckDuplicates           = "duplicates"
	CheckNumericRange         = "numeric_range"
	CheckDateRange            = "date_range"
	CheckReferentialIntegrity = "referential_integrity"
)

// Suite names used by the pipeline.
const (
	SuiteStaging   = "staging"
	SuiteWarehouse = "warehouse"
)

// Rule declares one check. Only the fields relevant to Check are read.
type Rule struct {
	Check        string   `yaml:"check"`
	Table        string   `yaml:"table"`
	Columns      []string `yaml:"columns,omitempty"`
	Column       string   `yaml:"column,omitempty"`
	MinRows      int      `yaml:"min_rows,omitempty"`
	Min          *float64 `yaml:"min,omitempty"`
	Max          *float64 `yaml:"max,omitempty"`
	MinDate      string   `yaml:"min_date,omitempty"`
	MaxDate      string   `yaml:"max_date,omitempty"`
	Parent       string   `yaml:"parent,omitempty"`
	ParentColumn string   `yaml:"parent_column,omitempty"`
	Severity     Severity `yaml:"severity,omitempty"`
}

// Suite is a named, ordered rule list.
type Suite struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Frames maps table names to the data a suite is evaluated against.
type Frames map[string]*dataset.Frame

// Run evaluates every rule in order. A rule naming a table absent from
// frames records a failed result.
func (s Suite) Run(frames Frames, logger *slog.Logger) *Report {
	report := NewReport(s.Name, logger)
	for _, rule := range s.Rules {
		report.Add(rule.Evaluate(frames))
	}
	report.Log()
	return report
}

// Evaluate runs a single rule.
func (r Rule) Evaluate(frames Frames) Result {
	res := r.evaluate(frames)
	res.Severity = r.Severity
	if res.Severity == "" {
		res.Severity = SeverityError
	}
	return res
}

func (r Rule) evaluate(frames Frames) Result {
	f, ok := frames[r.Table]
	if !ok {
		return Result{
			Name:    r.Check,
			Table:   r.Table,
			Message: fmt.Sprintf("table %q not provided", r.Table),
		}
	}

	switch r.Check {
	case CheckRowCount:
		min := r.MinRows
		if min <= 0 {
			min = 1
		}
		return RowCount(f, r.Table, min)
	case CheckNulls:
		return Nulls(f, r.Table, r.Columns...)
	case CheckDuplicates:
		return Duplicates(f, r.Table, r.Columns...)
	case CheckNumericRange:
		min, max := math.Inf(-1), math.Inf(1)
		if r.Min != nil {
			min = *r.Min
		}
		if r.Max != nil {
			max = *r.Max
		}
		return NumericRange(f, r.Table, r.Column, min, max)
	case CheckDateRange:
		min, _ := parseBound(r.MinDate)
		max, _ := parseBound(r.MaxDate)
		return DateRange(f, r.Table, r.Column, min, max)
	case CheckReferentialIntegrity:
		parent, ok := frames[r.Parent]
		if !ok {
			return Result{
				Name:    "ref_integrity_" + r.Column,
				Table:   r.Table,
				Message: fmt.Sprintf("parent table %q not provided", r.Parent),
			}
		}
		parentCol := r.ParentColumn
		if parentCol == "" {
			parentCol = r.Column
		}
		return ReferentialIntegrity(f, parent, r.Table, r.Parent, r.Column, parentCol)
	default:
		return Result{Name: r.Check, Table: r.Table, Message: fmt.Sprintf("unknown check %q", r.Check)}
	}
}

// Validate reports configuration mistakes before a suite runs.
func (r Rule) Validate() error {
	if r.Table == "" {
		return fmt.Errorf("rule %q: table is required", r.Check)
	}
	switch r.Check {
	case CheckRowCount:
	case CheckNulls, CheckDuplicates:
		if len(r.Columns) == 0 {
			return fmt.Errorf("rule %s on %s: columns are required", r.Check, r.Table)
		}
	case CheckNumericRange:
		if r.Column == "" {
			return fmt.Errorf("rule %s on %s: column is required", r.Check, r.Table)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("rule %s on %s: min %g exceeds max %g", r.Check, r.Table, *r.Min, *r.Max)
		}
	case CheckDateRange:
		if r.Column == "" {
			return fmt.Errorf("rule %s on %s: column is required", r.Check, r.Table)
		}
		if _, err := parseBound(r.MinDate); err != nil {
			return fmt.Errorf("rule %s on %s: min_date: %w", r.Check, r.Table, err)
		}
		if _, err := parseBound(r.MaxDate); err != nil {
			return fmt.Errorf("rule %s on %s: max_date: %w", r.Check, r.Table, err)
		}
	case CheckReferentialIntegrity:
		if r.Column == "" || r.Parent == "" {
			return fmt.Errorf("rule %s on %s: column and parent are required", r.Check, r.Table)
		}
	default:
		return fmt.Errorf("unknown check %q", r.Check)
	}
	switch r.Severity {
	case "", SeverityError, SeverityWarning, SeverityInfo:
	default:
		return fmt.Errorf("rule %s on %s: unknown severity %q", r.Check, r.Table, r.Severity)
	}
	return nil
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func floatPtr(v float64) *float64 { return &v }

// DefaultSuites returns the built-in staging and warehouse suites.
func DefaultSuites() map[string]Suite {
	return map[string]Suite{
		SuiteStaging: {
			Name: SuiteStaging,
			Rules: []Rule{
				{Check: CheckRowCount, Table: "stg_employee", MinRows: 1},
				{Check: CheckNulls, Table: "stg_employee", Columns: []string{"employee_id"}},
				{Check: CheckDuplicates, Table: "stg_employee", Columns: []string{"employee_id", "etl_batch_id"}, Severity: SeverityWarning},
				{Check: CheckRowCount, Table: "stg_timesheet", MinRows: 1},
				{Check: CheckNulls, Table: "stg_timesheet", Columns: []string{"employee_id", "work_date"}},
				{Check: CheckNumericRange, Table: "stg_timesheet", Column: "hours_worked", Min: floatPtr(0), Max: floatPtr(24), Severity: SeverityWarning},
				{Check: CheckDateRange, Table: "stg_timesheet", Column: "work_date", MinDate: "2000-01-01", Severity: SeverityWarning},
				{Check: CheckReferentialIntegrity, Table: "stg_timesheet", Column: "employee_id", Parent: "stg_employee", Severity: SeverityWarning},
			},
		},
		SuiteWarehouse: {
			Name: SuiteWarehouse,
			Rules: []Rule{
				{Check: CheckRowCount, Table: "dim_department", MinRows: 1},
				{Check: CheckNulls, Table: "dim_department", Columns: []string{"department_key", "department_name"}},
				{Check: CheckDuplicates, Table: "dim_department", Columns: []string{"department_key"}},
				{Check: CheckRowCount, Table: "dim_employee", MinRows: 1},
				{Check: CheckNulls, Table: "dim_employee", Columns: []string{"employee_id", "employee_key"}},
				{Check: CheckDuplicates, Table: "dim_employee", Columns: []string{"employee_key"}},
				{Check: CheckReferentialIntegrity, Table: "dim_employee", Column: "department_key", Parent: "dim_department"},
				{Check: CheckRowCount, Table: "dim_date", MinRows: 1},
				{Check: CheckNulls, Table: "dim_date", Columns: []string{"work_date"}},
				{Check: CheckDuplicates, Table: "dim_date", Columns: []string{"work_date"}},
				{Check: CheckRowCount, Table: "fact_timesheet", MinRows: 1},
				{Check: CheckNulls, Table: "fact_timesheet", Columns: []string{"employee_key", "work_date"}},
				{Check: CheckNumericRange, Table: "fact_timesheet", Column: "hours_worked", Min: floatPtr(0), Max: floatPtr(24), Severity: SeverityWarning},
				{Check: CheckReferentialIntegrity, Table: "fact_timesheet", Column: "employee_key", Parent: "dim_employee"},
				{Check: CheckReferentialIntegrity, Table: "fact_timesheet", Column: "department_key", Parent: "dim_department"},
				{Check: CheckDateRange, Table: "fact_timesheet", Column: "work_date", MinDate: "2000-01-01", Severity: SeverityWarning},
			},
		},
	}
}
