package warehouse

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/normalize"
)

// Default scheduled shift attached to every fact row.
const (
	DefaultScheduledStart = "09:00:00"
	DefaultScheduledEnd   = "17:00:00"
)

// Snapshot is the full content of both staging tables in insert order.
type Snapshot struct {
	Employees  []*models.StagingEmployee
	Timesheets []*models.StagingTimesheet
}

// Model is the dimensional rebuild of a snapshot.
type Model struct {
	Departments []*models.DimDepartment
	Employees   []*models.DimEmployee
	Dates       []*models.DimDate
	Facts       []*models.FactTimesheet
	// Orphans counts deduplicated punches with no employee dimension row.
	Orphans int
}

// BuildOptions tunes fact construction.
type BuildOptions struct {
	ScheduledStart string
	ScheduledEnd   string
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.ScheduledStart == "" {
		o.ScheduledStart = DefaultScheduledStart
	}
	if o.ScheduledEnd == "" {
		o.ScheduledEnd = DefaultScheduledEnd
	}
	return o
}

// Build derives every dimension and the fact table from a snapshot. today
// stamps the validity window start of department and employee rows.
func Build(snap Snapshot, today time.Time, opts BuildOptions) *Model {
	opts = opts.withDefaults()
	today = normalize.Day(today)

	employees := DedupeEmployees(snap.Employees)
	timesheets := DedupeTimesheets(snap.Timesheets)

	m := &Model{}
	m.Departments = BuildDepartments(employees, today)
	m.Employees = BuildEmployees(employees, m.Departments, today)
	m.Dates = BuildDates(timesheets)
	m.Facts, m.Orphans = BuildFacts(timesheets, m.Employees, opts)
	return m
}

// dedupe collapses rows sharing a key. Keys keep the order of their first
// appearance; the row kept for each key is its last occurrence.
func dedupe[T any](rows []T, key func(T) string) []T {
	index := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// DedupeEmployees keeps the latest staged row per employee id.
func DedupeEmployees(rows []*models.StagingEmployee) []*models.StagingEmployee {
	return dedupe(rows, func(r *models.StagingEmployee) string { return r.EmployeeID })
}

// DedupeTimesheets keeps the latest staged row per punch, identified by
// employee, work date, punch times and pay code.
func DedupeTimesheets(rows []*models.StagingTimesheet) []*models.StagingTimesheet {
	return dedupe(rows, timesheetKey)
}

func timesheetKey(r *models.StagingTimesheet) string {
	return strings.Join([]string{
		r.EmployeeID,
		timeKey(r.WorkDate),
		timeKey(r.PunchIn),
		timeKey(r.PunchOut),
		r.PayCode,
	}, "\x1f")
}

func timeKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.UnixMicro(), 10)
}

// BuildDepartments assigns dense keys to departments in the order their id
// first appears. Employees without a department id contribute nothing.
func BuildDepartments(employees []*models.StagingEmployee, today time.Time) []*models.DimDepartment {
	withID := make([]*models.StagingEmployee, 0, len(employees))
	for _, e := range employees {
		if e.DepartmentID != nil {
			withID = append(withID, e)
		}
	}
	unique := dedupe(withID, func(e *models.StagingEmployee) string { return *e.DepartmentID })

	out := make([]*models.DimDepartment, 0, len(unique))
	for i, e := range unique {
		id := *e.DepartmentID
		out = append(out, &models.DimDepartment{
			DepartmentKey:  int64(i + 1),
			DepartmentID:   &id,
			DepartmentName: e.DepartmentName,
			IsActive:       1,
			StartDate:      today,
			EndDate:        normalize.Sentinel,
		})
	}
	return out
}

// BuildEmployees assigns dense keys to deduplicated employees and resolves
// their department key.
func BuildEmployees(employees []*models.StagingEmployee, departments []*models.DimDepartment, today time.Time) []*models.DimEmployee {
	deptKeys := make(map[string]int64, len(departments))
	for _, d := range departments {
		if d.DepartmentID != nil {
			deptKeys[*d.DepartmentID] = d.DepartmentKey
		}
	}

	out := make([]*models.DimEmployee, 0, len(employees))
	for i, e := range employees {
		var deptKey *int64
		if e.DepartmentID != nil {
			if k, ok := deptKeys[*e.DepartmentID]; ok {
				deptKey = &k
			}
		}
		out = append(out, &models.DimEmployee{
			EmployeeKey:     int64(i + 1),
			EmployeeID:      e.EmployeeID,
			FirstName:       e.FirstName,
			LastName:        e.LastName,
			JobTitle:        e.JobTitle,
			DepartmentKey:   deptKey,
			HireDate:        e.HireDate,
			TerminationDate: e.TerminationDate,
			IsActive:        e.IsActive,
			StartDate:       today,
			EndDate:         normalize.Sentinel,
		})
	}
	return out
}

// BuildDates returns one calendar row per distinct work date, ascending.
// Date ids are left to the database.
func BuildDates(timesheets []*models.StagingTimesheet) []*models.DimDate {
	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0)
	for _, t := range timesheets {
		if t.WorkDate == nil {
			continue
		}
		d := normalize.Day(*t.WorkDate)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]*models.DimDate, 0, len(days))
	for _, d := range days {
		out = append(out, models.NewDimDate(d))
	}
	return out
}

// BuildFacts joins punches to the employee dimension. Punches without a
// matching employee are dropped and counted. Comments keep their staged
// labels. Fact ids are dense in punch order.
func BuildFacts(timesheets []*models.StagingTimesheet, employees []*models.DimEmployee, opts BuildOptions) ([]*models.FactTimesheet, int) {
	opts = opts.withDefaults()

	byID := make(map[string]*models.DimEmployee, len(employees))
	for _, e := range employees {
		byID[e.EmployeeID] = e
	}

	out := make([]*models.FactTimesheet, 0, len(timesheets))
	orphans := 0
	for _, t := range timesheets {
		emp, ok := byID[t.EmployeeID]
		if !ok {
			orphans++
			continue
		}
		out = append(out, &models.FactTimesheet{
			ID:              int64(len(out) + 1),
			EmployeeKey:     emp.EmployeeKey,
			DepartmentKey:   emp.DepartmentKey,
			WorkDate:        t.WorkDate,
			PunchIn:         t.PunchIn,
			PunchOut:        t.PunchOut,
			ScheduledStart:  opts.ScheduledStart,
			ScheduledEnd:    opts.ScheduledEnd,
			HoursWorked:     t.HoursWorked,
			PayCode:         t.PayCode,
			PunchInComment:  t.PunchInComment,
			PunchOutComment: t.PunchOutComment,
		})
	}
	return out, orphans
}
