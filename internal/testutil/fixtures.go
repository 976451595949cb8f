package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// Str returns a pointer to s, or nil for the empty string.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Insert writes rows in one statement.
func Insert[T any](t testing.TB, db bun.IDB, rows []T) {
	t.Helper()
	if len(rows) == 0 {
		return
	}
	_, err := db.NewInsert().Model(&rows).Exec(context.Background())
	require.NoError(t, err)
}

// Employee describes a raw employee row by its source columns.
type Employee struct {
	ID, First, Last, Title, DeptID, DeptName, Hire, Term string
}

// RawEmployees builds landed employee rows sharing file and loadedAt.
func RawEmployees(file string, loadedAt time.Time, emps ...Employee) []*models.RawEmployee {
	out := make([]*models.RawEmployee, 0, len(emps))
	for _, e := range emps {
		out = append(out, &models.RawEmployee{
			ClientEmployeeID: Str(e.ID),
			FirstName:        Str(e.First),
			LastName:         Str(e.Last),
			JobTitle:         Str(e.Title),
			DepartmentID:     Str(e.DeptID),
			DepartmentName:   Str(e.DeptName),
			HireDate:         Str(e.Hire),
			TermDate:         Str(e.Term),
			SourceFile:       file,
			LoadedAt:         loadedAt,
		})
	}
	return out
}

// Punch describes a raw timesheet row by its source columns.
type Punch struct {
	EmployeeID, Date, In, Out, Hours, PayCode, InComment, OutComment string
}

// RawTimesheets builds landed punch rows sharing file and loadedAt.
func RawTimesheets(file string, loadedAt time.Time, punches ...Punch) []*models.RawTimesheet {
	out := make([]*models.RawTimesheet, 0, len(punches))
	for _, p := range punches {
		out = append(out, &models.RawTimesheet{
			ClientEmployeeID: Str(p.EmployeeID),
			PunchApplyDate:   Str(p.Date),
			PunchInDatetime:  Str(p.In),
			PunchOutDatetime: Str(p.Out),
			HoursWorked:      Str(p.Hours),
			PayCode:          Str(p.PayCode),
			PunchInComment:   Str(p.InComment),
			PunchOutComment:  Str(p.OutComment),
			SourceFile:       file,
			LoadedAt:         loadedAt,
		})
	}
	return out
}
