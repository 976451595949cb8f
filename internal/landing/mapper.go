package landing

import (
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// mapEmployees converts parsed rows to raw employee models.
func mapEmployees(t *table, file string, loadedAt time.Time) []*models.RawEmployee {
	out := make([]*models.RawEmployee, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, &models.RawEmployee{
			ClientEmployeeID: t.get(row, "client_employee_id"),
			FirstName:        t.get(row, "first_name"),
			LastName:         t.get(row, "last_name"),
			JobTitle:         t.get(row, "job_title"),
			DepartmentID:     t.get(row, "department_id"),
			DepartmentName:   t.get(row, "department_name"),
			HireDate:         t.get(row, "hire_date"),
			TermDate:         t.get(row, "term_date"),
			SourceFile:       file,
			LoadedAt:         loadedAt,
		})
	}
	return out
}

// mapTimesheets converts parsed rows to raw timesheet models.
func mapTimesheets(t *table, file string, loadedAt time.Time) []*models.RawTimesheet {
	out := make([]*models.RawTimesheet, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, &models.RawTimesheet{
			ClientEmployeeID: t.get(row, "client_employee_id"),
			PunchApplyDate:   t.get(row, "punch_apply_date"),
			PunchInDatetime:  t.get(row, "punch_in_datetime"),
			PunchOutDatetime: t.get(row, "punch_out_datetime"),
			HoursWorked:      t.get(row, "hours_worked"),
			PayCode:          t.get(row, "pay_code"),
			PunchInComment:   t.get(row, "punch_in_comment"),
			PunchOutComment:  t.get(row, "punch_out_comment"),
			SourceFile:       file,
			LoadedAt:         loadedAt,
		})
	}
	return out
}
