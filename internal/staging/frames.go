package staging

import (
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/dataset"
	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// EmployeeFrame exposes staged employees to quality checks.
func EmployeeFrame(rows []*models.StagingEmployee) *dataset.Frame {
	type row = *models.StagingEmployee
	return dataset.FromRows(models.TableStagingEmployee, rows,
		dataset.String("employee_id", func(r row) string { return r.EmployeeID }),
		dataset.String("first_name", func(r row) string { return r.FirstName }),
		dataset.String("last_name", func(r row) string { return r.LastName }),
		dataset.NullableString("department_id", func(r row) *string { return r.DepartmentID }),
		dataset.String("department_name", func(r row) string { return r.DepartmentName }),
		dataset.NullableTime("hire_date", func(r row) *time.Time { return r.HireDate }),
		dataset.Time("termination_date", func(r row) time.Time { return r.TerminationDate }),
		dataset.Int("is_active", func(r row) int64 { return int64(r.IsActive) }),
		dataset.String("etl_batch_id", func(r row) string { return r.ETLBatchID }),
	)
}

// TimesheetFrame exposes staged punches to quality checks.
func TimesheetFrame(rows []*models.StagingTimesheet) *dataset.Frame {
	type row = *models.StagingTimesheet
	return dataset.FromRows(models.TableStagingTimesheet, rows,
		dataset.String("employee_id", func(r row) string { return r.EmployeeID }),
		dataset.NullableTime("work_date", func(r row) *time.Time { return r.WorkDate }),
		dataset.NullableTime("punch_in", func(r row) *time.Time { return r.PunchIn }),
		dataset.NullableTime("punch_out", func(r row) *time.Time { return r.PunchOut }),
		dataset.Float("hours_worked", func(r row) float64 { return r.HoursWorked }),
		dataset.String("pay_code", func(r row) string { return r.PayCode }),
		dataset.String("punch_in_comment", func(r row) string { return r.PunchInComment }),
		dataset.String("punch_out_comment", func(r row) string { return r.PunchOutComment }),
		dataset.String("etl_batch_id", func(r row) string { return r.ETLBatchID }),
	)
}
