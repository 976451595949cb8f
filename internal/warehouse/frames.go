package warehouse

import (
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/dataset"
	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
)

// Frames exposes a built model to the warehouse quality suite.
func (m *Model) Frames() quality.Frames {
	return quality.Frames{
		models.TableDimDepartment: DepartmentFrame(m.Departments),
		models.TableDimEmployee:   EmployeeFrame(m.Employees),
		models.TableDimDate:       DateFrame(m.Dates),
		models.TableFactTimesheet: FactFrame(m.Facts),
	}
}

func DepartmentFrame(rows []*models.DimDepartment) *dataset.Frame {
	type row = *models.DimDepartment
	return dataset.FromRows(models.TableDimDepartment, rows,
		dataset.Int("department_key", func(r row) int64 { return r.DepartmentKey }),
		dataset.NullableString("department_id", func(r row) *string { return r.DepartmentID }),
		dataset.String("department_name", func(r row) string { return r.DepartmentName }),
		dataset.Time("start_date", func(r row) time.Time { return r.StartDate }),
		dataset.Time("end_date", func(r row) time.Time { return r.EndDate }),
	)
}

func EmployeeFrame(rows []*models.DimEmployee) *dataset.Frame {
	type row = *models.DimEmployee
	return dataset.FromRows(models.TableDimEmployee, rows,
		dataset.Int("employee_key", func(r row) int64 { return r.EmployeeKey }),
		dataset.String("employee_id", func(r row) string { return r.EmployeeID }),
		dataset.NullableInt("department_key", func(r row) *int64 { return r.DepartmentKey }),
		dataset.NullableTime("hire_date", func(r row) *time.Time { return r.HireDate }),
		dataset.Time("termination_date", func(r row) time.Time { return r.TerminationDate }),
		dataset.Int("is_active", func(r row) int64 { return int64(r.IsActive) }),
	)
}

func DateFrame(rows []*models.DimDate) *dataset.Frame {
	type row = *models.DimDate
	return dataset.FromRows(models.TableDimDate, rows,
		dataset.Time("work_date", func(r row) time.Time { return r.WorkDate }),
		dataset.Int("year", func(r row) int64 { return int64(r.Year) }),
		dataset.Int("quarter", func(r row) int64 { return int64(r.Quarter) }),
	)
}

func FactFrame(rows []*models.FactTimesheet) *dataset.Frame {
	type row = *models.FactTimesheet
	return dataset.FromRows(models.TableFactTimesheet, rows,
		dataset.Int("id", func(r row) int64 { return r.ID }),
		dataset.Int("employee_key", func(r row) int64 { return r.EmployeeKey }),
		dataset.NullableInt("department_key", func(r row) *int64 { return r.DepartmentKey }),
		dataset.NullableTime("work_date", func(r row) *time.Time { return r.WorkDate }),
		dataset.Float("hours_worked", func(r row) float64 { return r.HoursWorked }),
		dataset.String("pay_code", func(r row) string { return r.PayCode }),
	)
}
