package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// Column sets replaced on conflict by the warehouse upserts.
var (
	DepartmentUpdateColumns = []string{"department_id", "department_name", "is_active", "start_date", "end_date"}
	EmployeeUpdateColumns   = []string{
		"employee_id", "first_name", "last_name", "job_title", "department_key",
		"hire_date", "termination_date", "is_active", "start_date", "end_date",
	}
	FactUpdateColumns = []string{
		"employee_key", "department_key", "work_date", "punch_in", "punch_out",
		"scheduled_start", "scheduled_end", "hours_worked", "pay_code",
		"punch_in_comment", "punch_out_comment",
	}
)

// DeleteKeysAbove removes rows whose integer key exceeds max.
func DeleteKeysAbove(ctx context.Context, db bun.IDB, table, keyColumn string, max int64) (int64, error) {
	res, err := db.NewDelete().
		TableExpr("?", bun.Ident(table)).
		Where("? > ?", bun.Ident(keyColumn), max).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TruncateFacts empties the fact table.
func TruncateFacts(ctx context.Context, db bun.IDB) error {
	_, err := db.NewTruncateTable().Model((*models.FactTimesheet)(nil)).Exec(ctx)
	return err
}

// ListDepartments returns the department dimension by key.
func ListDepartments(ctx context.Context, db bun.IDB) ([]*models.DimDepartment, error) {
	var rows []*models.DimDepartment
	err := db.NewSelect().Model(&rows).OrderExpr("department_key ASC").Scan(ctx)
	return rows, err
}

// ListEmployees returns the employee dimension by key.
func ListEmployees(ctx context.Context, db bun.IDB) ([]*models.DimEmployee, error) {
	var rows []*models.DimEmployee
	err := db.NewSelect().Model(&rows).OrderExpr("employee_key ASC").Scan(ctx)
	return rows, err
}

// ListDates returns the date dimension in calendar order.
func ListDates(ctx context.Context, db bun.IDB) ([]*models.DimDate, error) {
	var rows []*models.DimDate
	err := db.NewSelect().Model(&rows).OrderExpr("work_date ASC").Scan(ctx)
	return rows, err
}

// ListFacts returns the fact table by id.
func ListFacts(ctx context.Context, db bun.IDB) ([]*models.FactTimesheet, error) {
	var rows []*models.FactTimesheet
	err := db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	return rows, err
}
