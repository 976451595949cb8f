package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// ListStagingEmployees scans the full employee staging table in insert order.
func ListStagingEmployees(ctx context.Context, db bun.IDB) ([]*models.StagingEmployee, error) {
	var rows []*models.StagingEmployee
	err := db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	return rows, err
}

// ListStagingTimesheets scans the full timesheet staging table in insert order.
func ListStagingTimesheets(ctx context.Context, db bun.IDB) ([]*models.StagingTimesheet, error) {
	var rows []*models.StagingTimesheet
	err := db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	return rows, err
}

// StagedEmployeeIDs returns every employee id present in staging.
func StagedEmployeeIDs(ctx context.Context, db bun.IDB) (map[string]struct{}, error) {
	var ids []string
	err := db.NewSelect().
		Model((*models.StagingEmployee)(nil)).
		ColumnExpr("DISTINCT employee_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
