package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// CreateRun inserts an audit row and fills its ID.
func CreateRun(ctx context.Context, db bun.IDB, run *models.ETLRun) error {
	_, err := db.NewInsert().Model(run).Exec(ctx)
	return err
}

// UpdateRun persists the outcome columns of an audit row.
func UpdateRun(ctx context.Context, db bun.IDB, run *models.ETLRun) error {
	_, err := db.NewUpdate().
		Model(run).
		Column("end_time", "status", "rows_read", "rows_written", "rows_skipped", "error_log", "watermark").
		WherePK().
		Exec(ctx)
	return err
}

// ListRecentRuns returns the newest audit rows first.
func ListRecentRuns(ctx context.Context, db bun.IDB, limit int) ([]*models.ETLRun, error) {
	var runs []*models.ETLRun
	err := db.NewSelect().
		Model(&runs).
		OrderExpr("start_time DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	return runs, err
}

// ListBatchRuns returns every stage recorded for a batch.
func ListBatchRuns(ctx context.Context, db bun.IDB, batchID string) ([]*models.ETLRun, error) {
	var runs []*models.ETLRun
	err := db.NewSelect().
		Model(&runs).
		Where("batch_id = ?", batchID).
		OrderExpr("id ASC").
		Scan(ctx)
	return runs, err
}
