package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// ListRawEmployeesSince returns raw employee rows loaded strictly after
// since, oldest first.
func ListRawEmployeesSince(ctx context.Context, db bun.IDB, since time.Time) ([]*models.RawEmployee, error) {
	var rows []*models.RawEmployee
	err := db.NewSelect().
		Model(&rows).
		Where("loaded_at > ?", since).
		OrderExpr("loaded_at ASC, id ASC").
		Scan(ctx)

	return rows, err
}

// ListRawTimesheetsSince returns raw timesheet rows loaded strictly after
// since, oldest first.
func ListRawTimesheetsSince(ctx context.Context, db bun.IDB, since time.Time) ([]*models.RawTimesheet, error) {
	var rows []*models.RawTimesheet
	err := db.NewSelect().
		Model(&rows).
		Where("loaded_at > ?", since).
		OrderExpr("loaded_at ASC, id ASC").
		Scan(ctx)

	return rows, err
}

// LoadedSourceFiles returns the distinct source files already landed in a
// raw table.
func LoadedSourceFiles(ctx context.Context, db bun.IDB, table string) (map[string]struct{}, error) {
	var files []string
	err := db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		ColumnExpr("DISTINCT source_file").
		Scan(ctx, &files)
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(files))
	for _, f := range files {
		out[f] = struct{}{}
	}
	return out, nil
}
