package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// LandedFiles returns the source files with a completion marker for a raw
// table.
func LandedFiles(ctx context.Context, db bun.IDB, table string) (map[string]struct{}, error) {
	var files []string
	err := db.NewSelect().
		Model((*models.LandedFile)(nil)).
		Column("source_file").
		Where("table_name = ?", table).
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

// MarkLanded records that every row of a source file is in its raw table.
func MarkLanded(ctx context.Context, db bun.IDB, f *models.LandedFile) error {
	_, err := db.NewInsert().
		Model(f).
		On("CONFLICT (table_name, source_file) DO UPDATE").
		Set("row_count = EXCLUDED.row_count").
		Set("loaded_at = EXCLUDED.loaded_at").
		Set("landed_at = EXCLUDED.landed_at").
		Exec(ctx)
	return err
}

// DeleteSourceFileRows removes every raw row landed from one source file.
func DeleteSourceFileRows(ctx context.Context, db bun.IDB, table, file string) (int64, error) {
	res, err := db.NewDelete().
		TableExpr("?", bun.Ident(table)).
		Where("source_file = ?", file).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
