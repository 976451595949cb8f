package repositories

import (
	"context"

	"github.com/uptrace/bun"
)

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, db bun.IDB, table string) (int, error) {
	return db.NewSelect().TableExpr("?", bun.Ident(table)).Count(ctx)
}

// TableCounter adapts CountRows to the post-load validation interface.
type TableCounter struct {
	DB bun.IDB
}

func (c TableCounter) Count(ctx context.Context, table string) (int, error) {
	return CountRows(ctx, c.DB, table)
}
