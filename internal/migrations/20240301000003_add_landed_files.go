package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*models.LandedFile)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// Files landed before markers existed are taken as complete.
		for _, table := range []string{models.TableRawEmployee, models.TableRawTimesheet} {
			_, err := db.ExecContext(ctx, `INSERT INTO etl_landed_file (table_name, source_file, row_count, loaded_at, landed_at)
				SELECT ?, source_file, COUNT(*), MAX(loaded_at), MAX(loaded_at) FROM ? GROUP BY source_file`,
				table, bun.Ident(table))
			if err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*models.LandedFile)(nil)).IfExists().Exec(ctx)
		return err
	})
}
