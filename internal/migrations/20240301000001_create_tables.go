package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		modelsList := []interface{}{
			(*models.RawEmployee)(nil),
			(*models.RawTimesheet)(nil),
			(*models.StagingEmployee)(nil),
			(*models.StagingTimesheet)(nil),
			(*models.ETLWatermark)(nil),
			(*models.ETLLock)(nil),
			(*models.ETLRun)(nil),
			(*models.DimDepartment)(nil),
			(*models.DimEmployee)(nil),
			(*models.DimDate)(nil),
			(*models.FactTimesheet)(nil),
		}

		for _, model := range modelsList {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		modelsList := []interface{}{
			(*models.FactTimesheet)(nil),
			(*models.DimDate)(nil),
			(*models.DimEmployee)(nil),
			(*models.DimDepartment)(nil),
			(*models.ETLRun)(nil),
			(*models.ETLLock)(nil),
			(*models.ETLWatermark)(nil),
			(*models.StagingTimesheet)(nil),
			(*models.StagingEmployee)(nil),
			(*models.RawTimesheet)(nil),
			(*models.RawEmployee)(nil),
		}

		for _, model := range modelsList {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
