package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_raw_employee_loaded_at ON raw_employee(loaded_at)",
			"CREATE INDEX IF NOT EXISTS idx_raw_employee_source_file ON raw_employee(source_file)",
			"CREATE INDEX IF NOT EXISTS idx_raw_timesheet_loaded_at ON raw_timesheet(loaded_at)",
			"CREATE INDEX IF NOT EXISTS idx_raw_timesheet_source_file ON raw_timesheet(source_file)",
			"CREATE INDEX IF NOT EXISTS idx_stg_employee_employee_id ON stg_employee(employee_id)",
			"CREATE INDEX IF NOT EXISTS idx_stg_employee_batch ON stg_employee(etl_batch_id)",
			"CREATE INDEX IF NOT EXISTS idx_stg_timesheet_employee_id ON stg_timesheet(employee_id)",
			"CREATE INDEX IF NOT EXISTS idx_stg_timesheet_batch ON stg_timesheet(etl_batch_id)",
			"CREATE INDEX IF NOT EXISTS idx_dim_employee_employee_id ON dim_employee(employee_id)",
			"CREATE INDEX IF NOT EXISTS idx_fact_timesheet_employee_key ON fact_timesheet(employee_key)",
			"CREATE INDEX IF NOT EXISTS idx_fact_timesheet_work_date ON fact_timesheet(work_date)",
			"CREATE INDEX IF NOT EXISTS idx_etl_run_stage ON etl_run(stage, start_time DESC)",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"DROP INDEX IF EXISTS idx_raw_employee_loaded_at",
			"DROP INDEX IF EXISTS idx_raw_employee_source_file",
			"DROP INDEX IF EXISTS idx_raw_timesheet_loaded_at",
			"DROP INDEX IF EXISTS idx_raw_timesheet_source_file",
			"DROP INDEX IF EXISTS idx_stg_employee_employee_id",
			"DROP INDEX IF EXISTS idx_stg_employee_batch",
			"DROP INDEX IF EXISTS idx_stg_timesheet_employee_id",
			"DROP INDEX IF EXISTS idx_stg_timesheet_batch",
			"DROP INDEX IF EXISTS idx_dim_employee_employee_id",
			"DROP INDEX IF EXISTS idx_fact_timesheet_employee_key",
			"DROP INDEX IF EXISTS idx_fact_timesheet_work_date",
			"DROP INDEX IF EXISTS idx_etl_run_stage",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	})
}
