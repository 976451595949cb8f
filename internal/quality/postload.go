package quality

import (
	"context"
	"fmt"
	"log/slog"
)

// SuitePostLoad names reports produced by ValidatePostLoad.
const SuitePostLoad = "post_load"

// Counter returns the persisted row count of a table.
type Counter interface {
	Count(ctx context.Context, table string) (int, error)
}

// ValidatePostLoad checks each persisted table has at least one row. Query
// errors are recorded as failed results.
func ValidatePostLoad(ctx context.Context, counter Counter, tables []string, logger *slog.Logger) *Report {
	report := NewReport(SuitePostLoad, logger)
	for _, table := range tables {
		n, err := counter.Count(ctx, table)
		if err != nil {
			report.Add(Result{
				Name:    "post_load_count",
				Table:   table,
				Passed:  false,
				Message: fmt.Sprintf("Error querying table: %v", err),
			})
			continue
		}
		report.Add(Result{
			Name:    "post_load_count",
			Table:   table,
			Passed:  n > 0,
			Message: fmt.Sprintf("Records in database: %d", n),
			Details: map[string]any{"db_row_count": n},
		})
	}
	report.Log()
	return report
}
