package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Do runs fn until it succeeds, returns a non-transient error, or the retry
// budget is spent. Each attempt must be a self-contained transaction.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	cfg = ApplyDefaults(cfg)

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt >= cfg.MaxRetries {
			return err
		}

		timer := time.NewTimer(CalculateBackoff(attempt+1, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// IsTransient reports whether err is a lock or serialization conflict that
// is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsTransactionRollback(pgErr.Code) ||
			pgErr.Code == pgerrcode.LockNotAvailable
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}
