package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// acquireLockSQL takes the lease when it is free, expired, or already held
// by the same owner. A held lease leaves the row untouched.
const acquireLockSQL = `
INSERT INTO etl_lock (table_name, owner, acquired_at, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (table_name) DO UPDATE SET
    owner = excluded.owner,
    acquired_at = excluded.acquired_at,
    expires_at = excluded.expires_at
WHERE etl_lock.expires_at <= excluded.acquired_at OR etl_lock.owner = excluded.owner`

// AcquireLock tries to take the lease on table for ttl.
func AcquireLock(ctx context.Context, db bun.IDB, table, owner string, now time.Time, ttl time.Duration) (bool, error) {
	now = now.UTC().Truncate(time.Microsecond)
	res, err := db.ExecContext(ctx, acquireLockSQL, table, owner, now, now.Add(ttl))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseLock drops the lease if owner still holds it.
func ReleaseLock(ctx context.Context, db bun.IDB, table, owner string) error {
	_, err := db.NewDelete().
		Model((*models.ETLLock)(nil)).
		Where("table_name = ?", table).
		Where("owner = ?", owner).
		Exec(ctx)
	return err
}

// GetLock returns the current lease on table, or nil when none exists.
func GetLock(ctx context.Context, db bun.IDB, table string) (*models.ETLLock, error) {
	lock := new(models.ETLLock)
	err := db.NewSelect().Model(lock).Where("table_name = ?", table).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return lock, err
}
