// Package watermark persists the per-table boundary between processed and
// unprocessed raw rows.
package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
)

// advanceSQL upserts the watermark and refuses to move it backwards.
const advanceSQL = `
INSERT INTO etl_watermark (table_name, last_processed_at, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (table_name) DO UPDATE SET
    last_processed_at = excluded.last_processed_at,
    updated_at = excluded.updated_at
WHERE etl_watermark.last_processed_at < excluded.last_processed_at`

// Store reads and advances watermarks through any bun handle.
type Store struct {
	db  bun.IDB
	now func() time.Time
}

// NewStore binds a store to db.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithTx returns a store that runs inside tx.
func (s *Store) WithTx(tx bun.Tx) *Store {
	return &Store{db: tx, now: s.now}
}

// Get returns the stored watermark, or the zero time when none exists so
// that a first run selects every raw row.
func (s *Store) Get(ctx context.Context, table string) (time.Time, error) {
	wm := new(models.ETLWatermark)
	err := s.db.NewSelect().
		Model(wm).
		Where("table_name = ?", table).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get watermark %s: %w", table, err)
	}
	return wm.LastProcessedAt.UTC(), nil
}

// Advance moves the watermark forward to ts. An older or equal ts leaves
// the stored value unchanged.
func (s *Store) Advance(ctx context.Context, table string, ts time.Time) error {
	ts = ts.UTC().Truncate(time.Microsecond)
	now := s.now().UTC().Truncate(time.Microsecond)
	if _, err := s.db.ExecContext(ctx, advanceSQL, table, ts, now); err != nil {
		return fmt.Errorf("advance watermark %s: %w", table, err)
	}
	return nil
}

// All lists every stored watermark by table name.
func (s *Store) All(ctx context.Context) ([]*models.ETLWatermark, error) {
	var wms []*models.ETLWatermark
	err := s.db.NewSelect().Model(&wms).OrderExpr("table_name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	return wms, nil
}
