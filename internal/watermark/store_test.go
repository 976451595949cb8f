package watermark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/testutil"
)

func TestGetMissingIsZero(t *testing.T) {
	s := NewStore(testutil.NewDB(t))

	got, err := s.Get(context.Background(), models.TableRawEmployee)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s := NewStore(testutil.NewDB(t))
	ctx := context.Background()
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)

	require.NoError(t, s.Advance(ctx, models.TableRawEmployee, t1))
	got, err := s.Get(ctx, models.TableRawEmployee)
	require.NoError(t, err)
	assert.True(t, t1.Equal(got), "got %s", got)

	require.NoError(t, s.Advance(ctx, models.TableRawEmployee, t1.Add(-time.Hour)))
	got, err = s.Get(ctx, models.TableRawEmployee)
	require.NoError(t, err)
	assert.True(t, t1.Equal(got), "older timestamp must not move the watermark back")

	t2 := t1.Add(time.Millisecond)
	require.NoError(t, s.Advance(ctx, models.TableRawEmployee, t2))
	got, err = s.Get(ctx, models.TableRawEmployee)
	require.NoError(t, err)
	assert.True(t, t2.Equal(got))

	other, err := s.Get(ctx, models.TableRawTimesheet)
	require.NoError(t, err)
	assert.True(t, other.IsZero(), "watermarks are per table")

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.TableRawEmployee, all[0].TableName)
}

func TestAdvanceInsideRolledBackTx(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewStore(db)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	boom := errors.New("chunk failed")

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.WithTx(tx).Advance(ctx, models.TableRawTimesheet, ts); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, models.TableRawTimesheet)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
