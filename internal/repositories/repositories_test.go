package repositories

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

func strp(s string) *string { return &s }

func rawEmployees(n int, loadedAt time.Time, file string) []*models.RawEmployee {
	rows := make([]*models.RawEmployee, n)
	for i := range rows {
		rows[i] = &models.RawEmployee{
			ClientEmployeeID: strp("E" + string(rune('A'+i))),
			SourceFile:       file,
			LoadedAt:         loadedAt,
		}
	}
	return rows
}

func TestInsertChunkedCommitsEveryChunk(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	loaded := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	var commits []int
	finalCalls := 0
	n, err := InsertChunked(ctx, db, rawEmployees(5, loaded, "employee_1.csv"), ChunkOptions{
		Size:  2,
		Table: models.TableRawEmployee,
		Final: func(ctx context.Context, tx bun.Tx) error {
			finalCalls++
			return nil
		},
		OnCommit: func(chunk, rows int) { commits = append(commits, rows) },
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{2, 2, 1}, commits)
	assert.Equal(t, 1, finalCalls)

	count, err := CountRows(ctx, db, models.TableRawEmployee)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestInsertChunkedFinalFailureRollsBackLastChunk(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	n, err := InsertChunked(ctx, db, rawEmployees(3, time.Now().UTC(), "employee_2.csv"), ChunkOptions{
		Size:  2,
		Table: models.TableRawEmployee,
		Final: func(context.Context, bun.Tx) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, n)

	count, err := CountRows(ctx, db, models.TableRawEmployee)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "earlier chunks stay committed")
}

func TestListRawSinceIsStrictAndOrdered(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	rows := append(rawEmployees(1, t2, "b.csv"), rawEmployees(2, t1, "a.csv")...)
	_, err := InsertChunked(ctx, db, rows, ChunkOptions{})
	require.NoError(t, err)

	all, err := ListRawEmployeesSince(ctx, db, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].LoadedAt.Equal(t1))
	assert.True(t, all[2].LoadedAt.Equal(t2))

	newer, err := ListRawEmployeesSince(ctx, db, t1)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, "b.csv", newer[0].SourceFile)

	files, err := LoadedSourceFiles(ctx, db, models.TableRawEmployee)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, files, "a.csv")
}

func TestUpsertChunkedReplacesAndIgnores(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	depts := []*models.DimDepartment{
		{DepartmentKey: 1, DepartmentID: strp("D1"), DepartmentName: "Ops", IsActive: 1, StartDate: today, EndDate: today},
		{DepartmentKey: 2, DepartmentID: strp("D2"), DepartmentName: "Sales", IsActive: 1, StartDate: today, EndDate: today},
	}
	_, err := UpsertChunked(ctx, db, depts, []string{"department_key"}, DepartmentUpdateColumns, ChunkOptions{})
	require.NoError(t, err)

	depts[0].DepartmentName = "Operations"
	_, err = UpsertChunked(ctx, db, depts[:1], []string{"department_key"}, DepartmentUpdateColumns, ChunkOptions{})
	require.NoError(t, err)

	got, err := ListDepartments(ctx, db)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Operations", got[0].DepartmentName)

	deleted, err := DeleteKeysAbove(ctx, db, models.TableDimDepartment, "department_key", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	dates := []*models.DimDate{models.NewDimDate(today), models.NewDimDate(today.AddDate(0, 0, 1))}
	_, err = InsertIgnoreChunked(ctx, db, dates, []string{"work_date"}, ChunkOptions{})
	require.NoError(t, err)
	first, err := ListDates(ctx, db)
	require.NoError(t, err)

	again := []*models.DimDate{models.NewDimDate(today), models.NewDimDate(today.AddDate(0, 0, 2))}
	_, err = InsertIgnoreChunked(ctx, db, again, []string{"work_date"}, ChunkOptions{})
	require.NoError(t, err)

	second, err := ListDates(ctx, db)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, first[0].DateID, second[0].DateID)
	assert.Equal(t, first[1].DateID, second[1].DateID)
}

func TestLeaseLock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	ok, err := AcquireLock(ctx, db, models.TableRawTimesheet, "a", now, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AcquireLock(ctx, db, models.TableRawTimesheet, "b", now.Add(30*time.Second), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lease blocks another owner")

	ok, err = AcquireLock(ctx, db, models.TableRawTimesheet, "b", now.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease is taken over")

	require.NoError(t, ReleaseLock(ctx, db, models.TableRawTimesheet, "a"))
	lock, err := GetLock(ctx, db, models.TableRawTimesheet)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, "b", lock.Owner)

	require.NoError(t, ReleaseLock(ctx, db, models.TableRawTimesheet, "b"))
	lock, err = GetLock(ctx, db, models.TableRawTimesheet)
	require.NoError(t, err)
	assert.Nil(t, lock)
}

func TestRunAudit(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	run := &models.ETLRun{BatchID: "b1", Stage: models.StageEmployees, StartTime: start, Status: models.RunStatusRunning}
	require.NoError(t, CreateRun(ctx, db, run))
	require.NotZero(t, run.ID)

	run.RowsRead = 4
	run.RowsWritten = 3
	run.Finish(start.Add(time.Second), models.RunStatusSuccess, nil)
	require.NoError(t, UpdateRun(ctx, db, run))

	runs, err := ListBatchRuns(ctx, db, "b1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, 3, runs[0].RowsWritten)

	recent, err := ListRecentRuns(ctx, db, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestTableCounter(t *testing.T) {
	db := testutil.NewDB(t)

	n, err := TableCounter{DB: db}.Count(context.Background(), models.TableFactTimesheet)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = TableCounter{DB: db}.Count(context.Background(), "no_such_table")
	assert.Error(t, err)
}
