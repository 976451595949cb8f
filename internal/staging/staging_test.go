package staging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/normalize"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
	"github.com/mkoziy/workforce/warehouse/internal/repositories"
	"github.com/mkoziy/workforce/warehouse/internal/retry"
	"github.com/mkoziy/workforce/warehouse/internal/testutil"
	"github.com/mkoziy/workforce/warehouse/internal/typederrors"
	"github.com/mkoziy/workforce/warehouse/internal/watermark"
)

var (
	t0    = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock = func() time.Time { return time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC) }
)

func newStager(t *testing.T, db *bun.DB, opts ...Option) *Stager {
	t.Helper()
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewStager(db, Config{ChunkSize: 2, Validate: true}, retry.DefaultConfig(), testutil.Logger(), opts...)
}

func seed(t *testing.T, db *bun.DB) {
	t.Helper()
	testutil.Insert(t, db, testutil.RawEmployees("employee_1.csv", t0,
		testutil.Employee{ID: "E1", First: "Ann", Last: "Lee", Title: "Nurse", DeptID: "D1", DeptName: "ICU", Hire: "2020-01-15"},
		testutil.Employee{ID: "E3", First: "Cal", Last: "Ode", Title: "N/A", DeptID: "[NULL]", DeptName: "", Hire: "garbage", Term: "2023-06-30"},
	))
	testutil.Insert(t, db, testutil.RawTimesheets("timesheet_1.csv", t0.Add(time.Minute),
		testutil.Punch{EmployeeID: "E1", Date: "2024-02-01", In: "2024-02-01 08:00:00", Out: "2024-02-01 16:30:00", Hours: "8.5", PayCode: "REG", InComment: "EARLY_OUT|MEAL_NOT_TAKEN"},
		testutil.Punch{EmployeeID: "E1", Date: "2024-02-02", In: "2024-02-02 08:00:00", Out: "2024-02-02 16:00:00", Hours: "NULL", PayCode: "REG"},
		testutil.Punch{EmployeeID: "E2", Date: "2024-02-01", In: "2024-02-01 08:00:00", Out: "2024-02-01 16:00:00", Hours: "8", PayCode: "REG"},
	))
}

func TestCleanEmployeeDefaults(t *testing.T) {
	raw := testutil.RawEmployees("employee_1.csv", t0,
		testutil.Employee{ID: " NULL ", First: "Ann", Title: "-", DeptID: "N/A", Hire: "not a date"},
		testutil.Employee{ID: "E2", Term: "2023-06-30"},
	)

	active := CleanEmployee(raw[0], "b1", clock())
	assert.Equal(t, DefaultEmployeeID, active.EmployeeID)
	assert.Equal(t, "Ann", active.FirstName)
	assert.Equal(t, "", active.LastName)
	assert.Equal(t, DefaultJobTitle, active.JobTitle)
	assert.Equal(t, DefaultDepartmentName, active.DepartmentName)
	assert.Nil(t, active.DepartmentID)
	assert.Nil(t, active.HireDate)
	assert.True(t, normalize.IsSentinel(active.TerminationDate))
	assert.Equal(t, 1, active.IsActive)
	assert.Equal(t, "employee_1.csv", *active.SourceFile)
	assert.True(t, active.RawLoadedAt.Equal(t0))
	require.NoError(t, active.Validate())

	termed := CleanEmployee(raw[1], "b1", clock())
	assert.Equal(t, 0, termed.IsActive)
	assert.Equal(t, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), termed.TerminationDate)
}

func TestCleanTimesheetClassifiesComments(t *testing.T) {
	raw := testutil.RawTimesheets("timesheet_1.csv", t0, testutil.Punch{
		EmployeeID: "E1", Date: "2024-02-01", In: "2024-02-01 08:00:00", Hours: "abc",
		InComment: "EARLY_OUT|MEAL_NOT_TAKEN", OutComment: "xyz-unmapped",
	})

	row := CleanTimesheet(raw[0], nil, "b1", clock())
	assert.Equal(t, "E1", row.EmployeeID)
	require.NotNil(t, row.WorkDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *row.WorkDate)
	require.NotNil(t, row.PunchIn)
	assert.Nil(t, row.PunchOut)
	assert.Zero(t, row.HoursWorked)
	assert.Equal(t, "EARLY OUT, MEAL ISSUE", row.PunchInComment)
	assert.Equal(t, "OTHER", row.PunchOutComment)
}

func TestStageNoNewRowsIsNoop(t *testing.T) {
	db := testutil.NewDB(t)
	s := newStager(t, db)
	ctx := context.Background()

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Employees.Skipped)
	assert.True(t, res.Timesheets.Skipped)
	assert.Zero(t, res.Employees.RowsStaged)

	wm, err := watermark.NewStore(db).Get(ctx, models.TableRawEmployee)
	require.NoError(t, err)
	assert.True(t, wm.IsZero())

	runs, err := repositories.ListBatchRuns(ctx, db, res.BatchID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, models.RunStatusSkipped, runs[0].Status)
	assert.Equal(t, models.RunStatusSkipped, runs[1].Status)

	require.NotNil(t, res.Report)
	assert.False(t, res.Report.Passed(), "row count checks fail on empty staging")
}

func TestStageRunFiltersOrphansAndAdvancesWatermark(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	s := newStager(t, db)
	ctx := context.Background()

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Employees.RowsStaged)
	assert.Equal(t, 2, res.Timesheets.RowsStaged)
	assert.Equal(t, 1, res.Timesheets.Orphans)
	assert.Equal(t, 3, res.Timesheets.RowsRead)

	store := watermark.NewStore(db)
	wm, err := store.Get(ctx, models.TableRawEmployee)
	require.NoError(t, err)
	assert.True(t, wm.Equal(t0), "got %s", wm)
	wm, err = store.Get(ctx, models.TableRawTimesheet)
	require.NoError(t, err)
	assert.True(t, wm.Equal(t0.Add(time.Minute)), "got %s", wm)

	ts, err := repositories.ListStagingTimesheets(ctx, db)
	require.NoError(t, err)
	require.Len(t, ts, 2)
	for _, row := range ts {
		assert.Equal(t, "E1", row.EmployeeID)
		assert.Equal(t, res.BatchID, row.ETLBatchID)
	}
	assert.Equal(t, "EARLY OUT, MEAL ISSUE", ts[0].PunchInComment)
	assert.Equal(t, "NA", ts[0].PunchOutComment)

	emps, err := repositories.ListStagingEmployees(ctx, db)
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, 0, emps[1].IsActive)
	assert.Nil(t, emps[1].DepartmentID)

	require.NotNil(t, res.Report)
	assert.False(t, res.Report.Blocking(), res.Report.Summary())

	runs, err := repositories.ListBatchRuns(ctx, db, res.BatchID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, models.StageTimesheets, runs[1].Stage)
	assert.Equal(t, models.RunStatusSuccess, runs[1].Status)
	assert.Equal(t, 3, runs[1].RowsRead)
	assert.Equal(t, 2, runs[1].RowsWritten)
	assert.Equal(t, 1, runs[1].RowsSkipped)

	lock, err := repositories.GetLock(ctx, db, models.TableRawTimesheet)
	require.NoError(t, err)
	assert.Nil(t, lock, "lease released after the run")
}

func TestStageRerunOnlyPicksUpNewRows(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	s := newStager(t, db)
	ctx := context.Background()

	_, err := s.Run(ctx)
	require.NoError(t, err)

	again, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, again.Employees.Skipped)
	assert.True(t, again.Timesheets.Skipped)

	later := t0.Add(time.Hour)
	testutil.Insert(t, db, testutil.RawEmployees("employee_2.csv", later,
		testutil.Employee{ID: "E2", First: "Bo", Last: "Ng", DeptID: "D1", DeptName: "ICU"},
	))
	testutil.Insert(t, db, testutil.RawTimesheets("timesheet_2.csv", later.Add(time.Minute),
		testutil.Punch{EmployeeID: "E2", Date: "2024-02-03", Hours: "7", PayCode: "REG"},
	))

	third, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Employees.RowsStaged)
	assert.Equal(t, 1, third.Timesheets.RowsStaged)
	assert.Zero(t, third.Timesheets.Orphans)
	assert.True(t, third.Timesheets.Watermark.Equal(later.Add(time.Minute)))

	count, err := repositories.CountRows(ctx, db, models.TableStagingTimesheet)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStageAllOrphansLeavesWatermark(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Insert(t, db, testutil.RawTimesheets("timesheet_1.csv", t0,
		testutil.Punch{EmployeeID: "E9", Date: "2024-02-01", Hours: "8"},
	))
	s := newStager(t, db)
	ctx := context.Background()

	res, err := s.StageTimesheets(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Orphans)
	assert.Zero(t, res.RowsStaged)
	assert.True(t, res.Watermark.IsZero())

	wm, err := watermark.NewStore(db).Get(ctx, models.TableRawTimesheet)
	require.NoError(t, err)
	assert.True(t, wm.IsZero())
}

func TestStageFailsWhileLeaseHeldElsewhere(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	ctx := context.Background()

	ok, err := repositories.AcquireLock(ctx, db, models.TableRawEmployee, "other-process", clock(), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	s := newStager(t, db)
	_, err = s.StageEmployees(ctx, "batch-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableLocked)
	le, ok := typederrors.AsLoadError(err)
	require.True(t, ok)
	assert.Equal(t, models.TableRawEmployee, le.Table)
	assert.Equal(t, "batch-1", le.BatchID)

	count, err := repositories.CountRows(ctx, db, models.TableStagingEmployee)
	require.NoError(t, err)
	assert.Zero(t, count)

	runs, err := repositories.ListBatchRuns(ctx, db, "batch-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].ErrorLog)
}

func TestStageOtherBatchIsLockedOutAndAudited(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	ctx := context.Background()
	s := newStager(t, db)

	ok, err := repositories.AcquireLock(ctx, db, models.TableRawEmployee, s.leaseOwner("batch-a"), clock(), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.StageEmployees(ctx, "batch-b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableLocked)

	runs, err := repositories.ListBatchRuns(ctx, db, "batch-b")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)

	require.NoError(t, repositories.ReleaseLock(ctx, db, models.TableRawEmployee, s.leaseOwner("batch-a")))

	res, err := s.StageEmployees(ctx, "batch-b")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsStaged)

	res, err = s.StageEmployees(ctx, "batch-c")
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	for _, batch := range []string{"batch-b", "batch-c"} {
		runs, err := repositories.ListBatchRuns(ctx, db, batch)
		require.NoError(t, err)
		require.NotEmpty(t, runs, batch)
		assert.Equal(t, models.StageEmployees, runs[0].Stage)
	}
	lock, err := repositories.GetLock(ctx, db, models.TableRawEmployee)
	require.NoError(t, err)
	assert.Nil(t, lock)
}

func TestValidateUsesCustomSuite(t *testing.T) {
	db := testutil.NewDB(t)
	seed(t, db)
	suite := quality.Suite{Name: "custom", Rules: []quality.Rule{
		{Check: quality.CheckRowCount, Table: models.TableStagingEmployee, MinRows: 5},
	}}
	s := newStager(t, db, WithSuite(suite))
	ctx := context.Background()

	_, err := s.StageEmployees(ctx, "batch-1")
	require.NoError(t, err)

	report, err := s.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "custom", report.Suite)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Passed())
}
