// Package staging moves newly landed raw rows into the append-only staging
// tables, driven by per-table watermarks.
package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/sync/singleflight"

	"github.com/mkoziy/workforce/warehouse/internal/classify"
	"github.com/mkoziy/workforce/warehouse/internal/metrics"
	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
	"github.com/mkoziy/workforce/warehouse/internal/repositories"
	"github.com/mkoziy/workforce/warehouse/internal/retry"
	"github.com/mkoziy/workforce/warehouse/internal/typederrors"
	"github.com/mkoziy/workforce/warehouse/internal/watermark"
)

// ErrTableLocked is wrapped in the LoadError returned when another run
// holds the lease on a source table.
var ErrTableLocked = errors.New("source table is locked by another run")

// Config controls staging runs.
type Config struct {
	ChunkSize int           `yaml:"chunk_size" json:"chunk_size" mapstructure:"chunk_size"`
	Validate  bool          `yaml:"validate" json:"validate" mapstructure:"validate"`
	LockTTL   time.Duration `yaml:"lock_ttl" json:"lock_ttl" mapstructure:"lock_ttl"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 1000,
		Validate:  true,
		LockTTL:   15 * time.Minute,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	return cfg
}

// TableResult is the outcome of staging one source table.
type TableResult struct {
	Table      string
	RowsRead   int
	RowsStaged int
	Orphans    int
	Invalid    int
	Watermark  time.Time
	Skipped    bool
}

// Result is the outcome of one staging run.
type Result struct {
	BatchID    string
	Employees  *TableResult
	Timesheets *TableResult
	Report     *quality.Report
}

// Stager stages raw rows past the watermark of each source table.
type Stager struct {
	db         *bun.DB
	cfg        Config
	retry      retry.Config
	classifier *classify.Classifier
	suite      quality.Suite
	watermarks *watermark.Store
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics

	group singleflight.Group
	owner string

	now        func() time.Time
	newBatchID func() string
}

// Option customizes a Stager.
type Option func(*Stager)

// WithClassifier replaces the default comment classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Stager) { s.classifier = c }
}

// WithSuite replaces the default staging quality suite.
func WithSuite(suite quality.Suite) Option {
	return func(s *Stager) { s.suite = suite }
}

// WithMetrics records stage metrics on m.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(s *Stager) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Stager) { s.now = now }
}

// NewStager creates a stager. Leases are held under the stager id plus the batch id.
func NewStager(db *bun.DB, cfg Config, retryCfg retry.Config, logger *slog.Logger, opts ...Option) *Stager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Stager{
		db:         db,
		cfg:        applyDefaults(cfg),
		retry:      retry.ApplyDefaults(retryCfg),
		classifier: classify.Default(),
		suite:      quality.DefaultSuites()[quality.SuiteStaging],
		watermarks: watermark.NewStore(db),
		logger:     logger.With("component", "staging"),
		owner:      uuid.NewString(),
		now:        time.Now,
		newBatchID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run stages employees, then timesheets, under one batch id and optionally
// validates the full staging tables. Employees go first so the timesheet
// orphan filter sees the current batch.
func (s *Stager) Run(ctx context.Context) (*Result, error) {
	res := &Result{BatchID: s.newBatchID()}
	logger := s.logger.With("batch_id", res.BatchID)
	logger.Info("staging run started")

	emp, err := s.StageEmployees(ctx, res.BatchID)
	res.Employees = emp
	if err != nil {
		return res, err
	}

	ts, err := s.StageTimesheets(ctx, res.BatchID)
	res.Timesheets = ts
	if err != nil {
		return res, err
	}

	if s.cfg.Validate {
		report, err := s.Validate(ctx)
		if err != nil {
			return res, err
		}
		res.Report = report
	}

	logger.Info("staging run complete",
		"employees_staged", emp.RowsStaged,
		"timesheets_staged", ts.RowsStaged,
		"orphans", ts.Orphans)
	return res, nil
}

// StageEmployees stages raw employee rows newer than the employee watermark.
func (s *Stager) StageEmployees(ctx context.Context, batchID string) (*TableResult, error) {
	return s.guard(ctx, models.TableRawEmployee, models.StageEmployees, batchID, s.stageEmployees)
}

// StageTimesheets stages raw punch rows newer than the timesheet watermark,
// dropping rows whose employee has never been staged.
func (s *Stager) StageTimesheets(ctx context.Context, batchID string) (*TableResult, error) {
	return s.guard(ctx, models.TableRawTimesheet, models.StageTimesheets, batchID, s.stageTimesheets)
}

// Validate runs the staging suite over the full staging tables.
func (s *Stager) Validate(ctx context.Context) (*quality.Report, error) {
	employees, err := repositories.ListStagingEmployees(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list staged employees: %w", err)
	}
	timesheets, err := repositories.ListStagingTimesheets(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list staged timesheets: %w", err)
	}

	report := s.suite.Run(quality.Frames{
		models.TableStagingEmployee:  EmployeeFrame(employees),
		models.TableStagingTimesheet: TimesheetFrame(timesheets),
	}, s.logger)
	for _, r := range report.Results {
		s.metrics.RecordQualityResult(report.Suite, r.Passed)
	}
	return report, nil
}

type stageFunc func(ctx context.Context, logger *slog.Logger, batchID string) (*TableResult, error)

// guard serializes staging of one table. Concurrent calls for the same
// batch share one result and one audit row. Any other batch, in this process
// or another, is held off by the lease and fails with ErrTableLocked.
func (s *Stager) guard(ctx context.Context, table, stage, batchID string, fn stageFunc) (*TableResult, error) {
	v, err, _ := s.group.Do(table+"/"+batchID, func() (any, error) {
		return s.audited(ctx, table, stage, batchID, fn)
	})
	res, _ := v.(*TableResult)
	return res, err
}

func (s *Stager) audited(ctx context.Context, table, stage, batchID string, fn stageFunc) (*TableResult, error) {
	logger := s.logger.With("batch_id", batchID, "table", table)
	started := s.now()

	run := &models.ETLRun{
		BatchID:   batchID,
		Stage:     stage,
		StartTime: started.UTC(),
		Status:    models.RunStatusRunning,
	}
	if err := repositories.CreateRun(ctx, s.db, run); err != nil {
		return nil, typederrors.NewLoadError(err, table, batchID, "record %s run", stage)
	}

	res, err := s.leased(ctx, table, batchID, func() (*TableResult, error) {
		return fn(ctx, logger, batchID)
	})

	status := models.RunStatusSuccess
	if res != nil {
		if res.Skipped {
			status = models.RunStatusSkipped
		}
		run.RowsRead = res.RowsRead
		run.RowsWritten = res.RowsStaged
		run.RowsSkipped = res.Orphans + res.Invalid
		if !res.Watermark.IsZero() {
			wm := res.Watermark
			run.Watermark = &wm
		}
	}
	run.Finish(s.now().UTC(), status, err)
	if uerr := repositories.UpdateRun(context.WithoutCancel(ctx), s.db, run); uerr != nil {
		logger.Warn("failed to record run outcome", "error", uerr)
	}
	s.metrics.RecordStage(stage, started, err)

	if err != nil {
		logger.Error("staging failed", "error", err)
	}
	return res, err
}

func (s *Stager) leased(ctx context.Context, table, batchID string, fn func() (*TableResult, error)) (*TableResult, error) {
	owner := s.leaseOwner(batchID)
	ok, err := repositories.AcquireLock(ctx, s.db, table, owner, s.now(), s.cfg.LockTTL)
	if err != nil {
		return nil, typederrors.NewLoadError(err, table, batchID, "acquire lease")
	}
	if !ok {
		holder := "unknown"
		if lock, err := repositories.GetLock(ctx, s.db, table); err == nil && lock != nil {
			holder = fmt.Sprintf("%s until %s", lock.Owner, lock.ExpiresAt.UTC().Format(time.RFC3339))
		}
		return nil, typederrors.NewLoadError(ErrTableLocked, table, batchID, "lease held by %s", holder)
	}
	defer func() {
		if err := repositories.ReleaseLock(context.WithoutCancel(ctx), s.db, table, owner); err != nil {
			s.logger.Warn("failed to release lease", "table", table, "error", err)
		}
	}()

	return fn()
}

func (s *Stager) leaseOwner(batchID string) string {
	return s.owner + "/" + batchID
}

func (s *Stager) stageEmployees(ctx context.Context, logger *slog.Logger, batchID string) (*TableResult, error) {
	table := models.TableRawEmployee
	res := &TableResult{Table: table}

	wm, err := s.watermarks.Get(ctx, table)
	if err != nil {
		return nil, typederrors.NewLoadError(err, table, batchID, "read watermark")
	}
	res.Watermark = wm
	logger.Info("staging employees", "watermark", wm)

	raw, err := repositories.ListRawEmployeesSince(ctx, s.db, wm)
	if err != nil {
		return nil, typederrors.NewLoadError(err, table, batchID, "select raw rows")
	}
	res.RowsRead = len(raw)
	if len(raw) == 0 {
		logger.Info("no new employee rows")
		res.Skipped = true
		return res, nil
	}

	processedAt := s.processedAt()
	rows := make([]*models.StagingEmployee, 0, len(raw))
	latest := wm
	for _, r := range raw {
		row := CleanEmployee(r, batchID, processedAt)
		if err := row.Validate(); err != nil {
			logger.Warn("dropping invalid employee row", "raw_id", r.ID, "error", err)
			res.Invalid++
			continue
		}
		rows = append(rows, row)
		if row.RawLoadedAt.After(latest) {
			latest = row.RawLoadedAt
		}
	}

	return stageRows(ctx, s, logger, batchID, models.TableStagingEmployee, table, rows, latest, res)
}

func (s *Stager) stageTimesheets(ctx context.Context, logger *slog.Logger, batchID string) (*TableResult, error) {
	table := models.TableRawTimesheet
	res := &TableResult{Table: table}

	wm, err := s.watermarks.Get(ctx, table)
	if err != nil {
		return nil, typederrors.NewLoadError(err, table, batchID, "read watermark")
	}
	res.Watermark = wm
	logger.Info("staging timesheets", "watermark", wm)

	raw, err := repositories.ListRawTimesheetsSince(ctx, s.db, wm)
	if err != nil {
		return nil, typederrors.NewLoadError(err, table, batchID, "select raw rows")
	}
	res.RowsRead = len(raw)
	if len(raw) == 0 {
		logger.Info("no new timesheet rows")
		res.Skipped = true
		return res, nil
	}

	known, err := repositories.StagedEmployeeIDs(ctx, s.db)
	if err != nil {
		return nil, typederrors.NewLoadError(err, models.TableStagingEmployee, batchID, "list staged employee ids")
	}

	processedAt := s.processedAt()
	rows := make([]*models.StagingTimesheet, 0, len(raw))
	latest := wm
	for _, r := range raw {
		row := CleanTimesheet(r, s.classifier, batchID, processedAt)
		if err := row.Validate(); err != nil {
			logger.Warn("dropping invalid timesheet row", "raw_id", r.ID, "error", err)
			res.Invalid++
			continue
		}
		if _, ok := known[row.EmployeeID]; !ok {
			res.Orphans++
			continue
		}
		rows = append(rows, row)
		if row.RawLoadedAt.After(latest) {
			latest = row.RawLoadedAt
		}
	}
	if res.Orphans > 0 {
		logger.Warn("filtered orphan timesheet rows", "orphans", res.Orphans)
		s.metrics.RecordOrphans(models.StageTimesheets, res.Orphans)
	}

	return stageRows(ctx, s, logger, batchID, models.TableStagingTimesheet, table, rows, latest, res)
}

// stageRows writes rows chunk by chunk. The watermark moves to latest in
// the transaction of the final chunk, so it only advances once every chunk
// has committed.
func stageRows[T any](ctx context.Context, s *Stager, logger *slog.Logger, batchID, target, source string, rows []T, latest time.Time, res *TableResult) (*TableResult, error) {
	n, err := repositories.InsertChunked(ctx, s.db, rows, repositories.ChunkOptions{
		Size:   s.cfg.ChunkSize,
		Retry:  s.retry,
		Logger: logger,
		Table:  target,
		Final: func(ctx context.Context, tx bun.Tx) error {
			return s.watermarks.WithTx(tx).Advance(ctx, source, latest)
		},
		OnCommit: func(int, int) {
			s.metrics.RecordChunk(target)
		},
	})

	res.RowsStaged = n
	s.metrics.RecordStaged(target, n)
	if err != nil {
		return res, typederrors.NewLoadError(err, target, batchID, "stage rows (%d committed)", n)
	}

	if n > 0 {
		res.Watermark = latest
		s.metrics.SetWatermark(source, latest)
	}
	logger.Info("staged rows", "target", target, "rows", n, "watermark", res.Watermark)
	return res, nil
}

func (s *Stager) processedAt() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
