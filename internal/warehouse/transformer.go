// Package warehouse rebuilds the dimensional model from the full staging
// snapshot and upserts it into the warehouse tables.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/metrics"
	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
	"github.com/mkoziy/workforce/warehouse/internal/repositories"
	"github.com/mkoziy/workforce/warehouse/internal/retry"
	"github.com/mkoziy/workforce/warehouse/internal/typederrors"
)

// Config controls transform runs.
type Config struct {
	ChunkSize      int    `yaml:"chunk_size" json:"chunk_size" mapstructure:"chunk_size"`
	ScheduledStart string `yaml:"scheduled_start" json:"scheduled_start" mapstructure:"scheduled_start"`
	ScheduledEnd   string `yaml:"scheduled_end" json:"scheduled_end" mapstructure:"scheduled_end"`
	// AbortOnValidationFailure stops before loading when the pre-load
	// report has a failed error-severity check.
	AbortOnValidationFailure bool `yaml:"abort_on_validation_failure" json:"abort_on_validation_failure" mapstructure:"abort_on_validation_failure"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      1000,
		ScheduledStart: DefaultScheduledStart,
		ScheduledEnd:   DefaultScheduledEnd,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ScheduledStart == "" {
		cfg.ScheduledStart = def.ScheduledStart
	}
	if cfg.ScheduledEnd == "" {
		cfg.ScheduledEnd = def.ScheduledEnd
	}
	return cfg
}

// Result reports row counts written per table.
type Result struct {
	BatchID     string
	Skipped     bool
	Departments int
	Employees   int
	Dates       int
	Facts       int
	Orphans     int
	Pruned      int64
	Report      *quality.Report
}

// Transformer loads the dimensional model.
type Transformer struct {
	db         *bun.DB
	cfg        Config
	retry      retry.Config
	suite      quality.Suite
	logger     *slog.Logger
	metrics    *metrics.PipelineMetrics

	now        func() time.Time
	newBatchID func() string
}

// Option customizes a Transformer.
type Option func(*Transformer)

// WithSuite replaces the default warehouse quality suite.
func WithSuite(suite quality.Suite) Option {
	return func(t *Transformer) { t.suite = suite }
}

// WithMetrics records load metrics on m.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(t *Transformer) { t.metrics = m }
}

// WithClock overrides time.Now, which also decides the dimension start date.
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) { t.now = now }
}

// NewTransformer creates a transformer.
func NewTransformer(db *bun.DB, cfg Config, retryCfg retry.Config, logger *slog.Logger, opts ...Option) *Transformer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Transformer{
		db:         db,
		cfg:        applyDefaults(cfg),
		retry:      retry.ApplyDefaults(retryCfg),
		suite:      quality.DefaultSuites()[quality.SuiteWarehouse],
		logger:     logger.With("component", "warehouse"),
		now:        time.Now,
		newBatchID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Snapshot reads both staging tables in full.
func (t *Transformer) Snapshot(ctx context.Context) (Snapshot, error) {
	employees, err := repositories.ListStagingEmployees(ctx, t.db)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list staged employees: %w", err)
	}
	timesheets, err := repositories.ListStagingTimesheets(ctx, t.db)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list staged timesheets: %w", err)
	}
	return Snapshot{Employees: employees, Timesheets: timesheets}, nil
}

func (t *Transformer) build(snap Snapshot) *Model {
	return Build(snap, t.now(), BuildOptions{
		ScheduledStart: t.cfg.ScheduledStart,
		ScheduledEnd:   t.cfg.ScheduledEnd,
	})
}

// Run rebuilds every dimension and the fact table from staging, validates
// the result in memory and upserts it. Rows whose surrogate key lies above
// the rebuilt range are pruned so the tables mirror the rebuild exactly.
func (t *Transformer) Run(ctx context.Context) (*Result, error) {
	res := &Result{BatchID: t.newBatchID()}
	err := t.audited(ctx, res, models.StageTransform, func(ctx context.Context, logger *slog.Logger) error {
		snap, err := t.Snapshot(ctx)
		if err != nil {
			return err
		}
		if len(snap.Employees) == 0 {
			logger.Warn("no staged employees, skipping transform")
			res.Skipped = true
			return nil
		}

		model := t.build(snap)
		res.Orphans = model.Orphans
		if model.Orphans > 0 {
			logger.Warn("dropped punches without an employee", "orphans", model.Orphans)
			t.metrics.RecordOrphans(models.StageTransform, model.Orphans)
		}
		logger.Info("dimensional model built",
			"departments", len(model.Departments),
			"employees", len(model.Employees),
			"dates", len(model.Dates),
			"facts", len(model.Facts))

		res.Report = t.suite.Run(model.Frames(), logger)
		for _, r := range res.Report.Results {
			t.metrics.RecordQualityResult(res.Report.Suite, r.Passed)
		}
		if res.Report.Blocking() {
			if t.cfg.AbortOnValidationFailure {
				return fmt.Errorf("pre-load checks: %w", quality.ErrValidationFailed)
			}
			logger.Warn("pre-load checks failed, loading anyway", "failed", res.Report.FailedCount())
		}

		return t.load(ctx, logger, res, model)
	})
	return res, err
}

// RefreshFacts truncates the fact table and reloads it from staging
// without touching the dimensions.
func (t *Transformer) RefreshFacts(ctx context.Context) (*Result, error) {
	res := &Result{BatchID: t.newBatchID()}
	err := t.audited(ctx, res, models.StageRefreshFacts, func(ctx context.Context, logger *slog.Logger) error {
		snap, err := t.Snapshot(ctx)
		if err != nil {
			return err
		}
		if len(snap.Employees) == 0 || len(snap.Timesheets) == 0 {
			logger.Warn("staging is empty, skipping fact refresh")
			res.Skipped = true
			return nil
		}

		model := t.build(snap)
		res.Orphans = model.Orphans

		err = retry.Do(ctx, t.retry, func(ctx context.Context) error {
			return repositories.TruncateFacts(ctx, t.db)
		})
		if err != nil {
			return typederrors.NewLoadError(err, models.TableFactTimesheet, res.BatchID, "truncate")
		}
		logger.Info("fact table truncated")

		n, err := repositories.UpsertChunked(ctx, t.db, model.Facts, []string{"id"}, repositories.FactUpdateColumns, t.chunkOptions(logger, models.TableFactTimesheet))
		res.Facts = n
		t.metrics.RecordLoaded(models.TableFactTimesheet, n)
		if err != nil {
			return typederrors.NewLoadError(err, models.TableFactTimesheet, res.BatchID, "reload facts")
		}
		logger.Info("fact refresh complete", "facts", n)
		return nil
	})
	return res, err
}

func (t *Transformer) load(ctx context.Context, logger *slog.Logger, res *Result, m *Model) error {
	var err error

	res.Departments, err = repositories.UpsertChunked(ctx, t.db, m.Departments,
		[]string{"department_key"}, repositories.DepartmentUpdateColumns, t.chunkOptions(logger, models.TableDimDepartment))
	t.metrics.RecordLoaded(models.TableDimDepartment, res.Departments)
	if err != nil {
		return typederrors.NewLoadError(err, models.TableDimDepartment, res.BatchID, "upsert")
	}

	res.Employees, err = repositories.UpsertChunked(ctx, t.db, m.Employees,
		[]string{"employee_key"}, repositories.EmployeeUpdateColumns, t.chunkOptions(logger, models.TableDimEmployee))
	t.metrics.RecordLoaded(models.TableDimEmployee, res.Employees)
	if err != nil {
		return typederrors.NewLoadError(err, models.TableDimEmployee, res.BatchID, "upsert")
	}

	res.Dates, err = repositories.InsertIgnoreChunked(ctx, t.db, m.Dates,
		[]string{"work_date"}, t.chunkOptions(logger, models.TableDimDate))
	t.metrics.RecordLoaded(models.TableDimDate, res.Dates)
	if err != nil {
		return typederrors.NewLoadError(err, models.TableDimDate, res.BatchID, "insert new dates")
	}

	res.Facts, err = repositories.UpsertChunked(ctx, t.db, m.Facts,
		[]string{"id"}, repositories.FactUpdateColumns, t.chunkOptions(logger, models.TableFactTimesheet))
	t.metrics.RecordLoaded(models.TableFactTimesheet, res.Facts)
	if err != nil {
		return typederrors.NewLoadError(err, models.TableFactTimesheet, res.BatchID, "upsert")
	}

	prunes := []struct {
		table, key string
		max        int
	}{
		{models.TableFactTimesheet, "id", len(m.Facts)},
		{models.TableDimEmployee, "employee_key", len(m.Employees)},
		{models.TableDimDepartment, "department_key", len(m.Departments)},
	}
	for _, p := range prunes {
		var n int64
		err := retry.Do(ctx, t.retry, func(ctx context.Context) error {
			var err error
			n, err = repositories.DeleteKeysAbove(ctx, t.db, p.table, p.key, int64(p.max))
			return err
		})
		if err != nil {
			return typederrors.NewLoadError(err, p.table, res.BatchID, "prune keys above %d", p.max)
		}
		if n > 0 {
			logger.Info("pruned stale rows", "table", p.table, "rows", n)
		}
		res.Pruned += n
	}

	logger.Info("warehouse load complete",
		"departments", res.Departments,
		"employees", res.Employees,
		"dates", res.Dates,
		"facts", res.Facts)
	return nil
}

func (t *Transformer) chunkOptions(logger *slog.Logger, table string) repositories.ChunkOptions {
	return repositories.ChunkOptions{
		Size:   t.cfg.ChunkSize,
		Retry:  t.retry,
		Logger: logger,
		Table:  table,
		OnCommit: func(int, int) {
			t.metrics.RecordChunk(table)
		},
	}
}

// audited wraps a stage body with its etl_run row and stage metrics.
func (t *Transformer) audited(ctx context.Context, res *Result, stage string, body func(context.Context, *slog.Logger) error) error {
	logger := t.logger.With("batch_id", res.BatchID, "stage", stage)
	started := t.now()
	logger.Info("stage started")

	run := &models.ETLRun{
		BatchID:   res.BatchID,
		Stage:     stage,
		StartTime: started.UTC(),
		Status:    models.RunStatusRunning,
	}
	if err := repositories.CreateRun(ctx, t.db, run); err != nil {
		return typederrors.NewLoadError(err, stage, res.BatchID, "record run")
	}

	err := body(ctx, logger)

	status := models.RunStatusSuccess
	if res.Skipped {
		status = models.RunStatusSkipped
	}
	run.RowsWritten = res.Departments + res.Employees + res.Dates + res.Facts
	run.RowsSkipped = res.Orphans
	run.Finish(t.now().UTC(), status, err)
	if uerr := repositories.UpdateRun(context.WithoutCancel(ctx), t.db, run); uerr != nil {
		logger.Warn("failed to record run outcome", "error", uerr)
	}
	t.metrics.RecordStage(stage, started, err)

	if err != nil {
		logger.Error("stage failed", "error", err)
		return err
	}
	logger.Info("stage finished", "status", status, "duration", run.Duration())
	return nil
}
