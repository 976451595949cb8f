// Package pipeline runs the end-to-end load: land, stage, transform and
// post-load validation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/landing"
	"github.com/mkoziy/workforce/warehouse/internal/metrics"
	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
	"github.com/mkoziy/workforce/warehouse/internal/repositories"
	"github.com/mkoziy/workforce/warehouse/internal/staging"
	"github.com/mkoziy/workforce/warehouse/internal/warehouse"
)

// ErrValidationFailed is returned when a blocking quality report stops the
// run and AbortOnValidationFailure is set.
var ErrValidationFailed = quality.ErrValidationFailed

// Config controls the orchestration.
type Config struct {
	AbortOnValidationFailure bool `yaml:"abort_on_validation_failure" json:"abort_on_validation_failure" mapstructure:"abort_on_validation_failure"`
}

// Result collects the outcome of every stage that ran.
type Result struct {
	Landing   *landing.Result
	Staging   *staging.Result
	Transform *warehouse.Result
	PostLoad  *quality.Report
}

// Reports returns every quality report produced by the run, in stage order.
func (r *Result) Reports() []*quality.Report {
	var out []*quality.Report
	if r.Staging != nil && r.Staging.Report != nil {
		out = append(out, r.Staging.Report)
	}
	if r.Transform != nil && r.Transform.Report != nil {
		out = append(out, r.Transform.Report)
	}
	if r.PostLoad != nil {
		out = append(out, r.PostLoad)
	}
	return out
}

// Runner wires the stage components together.
type Runner struct {
	db          *bun.DB
	cfg         Config
	extractor   landing.Extractor
	loader      *landing.Loader
	stager      *staging.Stager
	transformer *warehouse.Transformer
	logger      *slog.Logger
	metrics     *metrics.PipelineMetrics
}

// Option customizes a Runner.
type Option func(*Runner)

// WithExtractor fetches source files before landing.
func WithExtractor(e landing.Extractor) Option {
	return func(r *Runner) { r.extractor = e }
}

// WithMetrics records stage metrics on m.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner around already configured components.
func NewRunner(db *bun.DB, cfg Config, loader *landing.Loader, stager *staging.Stager, transformer *warehouse.Transformer, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Runner{
		db:          db,
		cfg:         cfg,
		loader:      loader,
		stager:      stager,
		transformer: transformer,
		logger:      logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run lands files from dir and carries them through to the warehouse.
// Quality failures are logged and returned in the result; they stop the
// run only when AbortOnValidationFailure is set.
func (r *Runner) Run(ctx context.Context, dir string) (*Result, error) {
	started := time.Now()
	res := &Result{}
	r.logger.Info("pipeline started", "dir", dir)

	if r.extractor != nil {
		if err := r.extractor.Extract(ctx, dir); err != nil {
			return res, fmt.Errorf("extract: %w", err)
		}
	}

	landStarted := time.Now()
	landed, err := r.loader.Run(ctx, dir)
	r.metrics.RecordStage(models.StageLand, landStarted, err)
	res.Landing = landed
	if err != nil {
		return res, fmt.Errorf("land: %w", err)
	}

	staged, err := r.stager.Run(ctx)
	res.Staging = staged
	if err != nil {
		return res, fmt.Errorf("stage: %w", err)
	}
	if err := r.gate(staged.Report); err != nil {
		return res, fmt.Errorf("stage: %w", err)
	}

	transformed, err := r.transformer.Run(ctx)
	res.Transform = transformed
	if err != nil {
		return res, fmt.Errorf("transform: %w", err)
	}

	res.PostLoad = r.Validate(ctx)
	if err := r.gate(res.PostLoad); err != nil {
		return res, fmt.Errorf("post-load: %w", err)
	}

	r.logger.Info("pipeline complete",
		"batch_id", staged.BatchID,
		"landed_rows", landed.Employees+landed.Timesheets,
		"staged_rows", staged.Employees.RowsStaged+staged.Timesheets.RowsStaged,
		"facts", transformed.Facts,
		"duration", time.Since(started))
	return res, nil
}

// Validate checks every warehouse table holds rows.
func (r *Runner) Validate(ctx context.Context) *quality.Report {
	started := time.Now()
	report := quality.ValidatePostLoad(ctx, repositories.TableCounter{DB: r.db}, models.WarehouseTables, r.logger)
	for _, res := range report.Results {
		r.metrics.RecordQualityResult(report.Suite, res.Passed)
	}
	var err error
	if !report.Passed() {
		err = ErrValidationFailed
	}
	r.metrics.RecordStage(models.StagePostLoadQuality, started, err)
	return report
}

func (r *Runner) gate(report *quality.Report) error {
	if report == nil || !report.Blocking() {
		return nil
	}
	if r.cfg.AbortOnValidationFailure {
		return fmt.Errorf("%s suite: %d failed checks: %w", report.Suite, report.FailedCount(), ErrValidationFailed)
	}
	r.logger.Warn("quality checks failed, continuing", "suite", report.Suite, "failed", report.FailedCount())
	return nil
}
