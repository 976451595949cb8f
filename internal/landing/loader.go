package landing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/metrics"
	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/repositories"
	"github.com/mkoziy/workforce/warehouse/internal/retry"
	"github.com/mkoziy/workforce/warehouse/internal/typederrors"
)

// Extractor places source files into the landing directory before they are
// loaded, for example by downloading them.
type Extractor interface {
	Extract(ctx context.Context, dir string) error
}

// Result summarizes one landing run.
type Result struct {
	EmployeeFiles  []string
	TimesheetFiles []string
	SkippedFiles   []string
	Employees      int
	Timesheets     int
	Warnings       int
}

// Loader lands raw employee and timesheet files into the raw tables.
type Loader struct {
	db      *bun.DB
	cfg     Config
	retry   retry.Config
	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
	now     func() time.Time
}

// NewLoader creates a landing loader. A nil logger discards output and nil
// metrics are ignored.
func NewLoader(db *bun.DB, cfg Config, retryCfg retry.Config, logger *slog.Logger, m *metrics.PipelineMetrics) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		db:      db,
		cfg:     applyDefaults(cfg),
		retry:   retry.ApplyDefaults(retryCfg),
		logger:  logger.With("component", "landing"),
		metrics: m,
		now:     time.Now,
	}
}

// Run lands every matching file in dir that has not been landed before.
// A file counts as landed once its completion marker exists; rows left by
// an earlier partial attempt are removed and the file is landed again.
// An empty dir falls back to the configured directory.
func (l *Loader) Run(ctx context.Context, dir string) (*Result, error) {
	if dir == "" {
		dir = l.cfg.Dir
	}
	l.logger.Info("landing source files", "dir", dir)

	employees, timesheets, err := l.discover(dir)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 && len(timesheets) == 0 {
		return nil, typederrors.NewStructuralError(nil, "no %s*%s or %s*%s files in %s",
			l.cfg.EmployeePrefix, l.cfg.Extension, l.cfg.TimesheetPrefix, l.cfg.Extension, dir)
	}

	res := &Result{}

	res.EmployeeFiles, res.Employees, err = l.landFiles(ctx, res, models.TableRawEmployee, employees, l.landEmployees)
	if err != nil {
		return res, err
	}
	res.TimesheetFiles, res.Timesheets, err = l.landFiles(ctx, res, models.TableRawTimesheet, timesheets, l.landTimesheets)
	if err != nil {
		return res, err
	}

	l.logger.Info("landing complete",
		"employee_rows", res.Employees,
		"timesheet_rows", res.Timesheets,
		"files", len(res.EmployeeFiles)+len(res.TimesheetFiles),
		"skipped", len(res.SkippedFiles))
	return res, nil
}

type landFunc func(ctx context.Context, path string) (rows, warnings int, err error)

// landFiles lands each path into table unless it is already complete.
func (l *Loader) landFiles(ctx context.Context, res *Result, table string, paths []string, land landFunc) ([]string, int, error) {
	done, err := repositories.LandedFiles(ctx, l.db, table)
	if err != nil {
		return nil, 0, fmt.Errorf("list landed %s files: %w", table, err)
	}
	present, err := repositories.LoadedSourceFiles(ctx, l.db, table)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s source files: %w", table, err)
	}

	var files []string
	total := 0
	for _, path := range paths {
		name := filepath.Base(path)
		if _, ok := done[name]; ok {
			l.logger.Info("file already landed, skipping", "file", name, "table", table)
			res.SkippedFiles = append(res.SkippedFiles, name)
			continue
		}
		if _, ok := present[name]; ok {
			if err := l.clearPartial(ctx, table, name); err != nil {
				return files, total, err
			}
		}

		n, warnings, err := land(ctx, path)
		if err != nil {
			return files, total, err
		}
		files = append(files, name)
		total += n
		res.Warnings += warnings
	}
	return files, total, nil
}

func (l *Loader) clearPartial(ctx context.Context, table, name string) error {
	var removed int64
	err := retry.Do(ctx, l.retry, func(ctx context.Context) error {
		var err error
		removed, err = repositories.DeleteSourceFileRows(ctx, l.db, table, name)
		return err
	})
	if err != nil {
		return typederrors.NewLoadError(err, table, "", "clear partial %s", name)
	}
	l.logger.Warn("file was partially landed, landing again", "file", name, "table", table, "rows_removed", removed)
	return nil
}

func (l *Loader) discover(dir string) (employees, timesheets []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, typederrors.NewExtractionError(err, dir, "read landing directory")
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(l.cfg.Extension)) {
			continue
		}
		switch {
		case strings.HasPrefix(name, l.cfg.EmployeePrefix):
			employees = append(employees, filepath.Join(dir, name))
		case strings.HasPrefix(name, l.cfg.TimesheetPrefix):
			timesheets = append(timesheets, filepath.Join(dir, name))
		}
	}
	sort.Strings(employees)
	sort.Strings(timesheets)
	return employees, timesheets, nil
}

func (l *Loader) read(path string, required []string) (*table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, typederrors.NewExtractionError(err, path, "read source file")
	}
	t, err := parse(data, l.cfg.Delimiter)
	if err != nil {
		return nil, typederrors.NewExtractionError(err, path, "parse source file")
	}
	if missing := t.missing(required); len(missing) > 0 {
		return nil, typederrors.NewStructuralError(nil, "%s: missing required columns: %s",
			filepath.Base(path), strings.Join(missing, ", "))
	}
	for _, w := range t.warnings {
		l.logger.Warn("source row issue", "file", filepath.Base(path), "issue", w)
	}
	return t, nil
}

func (l *Loader) loadedAt() time.Time {
	return l.now().UTC().Truncate(time.Microsecond)
}

func (l *Loader) chunkOptions(table string) repositories.ChunkOptions {
	return repositories.ChunkOptions{
		Size:   l.cfg.ChunkSize,
		Retry:  l.retry,
		Logger: l.logger,
		Table:  table,
		OnCommit: func(int, int) {
			l.metrics.RecordChunk(table)
		},
	}
}

func (l *Loader) landEmployees(ctx context.Context, path string) (int, int, error) {
	t, err := l.read(path, models.RawEmployeeColumns)
	if err != nil {
		return 0, 0, err
	}
	name := filepath.Base(path)
	loadedAt := l.loadedAt()
	rows := mapEmployees(t, name, loadedAt)

	n, err := landRows(ctx, l, models.TableRawEmployee, name, loadedAt, rows)
	l.metrics.RecordLanded(models.TableRawEmployee, n)
	if err != nil {
		return n, len(t.warnings), typederrors.NewLoadError(err, models.TableRawEmployee, "", "land %s", name)
	}
	l.logger.Info("file landed", "file", name, "table", models.TableRawEmployee, "rows", n, "encoding", t.encoding)
	return n, len(t.warnings), nil
}

func (l *Loader) landTimesheets(ctx context.Context, path string) (int, int, error) {
	t, err := l.read(path, models.RawTimesheetColumns)
	if err != nil {
		return 0, 0, err
	}
	name := filepath.Base(path)
	loadedAt := l.loadedAt()
	rows := mapTimesheets(t, name, loadedAt)

	n, err := landRows(ctx, l, models.TableRawTimesheet, name, loadedAt, rows)
	l.metrics.RecordLanded(models.TableRawTimesheet, n)
	if err != nil {
		return n, len(t.warnings), typederrors.NewLoadError(err, models.TableRawTimesheet, "", "land %s", name)
	}
	l.logger.Info("file landed", "file", name, "table", models.TableRawTimesheet, "rows", n, "encoding", t.encoding)
	return n, len(t.warnings), nil
}

// landRows inserts one file's rows chunk by chunk and writes its completion
// marker in the last chunk's transaction. A file without data rows is
// marked directly.
func landRows[T any](ctx context.Context, l *Loader, table, name string, loadedAt time.Time, rows []T) (int, error) {
	mark := func(ctx context.Context, db bun.IDB) error {
		return repositories.MarkLanded(ctx, db, &models.LandedFile{
			TableName:  table,
			SourceFile: name,
			RowCount:   len(rows),
			LoadedAt:   loadedAt,
			LandedAt:   l.now().UTC(),
		})
	}

	if len(rows) == 0 {
		return 0, retry.Do(ctx, l.retry, func(ctx context.Context) error {
			return mark(ctx, l.db)
		})
	}

	opts := l.chunkOptions(table)
	opts.Final = func(ctx context.Context, tx bun.Tx) error {
		return mark(ctx, tx)
	}
	return repositories.InsertChunked(ctx, l.db, rows, opts)
}
