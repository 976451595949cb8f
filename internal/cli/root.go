// Package cli wires settings and pipeline components into cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/config"
	"github.com/mkoziy/workforce/warehouse/internal/database"
	"github.com/mkoziy/workforce/warehouse/internal/landing"
	"github.com/mkoziy/workforce/warehouse/internal/logging"
	"github.com/mkoziy/workforce/warehouse/internal/metrics"
	"github.com/mkoziy/workforce/warehouse/internal/pipeline"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
	"github.com/mkoziy/workforce/warehouse/internal/staging"
	"github.com/mkoziy/workforce/warehouse/internal/warehouse"
)

// app is the state shared by subcommands once the root pre-run has loaded
// settings and opened the database.
type app struct {
	configPath string

	settings *config.Settings
	logger   *slog.Logger
	db       *bun.DB
	metrics  *metrics.PipelineMetrics
	suites   map[string]quality.Suite
}

// Execute runs the command line in args and releases the database handle
// whatever the outcome.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, a := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "warehouse",
		Short:         "Incremental employee and timesheet warehouse loader",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.metrics.WriteTextfile(a.settings.Metrics.Textfile); err != nil {
				return fmt.Errorf("write metrics textfile: %w", err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	pf.String("db-driver", "", "Database driver: sqlite or postgres")
	pf.String("dsn", "", "Database DSN")
	pf.Bool("db-debug", false, "Log every SQL query")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("quality-rules", "", "YAML file overriding quality rule suites")
	pf.String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		migrateCommand(a),
		landCommand(a),
		stageCommand(a),
		transformCommand(a),
		refreshFactsCommand(a),
		validateCommand(a),
		runCommand(a),
		statusCommand(a),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = settings

	logger, err := logging.NewWithWriter(settings.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger

	suites, err := quality.LoadSuitesFile(settings.Quality.RulesFile)
	if err != nil {
		return err
	}
	a.suites = suites

	m, err := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m

	db, err := database.Open(cmd.Context(), settings.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *app) loader() *landing.Loader {
	return landing.NewLoader(a.db, a.settings.Landing, a.settings.Retry, a.logger, a.metrics)
}

func (a *app) stager(validate bool) *staging.Stager {
	cfg := a.settings.Staging
	cfg.Validate = validate
	return staging.NewStager(a.db, cfg, a.settings.Retry, a.logger,
		staging.WithSuite(a.suites[quality.SuiteStaging]),
		staging.WithMetrics(a.metrics))
}

func (a *app) transformer() *warehouse.Transformer {
	return warehouse.NewTransformer(a.db, a.settings.Warehouse, a.settings.Retry, a.logger,
		warehouse.WithSuite(a.suites[quality.SuiteWarehouse]),
		warehouse.WithMetrics(a.metrics))
}

func (a *app) runner() *pipeline.Runner {
	opts := []pipeline.Option{pipeline.WithMetrics(a.metrics)}
	if len(a.settings.Sources.URLs) > 0 {
		opts = append(opts, pipeline.WithExtractor(landing.NewHTTPExtractor(a.settings.Sources, a.logger)))
	}
	return pipeline.NewRunner(a.db, a.settings.Pipeline, a.loader(), a.stager(a.settings.Staging.Validate), a.transformer(), a.logger, opts...)
}
