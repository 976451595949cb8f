package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoziy/workforce/warehouse/internal/migrations"
	"github.com/mkoziy/workforce/warehouse/internal/pipeline"
	"github.com/mkoziy/workforce/warehouse/internal/quality"
	"github.com/mkoziy/workforce/warehouse/internal/repositories"
	"github.com/mkoziy/workforce/warehouse/internal/staging"
	"github.com/mkoziy/workforce/warehouse/internal/warehouse"
	"github.com/mkoziy/workforce/warehouse/internal/watermark"
)

const recentRuns = 10

func migrateCommand(a *app) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rollback {
				return migrations.Rollback(cmd.Context(), a.db, a.logger)
			}
			return migrations.RunMigrations(cmd.Context(), a.db, a.logger)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back the last migration group")
	return cmd
}

func landCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "land",
		Short: "Land new employee and timesheet files into the raw tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.loader().Run(cmd.Context(), a.settings.Landing.Dir)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "employee files: %d (%d rows)\n", len(res.EmployeeFiles), res.Employees)
			fmt.Fprintf(w, "timesheet files: %d (%d rows)\n", len(res.TimesheetFiles), res.Timesheets)
			fmt.Fprintf(w, "skipped files: %d, warnings: %d\n", len(res.SkippedFiles), res.Warnings)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Directory holding the source files")
	return cmd
}

func stageCommand(a *app) *cobra.Command {
	var noValidate bool
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Clean raw rows newer than the watermarks into staging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.stager(a.settings.Staging.Validate && !noValidate).Run(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "batch %s\n", res.BatchID)
			printTable(w, res.Employees)
			printTable(w, res.Timesheets)
			printReport(w, res.Report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip the staging quality suite")
	return cmd
}

func transformCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Rebuild the dimensional model from staging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.transformer().Run(cmd.Context())
			if res != nil {
				printTransform(cmd.OutOrStdout(), res)
			}
			return err
		},
	}
}

func refreshFactsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-facts",
		Short: "Truncate and reload the timesheet fact table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.transformer().RefreshFacts(cmd.Context())
			if res != nil {
				printTransform(cmd.OutOrStdout(), res)
			}
			return err
		},
	}
}

func validateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run staging and post-load quality checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stagingReport, err := a.stager(true).Validate(ctx)
			if err != nil {
				return err
			}
			postLoad := a.runner().Validate(ctx)

			w := cmd.OutOrStdout()
			printReport(w, stagingReport)
			printReport(w, postLoad)
			if stagingReport.Blocking() || postLoad.Blocking() {
				return quality.ErrValidationFailed
			}
			return nil
		},
	}
}

func runCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Land, stage, transform and validate in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.runner().Run(cmd.Context(), a.settings.Landing.Dir)
			w := cmd.OutOrStdout()
			if res.Staging != nil {
				fmt.Fprintf(w, "batch %s\n", res.Staging.BatchID)
				printTable(w, res.Staging.Employees)
				printTable(w, res.Staging.Timesheets)
			}
			if res.Transform != nil {
				printTransform(w, res.Transform)
			}
			for _, r := range res.Reports() {
				printReport(w, r)
			}
			if errors.Is(err, pipeline.ErrValidationFailed) {
				return fmt.Errorf("run aborted: %w", err)
			}
			return err
		},
	}
	cmd.Flags().String("dir", "", "Directory holding the source files")
	cmd.Flags().Bool("abort-on-validation-failure", false, "Stop when a quality suite has blocking failures")
	return cmd
}

func statusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show watermarks and recent stage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			marks, err := watermark.NewStore(a.db).All(ctx)
			if err != nil {
				return err
			}
			runs, err := repositories.ListRecentRuns(ctx, a.db, recentRuns)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tWATERMARK\tUPDATED")
			for _, m := range marks {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.TableName,
					m.LastProcessedAt.Format(time.RFC3339Nano), m.UpdatedAt.Format(time.DateTime))
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "BATCH\tSTAGE\tSTATUS\tREAD\tWRITTEN\tSKIPPED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n", r.BatchID, r.Stage, r.Status,
					r.RowsRead, r.RowsWritten, r.RowsSkipped, r.Duration().Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}
}

func printTable(w io.Writer, r *staging.TableResult) {
	if r == nil {
		return
	}
	if r.Skipped {
		fmt.Fprintf(w, "%s: no new rows\n", r.Table)
		return
	}
	fmt.Fprintf(w, "%s: read %d, staged %d, orphans %d, watermark %s\n",
		r.Table, r.RowsRead, r.RowsStaged, r.Orphans, r.Watermark.Format(time.RFC3339Nano))
}

func printTransform(w io.Writer, r *warehouse.Result) {
	if r.Skipped {
		fmt.Fprintln(w, "transform: staging is empty")
		return
	}
	fmt.Fprintf(w, "departments %d, employees %d, dates %d, facts %d, orphans %d, pruned %d\n",
		r.Departments, r.Employees, r.Dates, r.Facts, r.Orphans, r.Pruned)
	printReport(w, r.Report)
}

func printReport(w io.Writer, r *quality.Report) {
	if r == nil {
		return
	}
	fmt.Fprint(w, r.Summary())
}
