package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RunStatus is the outcome of one pipeline stage run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusSkipped RunStatus = "skipped"
	RunStatusFailed  RunStatus = "failed"
)

// Stage names recorded in ETLRun.
const (
	StageLand            = "land"
	StageEmployees       = "stage_employee"
	StageTimesheets      = "stage_timesheet"
	StageTransform       = "transform"
	StageRefreshFacts    = "refresh_facts"
	StagePostLoadQuality = "post_load_validation"
)

// ETLRun is the audit row for one stage of one batch.
type ETLRun struct {
	bun.BaseModel `bun:"table:etl_run,alias:er"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	BatchID     string     `bun:"batch_id,notnull,unique:etl_run_batch_stage" json:"batch_id"`
	Stage       string     `bun:"stage,notnull,unique:etl_run_batch_stage" json:"stage"`
	StartTime   time.Time  `bun:"start_time,notnull" json:"start_time"`
	EndTime     *time.Time `bun:"end_time" json:"end_time,omitempty"`
	Status      RunStatus  `bun:"status,notnull" json:"status"`
	RowsRead    int        `bun:"rows_read,notnull,default:0" json:"rows_read"`
	RowsWritten int        `bun:"rows_written,notnull,default:0" json:"rows_written"`
	RowsSkipped int        `bun:"rows_skipped,notnull,default:0" json:"rows_skipped"`
	ErrorLog    *string    `bun:"error_log" json:"error_log,omitempty"`
	Watermark   *time.Time `bun:"watermark" json:"watermark,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Finish stamps the end time and final status. A non-nil err marks the run
// failed regardless of status.
func (r *ETLRun) Finish(now time.Time, status RunStatus, err error) {
	r.EndTime = &now
	r.Status = status
	if err != nil {
		msg := err.Error()
		r.ErrorLog = &msg
		r.Status = RunStatusFailed
	}
}

// Duration is the elapsed time of a finished run, zero while running.
func (r *ETLRun) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}
