package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// StagingEmployee is a cleaned employee row. Rows are append-only and
// distinguished across runs by ETLBatchID.
type StagingEmployee struct {
	bun.BaseModel `bun:"table:stg_employee,alias:se"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	EmployeeID      string     `bun:"employee_id,notnull" json:"employee_id"`
	FirstName       string     `bun:"first_name,notnull" json:"first_name"`
	LastName        string     `bun:"last_name,notnull" json:"last_name"`
	JobTitle        string     `bun:"job_title,notnull" json:"job_title"`
	DepartmentID    *string    `bun:"department_id" json:"department_id,omitempty"`
	DepartmentName  string     `bun:"department_name,notnull" json:"department_name"`
	HireDate        *time.Time `bun:"hire_date" json:"hire_date,omitempty"`
	TerminationDate time.Time  `bun:"termination_date,notnull" json:"termination_date"`
	IsActive        int        `bun:"is_active,notnull" json:"is_active"`
	SourceFile      *string    `bun:"source_file" json:"source_file,omitempty"`
	RawLoadedAt     time.Time  `bun:"raw_loaded_at,notnull" json:"raw_loaded_at"`
	ETLBatchID      string     `bun:"etl_batch_id,notnull" json:"etl_batch_id"`
	ProcessedAt     time.Time  `bun:"processed_at,notnull" json:"processed_at"`
}

// Validate checks the fields the warehouse relies on.
func (e *StagingEmployee) Validate() error {
	if e.EmployeeID == "" {
		return errors.New("employee_id is required")
	}
	if e.TerminationDate.IsZero() {
		return errors.New("termination_date must be set")
	}
	if e.ETLBatchID == "" {
		return errors.New("etl_batch_id is required")
	}
	return nil
}

// StagingTimesheet is a cleaned punch row with categorized comments.
type StagingTimesheet struct {
	bun.BaseModel `bun:"table:stg_timesheet,alias:st"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	EmployeeID      string     `bun:"employee_id,notnull" json:"employee_id"`
	WorkDate        *time.Time `bun:"work_date" json:"work_date,omitempty"`
	PunchIn         *time.Time `bun:"punch_in" json:"punch_in,omitempty"`
	PunchOut        *time.Time `bun:"punch_out" json:"punch_out,omitempty"`
	HoursWorked     float64    `bun:"hours_worked,notnull" json:"hours_worked"`
	PayCode         string     `bun:"pay_code,notnull" json:"pay_code"`
	PunchInComment  string     `bun:"punch_in_comment,notnull" json:"punch_in_comment"`
	PunchOutComment string     `bun:"punch_out_comment,notnull" json:"punch_out_comment"`
	SourceFile      *string    `bun:"source_file" json:"source_file,omitempty"`
	RawLoadedAt     time.Time  `bun:"raw_loaded_at,notnull" json:"raw_loaded_at"`
	ETLBatchID      string     `bun:"etl_batch_id,notnull" json:"etl_batch_id"`
	ProcessedAt     time.Time  `bun:"processed_at,notnull" json:"processed_at"`
}

// Validate checks the fields the warehouse relies on.
func (t *StagingTimesheet) Validate() error {
	if t.EmployeeID == "" {
		return errors.New("employee_id is required")
	}
	if t.ETLBatchID == "" {
		return errors.New("etl_batch_id is required")
	}
	return nil
}

// Staging table names.
const (
	TableStagingEmployee  = "stg_employee"
	TableStagingTimesheet = "stg_timesheet"
)
