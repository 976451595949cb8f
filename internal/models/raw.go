package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RawEmployee is one landed employee row. Source columns are kept as text.
type RawEmployee struct {
	bun.BaseModel `bun:"table:raw_employee,alias:re"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	ClientEmployeeID *string   `bun:"client_employee_id" json:"client_employee_id"`
	FirstName        *string   `bun:"first_name" json:"first_name"`
	LastName         *string   `bun:"last_name" json:"last_name"`
	JobTitle         *string   `bun:"job_title" json:"job_title"`
	DepartmentID     *string   `bun:"department_id" json:"department_id"`
	DepartmentName   *string   `bun:"department_name" json:"department_name"`
	HireDate         *string   `bun:"hire_date" json:"hire_date"`
	TermDate         *string   `bun:"term_date" json:"term_date"`
	SourceFile       string    `bun:"source_file,notnull" json:"source_file"`
	LoadedAt         time.Time `bun:"loaded_at,notnull" json:"loaded_at"`
}

// RawTimesheet is one landed punch row. Source columns are kept as text.
type RawTimesheet struct {
	bun.BaseModel `bun:"table:raw_timesheet,alias:rt"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	ClientEmployeeID *string   `bun:"client_employee_id" json:"client_employee_id"`
	PunchApplyDate   *string   `bun:"punch_apply_date" json:"punch_apply_date"`
	PunchInDatetime  *string   `bun:"punch_in_datetime" json:"punch_in_datetime"`
	PunchOutDatetime *string   `bun:"punch_out_datetime" json:"punch_out_datetime"`
	HoursWorked      *string   `bun:"hours_worked" json:"hours_worked"`
	PayCode          *string   `bun:"pay_code" json:"pay_code"`
	PunchInComment   *string   `bun:"punch_in_comment" json:"punch_in_comment"`
	PunchOutComment  *string   `bun:"punch_out_comment" json:"punch_out_comment"`
	SourceFile       string    `bun:"source_file,notnull" json:"source_file"`
	LoadedAt         time.Time `bun:"loaded_at,notnull" json:"loaded_at"`
}

// Raw source table names, also used as watermark keys.
const (
	TableRawEmployee  = "raw_employee"
	TableRawTimesheet = "raw_timesheet"
)

// RawEmployeeColumns are the source columns a landed employee file must carry.
var RawEmployeeColumns = []string{
	"client_employee_id", "first_name", "last_name", "job_title",
	"department_id", "department_name", "hire_date", "term_date",
}

// RawTimesheetColumns are the source columns a landed timesheet file must carry.
var RawTimesheetColumns = []string{
	"client_employee_id", "punch_apply_date", "punch_in_datetime", "punch_out_datetime",
	"hours_worked", "pay_code", "punch_in_comment", "punch_out_comment",
}
