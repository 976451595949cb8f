package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DimDepartment is the department dimension.
type DimDepartment struct {
	bun.BaseModel `bun:"table:dim_department,alias:dd"`

	DepartmentKey  int64     `bun:"department_key,pk" json:"department_key"`
	DepartmentID   *string   `bun:"department_id" json:"department_id,omitempty"`
	DepartmentName string    `bun:"department_name,notnull" json:"department_name"`
	IsActive       int       `bun:"is_active,notnull" json:"is_active"`
	StartDate      time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate        time.Time `bun:"end_date,notnull" json:"end_date"`
}

// DimEmployee is the employee dimension.
type DimEmployee struct {
	bun.BaseModel `bun:"table:dim_employee,alias:de"`

	EmployeeKey     int64      `bun:"employee_key,pk" json:"employee_key"`
	EmployeeID      string     `bun:"employee_id,notnull" json:"employee_id"`
	FirstName       string     `bun:"first_name,notnull" json:"first_name"`
	LastName        string     `bun:"last_name,notnull" json:"last_name"`
	JobTitle        string     `bun:"job_title,notnull" json:"job_title"`
	DepartmentKey   *int64     `bun:"department_key" json:"department_key,omitempty"`
	HireDate        *time.Time `bun:"hire_date" json:"hire_date,omitempty"`
	TerminationDate time.Time  `bun:"termination_date,notnull" json:"termination_date"`
	IsActive        int        `bun:"is_active,notnull" json:"is_active"`
	StartDate       time.Time  `bun:"start_date,notnull" json:"start_date"`
	EndDate         time.Time  `bun:"end_date,notnull" json:"end_date"`
}

// FullName joins first and last name, skipping blanks.
func (e *DimEmployee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}

// DimDate is the calendar dimension. DateID is assigned by the database on
// first insert and never changes.
type DimDate struct {
	bun.BaseModel `bun:"table:dim_date,alias:dt"`

	DateID   int64     `bun:"date_id,pk,autoincrement" json:"date_id"`
	WorkDate time.Time `bun:"work_date,notnull,unique" json:"work_date"`
	Year     int       `bun:"year,notnull" json:"year"`
	Month    int       `bun:"month,notnull" json:"month"`
	Day      int       `bun:"day,notnull" json:"day"`
	Week     int       `bun:"week,notnull" json:"week"`
	Quarter  int       `bun:"quarter,notnull" json:"quarter"`
}

// NewDimDate derives calendar attributes for a day. Week is the ISO week.
func NewDimDate(day time.Time) *DimDate {
	_, week := day.ISOWeek()
	return &DimDate{
		WorkDate: day,
		Year:     day.Year(),
		Month:    int(day.Month()),
		Day:      day.Day(),
		Week:     week,
		Quarter:  (int(day.Month())-1)/3 + 1,
	}
}

// FactTimesheet is one punch pair resolved to dimension keys.
type FactTimesheet struct {
	bun.BaseModel `bun:"table:fact_timesheet,alias:ft"`

	ID              int64      `bun:"id,pk" json:"id"`
	EmployeeKey     int64      `bun:"employee_key,notnull" json:"employee_key"`
	DepartmentKey   *int64     `bun:"department_key" json:"department_key,omitempty"`
	WorkDate        *time.Time `bun:"work_date" json:"work_date,omitempty"`
	PunchIn         *time.Time `bun:"punch_in" json:"punch_in,omitempty"`
	PunchOut        *time.Time `bun:"punch_out" json:"punch_out,omitempty"`
	ScheduledStart  string     `bun:"scheduled_start,notnull" json:"scheduled_start"`
	ScheduledEnd    string     `bun:"scheduled_end,notnull" json:"scheduled_end"`
	HoursWorked     float64    `bun:"hours_worked,notnull" json:"hours_worked"`
	PayCode         string     `bun:"pay_code,notnull" json:"pay_code"`
	PunchInComment  string     `bun:"punch_in_comment,notnull" json:"punch_in_comment"`
	PunchOutComment string     `bun:"punch_out_comment,notnull" json:"punch_out_comment"`
}

// Warehouse table names.
const (
	TableDimDepartment = "dim_department"
	TableDimEmployee   = "dim_employee"
	TableDimDate       = "dim_date"
	TableFactTimesheet = "fact_timesheet"
)

// WarehouseTables lists the dimensional tables in load order.
var WarehouseTables = []string{TableDimDepartment, TableDimEmployee, TableDimDate, TableFactTimesheet}
