package staging

import (
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/classify"
	"github.com/mkoziy/workforce/warehouse/internal/models"
	"github.com/mkoziy/workforce/warehouse/internal/normalize"
)

// Defaults applied to null source values.
const (
	DefaultEmployeeID     = "UNKNOWN"
	DefaultJobTitle       = "Unknown"
	DefaultDepartmentName = "Unknown"
)

// CleanEmployee maps a raw employee row onto its staging form. It never
// fails: unparseable values fall back to their column default.
func CleanEmployee(r *models.RawEmployee, batchID string, processedAt time.Time) *models.StagingEmployee {
	term := normalize.DateOr(r.TermDate, normalize.Sentinel)
	file := r.SourceFile

	return &models.StagingEmployee{
		EmployeeID:      normalize.String(r.ClientEmployeeID, DefaultEmployeeID),
		FirstName:       normalize.String(r.FirstName, ""),
		LastName:        normalize.String(r.LastName, ""),
		JobTitle:        normalize.String(r.JobTitle, DefaultJobTitle),
		DepartmentID:    normalize.NullableString(r.DepartmentID),
		DepartmentName:  normalize.String(r.DepartmentName, DefaultDepartmentName),
		HireDate:        normalize.Date(r.HireDate),
		TerminationDate: term,
		IsActive:        normalize.ActiveFlag(term),
		SourceFile:      &file,
		RawLoadedAt:     r.LoadedAt.UTC(),
		ETLBatchID:      batchID,
		ProcessedAt:     processedAt,
	}
}

// CleanTimesheet maps a raw punch row onto its staging form, classifying
// both comment fields. A nil classifier uses the default taxonomy.
func CleanTimesheet(r *models.RawTimesheet, c *classify.Classifier, batchID string, processedAt time.Time) *models.StagingTimesheet {
	if c == nil {
		c = classify.Default()
	}
	file := r.SourceFile

	return &models.StagingTimesheet{
		EmployeeID:      normalize.String(r.ClientEmployeeID, DefaultEmployeeID),
		WorkDate:        normalize.Date(r.PunchApplyDate),
		PunchIn:         normalize.Timestamp(r.PunchInDatetime),
		PunchOut:        normalize.Timestamp(r.PunchOutDatetime),
		HoursWorked:     normalize.Numeric(r.HoursWorked, 0),
		PayCode:         normalize.String(r.PayCode, ""),
		PunchInComment:  c.Classify(r.PunchInComment),
		PunchOutComment: c.Classify(r.PunchOutComment),
		SourceFile:      &file,
		RawLoadedAt:     r.LoadedAt.UTC(),
		ETLBatchID:      batchID,
		ProcessedAt:     processedAt,
	}
}
