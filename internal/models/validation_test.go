package models

import (
	"errors"
	"testing"
	"time"
)

func TestStagingEmployeeValidate(t *testing.T) {
	valid := &StagingEmployee{
		EmployeeID:      "E1",
		TerminationDate: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		ETLBatchID:      "b1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid employee, got error: %v", err)
	}

	invalid := &StagingEmployee{EmployeeID: "E1", ETLBatchID: "b1"}
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected error for missing termination date")
	}
}

func TestStagingTimesheetValidate(t *testing.T) {
	if err := (&StagingTimesheet{EmployeeID: "E1", ETLBatchID: "b1"}).Validate(); err != nil {
		t.Fatalf("expected valid timesheet, got error: %v", err)
	}
	if err := (&StagingTimesheet{ETLBatchID: "b1"}).Validate(); err == nil {
		t.Fatalf("expected error for missing employee id")
	}
}

func TestFullName(t *testing.T) {
	cases := map[string]*DimEmployee{
		"Ann Lee": {FirstName: "Ann", LastName: "Lee"},
		"Lee":     {LastName: "Lee"},
		"Ann":     {FirstName: "Ann"},
	}
	for want, e := range cases {
		if got := e.FullName(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestNewDimDate(t *testing.T) {
	// 2021-01-03 is a Sunday in ISO week 53 of 2020.
	d := NewDimDate(time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC))
	if d.Year != 2021 || d.Month != 1 || d.Day != 3 {
		t.Fatalf("unexpected calendar fields: %+v", d)
	}
	if d.Week != 53 {
		t.Fatalf("expected ISO week 53, got %d", d.Week)
	}
	if d.Quarter != 1 {
		t.Fatalf("expected quarter 1, got %d", d.Quarter)
	}
	if q := NewDimDate(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)).Quarter; q != 4 {
		t.Fatalf("expected quarter 4, got %d", q)
	}
}

func TestRunFinish(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &ETLRun{StartTime: start, Status: RunStatusRunning}
	if r.Duration() != 0 {
		t.Fatalf("expected zero duration while running")
	}

	r.Finish(start.Add(2*time.Second), RunStatusSuccess, nil)
	if r.Status != RunStatusSuccess || r.ErrorLog != nil {
		t.Fatalf("expected clean success, got %s", r.Status)
	}
	if r.Duration() != 2*time.Second {
		t.Fatalf("expected 2s, got %s", r.Duration())
	}

	r.Finish(start.Add(time.Second), RunStatusSuccess, errors.New("boom"))
	if r.Status != RunStatusFailed {
		t.Fatalf("expected error to force failed status, got %s", r.Status)
	}
	if r.ErrorLog == nil || *r.ErrorLog != "boom" {
		t.Fatalf("expected error log to be recorded")
	}
}

func TestLockExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &ETLLock{ExpiresAt: now}
	if !l.Expired(now) {
		t.Fatalf("expected lease to expire at its deadline")
	}
	l.ExpiresAt = now.Add(time.Minute)
	if l.Expired(now) {
		t.Fatalf("expected live lease")
	}
}
