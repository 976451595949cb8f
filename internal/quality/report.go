// Package quality runs declarative data-quality checks and aggregates them
// into reports. Check outcomes are data; a failed check never returns an
// error.
package quality

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrValidationFailed is returned by callers that opt into aborting on a
// blocking report.
var ErrValidationFailed = errors.New("quality validation failed")

// Severity grades how a failed result should be treated by callers.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is the outcome of one check against one table.
type Result struct {
	Name     string         `json:"name"`
	Table    string         `json:"table"`
	Passed   bool           `json:"passed"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
	Severity Severity       `json:"severity"`
}

func (r Result) status() string {
	if r.Passed {
		return "PASS"
	}
	return "FAIL"
}

// Report is an ordered list of results for one suite run.
type Report struct {
	Suite     string    `json:"suite"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Result  `json:"results"`

	logger *slog.Logger
}

// NewReport starts an empty report. A nil logger discards output.
func NewReport(suite string, logger *slog.Logger) *Report {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Report{
		Suite:     suite,
		Timestamp: time.Now().UTC(),
		logger:    logger,
	}
}

// Add appends a result and logs it.
func (r *Report) Add(res Result) {
	if res.Severity == "" {
		res.Severity = SeverityError
	}
	r.Results = append(r.Results, res)

	level := slog.LevelInfo
	if !res.Passed {
		level = slog.LevelWarn
		if res.Severity == SeverityError {
			level = slog.LevelError
		}
	}
	r.logger.Log(context.Background(), level, "quality check",
		"suite", r.Suite,
		"status", res.status(),
		"table", res.Table,
		"check", res.Name,
		"message", res.Message,
	)
}

// Passed is true only when every result passed.
func (r *Report) Passed() bool {
	return r.FailedCount() == 0
}

// Blocking reports whether any error-severity result failed.
func (r *Report) Blocking() bool {
	for _, res := range r.Results {
		if !res.Passed && res.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

func (r *Report) FailedCount() int {
	return len(r.Results) - r.PassedCount()
}

// Failures returns the failed results in order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Summary renders every result with its pass/fail status.
func (r *Report) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "QC REPORT %s - %s\n", r.Suite, r.Timestamp.Format(time.DateTime))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total Checks: %d\n", len(r.Results))
	fmt.Fprintf(&b, "Passed: %d\n", r.PassedCount())
	fmt.Fprintf(&b, "Failed: %d\n", r.FailedCount())
	fmt.Fprintln(&b, strings.Repeat("-", 60))
	for _, res := range r.Results {
		fmt.Fprintf(&b, "[%s] %s.%s: %s\n", res.status(), res.Table, res.Name, res.Message)
	}
	b.WriteString(rule)
	return b.String()
}

// Log writes the summary counts at info level, or warn when any check failed.
func (r *Report) Log() {
	level := slog.LevelInfo
	if !r.Passed() {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "quality report",
		"suite", r.Suite,
		"total", len(r.Results),
		"passed", r.PassedCount(),
		"failed", r.FailedCount(),
	)
}
