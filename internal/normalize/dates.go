package normalize

import "time"

// Sentinel is the far-future end date marking a currently valid row.
var Sentinel = time.Date(2222, time.December, 31, 0, 0, 0, 0, time.UTC)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"20060102",
}

// Timestamp parses s into a UTC instant truncated to microseconds.
// Values without an offset are read as UTC.
func Timestamp(s *string) *time.Time {
	v, ok := Clean(s)
	if !ok {
		return nil
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			t = t.UTC().Truncate(time.Microsecond)
			return &t
		}
	}
	return nil
}

// Date parses s and drops the time of day.
func Date(s *string) *time.Time {
	t := Timestamp(s)
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// DateOr returns the parsed date or def when s is null or malformed.
func DateOr(s *string, def time.Time) time.Time {
	if d := Date(s); d != nil {
		return *d
	}
	return def
}

// Dates normalizes a column of dates, leaving nulls in place.
func Dates(col []*string) []*time.Time {
	out := make([]*time.Time, len(col))
	for i, s := range col {
		out[i] = Date(s)
	}
	return out
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsSentinel reports whether t is the open-ended end date.
func IsSentinel(t time.Time) bool {
	return Day(t).Equal(Sentinel)
}

// ActiveFlag derives is_active from an end date.
func ActiveFlag(end time.Time) int {
	if IsSentinel(end) {
		return 1
	}
	return 0
}
