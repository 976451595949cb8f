package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestNullTokensDefault(t *testing.T) {
	inputs := []*string{ptr(""), ptr(" "), ptr("NULL"), ptr("N/A"), ptr("-"), nil}

	got := Strings(inputs, "UNKNOWN")
	for i, v := range got {
		assert.Equal(t, "UNKNOWN", v, "input %d", i)
	}
}

func TestIsNull(t *testing.T) {
	tests := []struct {
		in   *string
		want bool
	}{
		{nil, true},
		{ptr("[NULL]"), true},
		{ptr("[null]"), true},
		{ptr("none"), true},
		{ptr("NaN"), true},
		{ptr("undefined"), true},
		{ptr(`"--"`), true},
		{ptr("   "), true},
		{ptr("'.'"), true},
		{ptr("0"), false},
		{ptr("Nancy"), false},
		{ptr("E1"), false},
	}
	for _, tt := range tests {
		name := "<nil>"
		if tt.in != nil {
			name = *tt.in
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNull(tt.in))
		})
	}
}

func TestStringTrimsQuotes(t *testing.T) {
	assert.Equal(t, "Sales", String(ptr(`  "Sales" `), ""))
	assert.Equal(t, "O'Neil", String(ptr("O'Neil"), ""))
	assert.Equal(t, "x", String(ptr("'x'"), ""))
	assert.Nil(t, NullableString(ptr("N/A")))
	require.NotNil(t, NullableString(ptr(" D1 ")))
	assert.Equal(t, "D1", *NullableString(ptr(" D1 ")))
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, 7.5, Numeric(ptr("7.5"), 0))
	assert.Equal(t, -1.0, Numeric(ptr(" -1 "), 0))
	assert.Equal(t, 0.0, Numeric(ptr("abc"), 0))
	assert.Equal(t, 0.0, Numeric(ptr("NULL"), 0))
	assert.Equal(t, 3.0, Numeric(nil, 3))
	assert.Equal(t, 0.0, Numeric(ptr("Infinity"), 0))
	assert.Equal(t, 0.0, Numeric(ptr("1e400"), 0))
	assert.Equal(t, 120.0, Numeric(ptr("1.2E2"), 0))

	got := Numerics([]*string{ptr("8"), ptr("-"), ptr("x")}, 0)
	assert.Equal(t, []float64{8, 0, 0}, got)
	for _, f := range got {
		assert.False(t, math.IsNaN(f))
	}
}

func TestDateFormats(t *testing.T) {
	want := time.Date(2024, 10, 28, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-10-28",
		`"2024-10-28"`,
		"2024-10-28 08:15:00",
		"2024-10-28T08:15:00Z",
		"10/28/2024",
		"10/28/2024 8:15 AM",
	} {
		t.Run(in, func(t *testing.T) {
			got := Date(ptr(in))
			require.NotNil(t, got)
			assert.True(t, want.Equal(*got), "got %s", got)
		})
	}

	assert.Nil(t, Date(ptr("not a date")))
	assert.Nil(t, Date(ptr("[NULL]")))
	assert.Nil(t, Date(nil))
}

func TestTimestampKeepsTimeOfDay(t *testing.T) {
	got := Timestamp(ptr("2024-10-28 08:15:30.1234567"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 10, 28, 8, 15, 30, 123456000, time.UTC), *got)

	got = Timestamp(ptr("2024-10-28T08:15:30+02:00"))
	require.NotNil(t, got)
	assert.Equal(t, 6, got.Hour())
}

func TestSentinelSemantics(t *testing.T) {
	term := DateOr(nil, Sentinel)
	assert.True(t, IsSentinel(term))
	assert.Equal(t, 1, ActiveFlag(term))

	term = DateOr(ptr("2024-03-01"), Sentinel)
	assert.False(t, IsSentinel(term))
	assert.Equal(t, 0, ActiveFlag(term))

	assert.Equal(t, 1, ActiveFlag(Sentinel.Add(5*time.Hour)))
}

func TestDates(t *testing.T) {
	got := Dates([]*string{ptr("2024-01-02"), ptr(""), nil})
	require.Len(t, got, 3)
	require.NotNil(t, got[0])
	assert.Nil(t, got[1])
	assert.Nil(t, got[2])
}
