package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveMonth(t *testing.T) {
	r, err := Resolve(TypeMonth, "2024-02")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 1), r.Start)
	assert.Equal(t, date(2024, time.March, 1), r.End)

	// December rolls into the next year.
	r, err = Resolve(TypeMonth, "2024-12")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 1), r.End)
}

func TestResolveQuarter(t *testing.T) {
	cases := []struct {
		key   string
		start time.Time
		end   time.Time
	}{
		{"2024-Q1", date(2024, time.January, 1), date(2024, time.April, 1)},
		{"2024-Q2", date(2024, time.April, 1), date(2024, time.July, 1)},
		{"2024-Q3", date(2024, time.July, 1), date(2024, time.October, 1)},
		{"2024-Q4", date(2024, time.October, 1), date(2025, time.January, 1)},
	}
	for _, tc := range cases {
		r, err := Resolve(TypeQuarter, tc.key)
		require.NoError(t, err, tc.key)
		assert.Equal(t, tc.start, r.Start, tc.key)
		assert.Equal(t, tc.end, r.End, tc.key)
	}
}

func TestResolveYear(t *testing.T) {
	r, err := Resolve(TypeYear, "2024")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 1), r.Start)
	assert.Equal(t, date(2025, time.January, 1), r.End)
}

func TestResolveCustomInclusiveBounds(t *testing.T) {
	r, err := Resolve(TypeCustom, "2024-01_2024-03")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 1), r.Start)
	assert.Equal(t, date(2024, time.April, 1), r.End)

	// Single-month custom range is legal.
	r, err = ResolveCustom("2024-05", "2024-05")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.May, 1), r.Start)
	assert.Equal(t, date(2024, time.June, 1), r.End)
}

func TestResolveAdhocDayRange(t *testing.T) {
	r, err := Resolve(TypeAdhoc, "2024-01-15_2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 15), r.Start)
	assert.Equal(t, date(2024, time.January, 16), r.End)
}

func TestResolveRejectsMalformedKeys(t *testing.T) {
	cases := []struct {
		periodType Type
		key        string
	}{
		{TypeMonth, ""},
		{TypeMonth, "2024"},
		{TypeMonth, "2024-13"},
		{TypeQuarter, "2024-Q5"},
		{TypeQuarter, "2024-Q0"},
		{TypeQuarter, "2024-03"},
		{TypeYear, "24"},
		{TypeYear, "2024-01"},
		{TypeCustom, "2024-01"},
		{TypeCustom, "2024-04_2024-01"},
		{TypeAdhoc, "2024-01_2024-02"},
		{Type("week"), "2024-W01"},
	}
	for _, tc := range cases {
		_, err := Resolve(tc.periodType, tc.key)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "%s %q", tc.periodType, tc.key)
	}
}

func TestResolveCustomRequiresBothBounds(t *testing.T) {
	_, err := ResolveCustom("2024-01", "")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = ResolveCustom("", "2024-03")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
