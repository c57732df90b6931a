package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	ref := d(2023, time.April, 5) // a Wednesday

	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", ref},
		{"tomorrow", d(2023, time.April, 6)},
		{"yesterday", d(2023, time.April, 4)},
		{"2023-06-01", d(2023, time.June, 1)},
		{"2023/06/01", d(2023, time.June, 1)},
		{"+3", d(2023, time.April, 8)},
		{"+3d", d(2023, time.April, 8)},
		{"-2d", d(2023, time.April, 3)},
		{"+1w", d(2023, time.April, 12)},
		{"+1m", d(2023, time.May, 5)},
		{"fri", d(2023, time.April, 7)},
		{"wednesday", d(2023, time.April, 12)}, // same weekday: next week
		{"15", d(2023, time.April, 15)},
		{"3", d(2023, time.May, 3)}, // the 3rd has passed this month
	}

	for _, tt := range tests {
		got, err := Parse(tt.in, ref)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseDayOfMonthSkipsShortMonths(t *testing.T) {
	got, err := Parse("31", d(2023, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, d(2023, time.March, 31), got)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "someday", "+x", "32", "-1x"} {
		_, err := Parse(in, d(2023, time.April, 5))
		assert.Error(t, err, "input %q", in)
	}
}
