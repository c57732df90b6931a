package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyWithSelector(t *testing.T) {
	rule := &Rule{
		Freq:     Weekly,
		Weekdays: []time.Weekday{time.Monday},
		Anchor:   d(2023, time.January, 2), // a Monday
	}

	got := rule.OccurrencesInRange(d(2023, time.January, 1), d(2023, time.January, 31))
	want := []time.Time{
		d(2023, time.January, 2),
		d(2023, time.January, 9),
		d(2023, time.January, 16),
		d(2023, time.January, 23),
		d(2023, time.January, 30),
	}
	assert.Equal(t, want, got)
}

func TestWeeklyMultipleSelectors(t *testing.T) {
	rule := &Rule{
		Freq:     Weekly,
		Weekdays: []time.Weekday{time.Monday, time.Thursday},
		Anchor:   d(2023, time.January, 2),
	}

	got := rule.OccurrencesInRange(d(2023, time.January, 1), d(2023, time.January, 15))
	want := []time.Time{
		d(2023, time.January, 2),
		d(2023, time.January, 5),
		d(2023, time.January, 9),
		d(2023, time.January, 12),
	}
	assert.Equal(t, want, got)
}

func TestWeeklyNoSelectorUsesAnchorWeekday(t *testing.T) {
	rule := &Rule{Freq: Weekly, Anchor: d(2023, time.January, 4)} // a Wednesday

	got := rule.OccurrencesInRange(d(2023, time.January, 1), d(2023, time.January, 20))
	want := []time.Time{
		d(2023, time.January, 4),
		d(2023, time.January, 11),
		d(2023, time.January, 18),
	}
	assert.Equal(t, want, got)
}

func TestDailySkipsCompleted(t *testing.T) {
	rule := &Rule{
		Freq:      Daily,
		Anchor:    d(2023, time.March, 1),
		Completed: map[string]bool{"2023-03-02": true, "2023-03-04": true},
	}

	got := rule.OccurrencesInRange(d(2023, time.March, 1), d(2023, time.March, 5))
	want := []time.Time{
		d(2023, time.March, 1),
		d(2023, time.March, 3),
		d(2023, time.March, 5),
	}
	assert.Equal(t, want, got)
}

func TestMonthlyClampsToShortMonths(t *testing.T) {
	rule := &Rule{Freq: Monthly, Anchor: d(2023, time.January, 31)}

	got := rule.OccurrencesInRange(d(2023, time.January, 1), d(2023, time.May, 31))
	want := []time.Time{
		d(2023, time.January, 31),
		d(2023, time.February, 28),
		d(2023, time.March, 31),
		d(2023, time.April, 30),
		d(2023, time.May, 31),
	}
	assert.Equal(t, want, got)
}

func TestYearlyClampsLeapDay(t *testing.T) {
	rule := &Rule{Freq: Yearly, Anchor: d(2024, time.February, 29)}

	got := rule.OccurrencesInRange(d(2024, time.January, 1), d(2026, time.December, 31))
	want := []time.Time{
		d(2024, time.February, 29),
		d(2025, time.February, 28),
		d(2026, time.February, 28),
	}
	assert.Equal(t, want, got)
}

func TestOccurrencesNeverEmitCompletedAndAreOrdered(t *testing.T) {
	rules := []*Rule{
		{Freq: Daily, Anchor: d(2023, time.June, 1),
			Completed: map[string]bool{"2023-06-03": true}},
		{Freq: Weekly, Weekdays: []time.Weekday{time.Tuesday, time.Saturday},
			Anchor: d(2023, time.June, 1),
			Completed: map[string]bool{"2023-06-06": true}},
		{Freq: Monthly, Anchor: d(2023, time.January, 30)},
		{Freq: Yearly, Anchor: d(2020, time.July, 4)},
	}

	for _, rule := range rules {
		got := rule.OccurrencesInRange(d(2023, time.January, 1), d(2024, time.December, 31))
		for i, occ := range got {
			assert.False(t, rule.IsCompleted(occ),
				"%s rule emitted completed date %s", rule.Freq, DateKey(occ))
			if i > 0 {
				assert.False(t, occ.Before(got[i-1]),
					"%s rule emitted out-of-order date %s", rule.Freq, DateKey(occ))
			}
		}
	}
}

func TestIteratorIsRestartable(t *testing.T) {
	rule := &Rule{Freq: Daily, Anchor: d(2023, time.May, 1)}

	first := rule.OccurrencesInRange(d(2023, time.May, 1), d(2023, time.May, 3))
	second := rule.OccurrencesInRange(d(2023, time.May, 1), d(2023, time.May, 3))
	assert.Equal(t, first, second)
}

func TestRangeBeforeAnchorIsEmptyBeforeAnchor(t *testing.T) {
	rule := &Rule{Freq: Daily, Anchor: d(2023, time.May, 10)}

	got := rule.OccurrencesInRange(d(2023, time.May, 1), d(2023, time.May, 11))
	require.Len(t, got, 2)
	assert.Equal(t, d(2023, time.May, 10), got[0])
}

func TestNextDueSkipsCompletedOccurrences(t *testing.T) {
	rule := &Rule{
		Freq:     Weekly,
		Weekdays: []time.Weekday{time.Monday},
		Anchor:   d(2023, time.January, 2),
	}

	today := d(2023, time.January, 2)
	assert.Equal(t, d(2023, time.January, 2), rule.NextDue(today))

	rule.MarkComplete(d(2023, time.January, 2))
	assert.Equal(t, d(2023, time.January, 9), rule.NextDue(today))

	rule.MarkComplete(d(2023, time.January, 9))
	rule.MarkComplete(d(2023, time.January, 16))
	assert.Equal(t, d(2023, time.January, 23), rule.NextDue(today))
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    Frequency
		wantErr bool
	}{
		{"daily", Daily, false},
		{"Weekly", Weekly, false},
		{" monthly ", Monthly, false},
		{"yearly", Yearly, false},
		{"fortnightly", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{
		"mon": time.Monday, "Tuesday": time.Tuesday, "SUN": time.Sunday,
	} {
		got, err := ParseWeekday(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseWeekday("noday")
	assert.Error(t, err)
}
