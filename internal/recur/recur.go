// Package recur expands recurrence rules into concrete occurrence dates
// and classifies due-date urgency. All dates are normalized to midnight
// UTC; the package never consults the wall clock itself.
package recur

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	}
	return fmt.Sprintf("frequency(%d)", int(f))
}

// ParseFrequency maps a frontmatter frequency value onto a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}
	return 0, fmt.Errorf("unknown frequency %q", s)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday maps a frontmatter day name ("mon", "tuesday") onto a
// weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) > 3 {
		key = key[:3]
	}
	if wd, ok := weekdayNames[key]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Rule is a validated recurrence rule. Weekdays is only meaningful for
// weekly rules; empty means "the anchor's weekday". Completed holds the
// already-satisfied occurrence dates; it only grows unless the user
// explicitly un-completes an instance.
type Rule struct {
	Freq      Frequency
	Weekdays  []time.Weekday
	Anchor    time.Time
	Completed map[string]bool
}

// Date normalizes a time to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a date the way completed-instance lists store it.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// IsCompleted reports whether the occurrence on the given date is
// already satisfied.
func (r *Rule) IsCompleted(date time.Time) bool {
	return r.Completed[DateKey(date)]
}

// MarkComplete records the occurrence on the given date as satisfied.
func (r *Rule) MarkComplete(date time.Time) {
	if r.Completed == nil {
		r.Completed = make(map[string]bool)
	}
	r.Completed[DateKey(date)] = true
}

// UnmarkComplete removes a satisfied occurrence. Only an explicit user
// toggle calls this; nothing in the engine shrinks the set on its own.
func (r *Rule) UnmarkComplete(date time.Time) {
	delete(r.Completed, DateKey(date))
}

// CompletedDates returns the satisfied occurrence dates in sorted order,
// for serialization back into frontmatter.
func (r *Rule) CompletedDates() []string {
	out := make([]string, 0, len(r.Completed))
	for k := range r.Completed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Iterator walks a rule's occurrences in non-decreasing date order.
// It is finite over the range it was opened for and restartable by
// opening a new one.
type Iterator struct {
	rule *Rule
	end  time.Time
	cur  time.Time
	done bool
}

// Occurrences opens an iterator over the rule's occurrences within
// [start, end], inclusive. Dates already in the completed set are
// skipped.
func (r *Rule) Occurrences(start, end time.Time) *Iterator {
	it := &Iterator{rule: r, end: Date(end)}
	start = Date(start)
	anchor := Date(r.Anchor)
	if start.Before(anchor) {
		start = anchor
	}
	it.cur = r.firstOnOrAfter(start)
	return it
}

// Next returns the next occurrence, or ok=false when the range is
// exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	for !it.done {
		if it.cur.After(it.end) {
			it.done = true
			break
		}
		d := it.cur
		it.cur = it.rule.step(it.cur)
		if !it.cur.After(d) {
			// A rule that cannot advance would loop forever.
			it.done = true
		}
		if it.rule.IsCompleted(d) {
			continue
		}
		return d, true
	}
	return time.Time{}, false
}

// OccurrencesInRange collects the iterator into a slice.
func (r *Rule) OccurrencesInRange(start, end time.Time) []time.Time {
	var out []time.Time
	it := r.Occurrences(start, end)
	for {
		d, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, d)
	}
}

// OccursOn reports whether the rule has an occurrence on the given date,
// ignoring the completed set.
func (r *Rule) OccursOn(date time.Time) bool {
	date = Date(date)
	anchor := Date(r.Anchor)
	if date.Before(anchor) {
		return false
	}
	switch r.Freq {
	case Daily:
		return true
	case Weekly:
		if len(r.Weekdays) == 0 {
			return date.Weekday() == anchor.Weekday()
		}
		for _, wd := range r.Weekdays {
			if date.Weekday() == wd {
				return true
			}
		}
		return false
	case Monthly:
		return date.Day() == clampedDay(anchor.Day(), date.Year(), date.Month())
	case Yearly:
		return date.Month() == anchor.Month() &&
			date.Day() == clampedDay(anchor.Day(), date.Year(), anchor.Month())
	}
	return false
}

// NextDue returns the effective due date: the first not-yet-completed
// occurrence on or after the given date. For a rule whose every
// occurrence up to the search horizon is completed, the first open one
// past the horizon is still found because only completed dates are
// skipped and the completed set is finite.
func (r *Rule) NextDue(from time.Time) time.Time {
	from = Date(from)
	anchor := Date(r.Anchor)
	if from.Before(anchor) {
		from = anchor
	}
	d := r.firstOnOrAfter(from)
	// The completed set is finite, so at most len(Completed)+1 steps.
	for r.IsCompleted(d) {
		d = r.step(d)
	}
	return d
}

// firstOnOrAfter finds the earliest date >= from that matches the rule's
// pattern, ignoring the completed set.
func (r *Rule) firstOnOrAfter(from time.Time) time.Time {
	anchor := Date(r.Anchor)
	switch r.Freq {
	case Daily:
		return from
	case Weekly:
		// Scan at most one week ahead for a matching weekday.
		for d := from; ; d = d.AddDate(0, 0, 1) {
			if r.OccursOn(d) {
				return d
			}
		}
	case Monthly:
		for n := monthsBetween(anchor, from); ; n++ {
			d := addMonthsClamped(anchor, n)
			if !d.Before(from) {
				return d
			}
		}
	case Yearly:
		for n := from.Year() - anchor.Year(); ; n++ {
			d := addYearsClamped(anchor, n)
			if !d.Before(from) {
				return d
			}
		}
	}
	return from
}

// step advances one period past the given occurrence.
func (r *Rule) step(d time.Time) time.Time {
	switch r.Freq {
	case Daily:
		return d.AddDate(0, 0, 1)
	case Weekly:
		if len(r.Weekdays) == 0 {
			return d.AddDate(0, 0, 7)
		}
		for next := d.AddDate(0, 0, 1); ; next = next.AddDate(0, 0, 1) {
			if r.OccursOn(next) {
				return next
			}
		}
	case Monthly:
		anchor := Date(r.Anchor)
		return addMonthsClamped(anchor, monthsBetween(anchor, d)+1)
	case Yearly:
		anchor := Date(r.Anchor)
		return addYearsClamped(anchor, d.Year()-anchor.Year()+1)
	}
	return d.AddDate(0, 0, 1)
}

// addMonthsClamped steps n calendar months from the anchor, clamping the
// day-of-month to the last valid day of the target month instead of
// letting it spill into the next month.
func addMonthsClamped(anchor time.Time, n int) time.Time {
	y := anchor.Year()
	m := int(anchor.Month()) - 1 + n
	y += m / 12
	m = m % 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := clampedDay(anchor.Day(), y, month)
	return time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
}

func addYearsClamped(anchor time.Time, n int) time.Time {
	y := anchor.Year() + n
	day := clampedDay(anchor.Day(), y, anchor.Month())
	return time.Date(y, anchor.Month(), day, 0, 0, 0, 0, time.UTC)
}

func clampedDay(day, year int, month time.Month) int {
	last := daysIn(year, month)
	if day > last {
		return last
	}
	return day
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func monthsBetween(a, b time.Time) int {
	n := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if n < 0 {
		return 0
	}
	return n
}
