// Package dateparse turns the quick date expressions typed into the
// goto and due-date prompts into concrete dates.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"daybook/internal/recur"
)

var layouts = []string{
	"2006-01-02",
	"2006/01/02",
	"Jan 2 2006",
	"2 Jan 2006",
}

// Parse resolves a date expression relative to a reference date.
// Accepted forms: ISO and slash dates, "today", "tomorrow",
// "yesterday", signed day offsets ("+3", "-2d", "+1w"), weekday names
// (the next such weekday strictly after the reference), and a bare day
// of month ("15", the next 15th).
func Parse(input string, ref time.Time) (time.Time, error) {
	ref = recur.Date(ref)
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	switch s {
	case "today", "now":
		return ref, nil
	case "tomorrow", "tom":
		return ref.AddDate(0, 0, 1), nil
	case "yesterday":
		return ref.AddDate(0, 0, -1), nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, input); err == nil {
			return recur.Date(t), nil
		}
	}

	if s[0] == '+' || s[0] == '-' {
		return parseOffset(s, ref)
	}

	if wd, err := recur.ParseWeekday(s); err == nil {
		delta := (int(wd) - int(ref.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return ref.AddDate(0, 0, delta), nil
	}

	if day, err := strconv.Atoi(s); err == nil && day >= 1 && day <= 31 {
		return nextDayOfMonth(ref, day)
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", input)
}

func parseOffset(s string, ref time.Time) (time.Time, error) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := s[1:]

	unit := byte('d')
	if len(body) > 0 {
		switch body[len(body)-1] {
		case 'd', 'w', 'm', 'y':
			unit = body[len(body)-1]
			body = body[:len(body)-1]
		}
	}

	n, err := strconv.Atoi(body)
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("bad offset %q", s)
	}
	n *= sign

	switch unit {
	case 'w':
		return ref.AddDate(0, 0, 7*n), nil
	case 'm':
		return ref.AddDate(0, n, 0), nil
	case 'y':
		return ref.AddDate(n, 0, 0), nil
	default:
		return ref.AddDate(0, 0, n), nil
	}
}

func nextDayOfMonth(ref time.Time, day int) (time.Time, error) {
	for add := 0; add < 13; add++ {
		mo := int(ref.Month()) - 1 + add
		y := ref.Year() + mo/12
		m := time.Month(mo%12 + 1)
		last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if day > last {
			continue
		}
		candidate := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		if !candidate.Before(ref) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no upcoming day %d", day)
}
