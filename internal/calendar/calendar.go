// Package calendar merges the task index, diary presence and tracked
// metrics into per-day cells for the week, month and year views. Cells
// are recomputed on demand and never persisted.
package calendar

import (
	"time"

	"daybook/internal/diary"
	"daybook/internal/recur"
	"daybook/internal/task"
)

type ViewMode int

const (
	ViewWeek ViewMode = iota
	ViewMonth
	ViewYear
)

func (m ViewMode) String() string {
	switch m {
	case ViewWeek:
		return "week"
	case ViewYear:
		return "year"
	}
	return "month"
}

// Cell is one renderable day.
type Cell struct {
	Date       time.Time
	InPeriod   bool // false for the month view's leading/trailing fill
	HasEntry   bool
	HasTaskDue bool
	HasOverdue bool
	IsSelected bool
	IsToday    bool
	// Matches is true when no filter is active or the date is in the
	// filtered set; non-matching cells are still rendered, keeping the
	// calendar shape.
	Matches bool
}

// Aggregator computes cells from the owning core's indexes. It holds no
// state of its own beyond configuration.
type Aggregator struct {
	Tasks     *task.Index
	Entries   *diary.Set
	WeekStart time.Weekday
}

// Query carries the per-render inputs.
type Query struct {
	Anchor   time.Time
	Selected time.Time
	Today    time.Time
	// Filtered is the set of matching date keys when a search or tag
	// filter is active; nil means no filter.
	Filtered map[string]bool
}

// WeekStartOf returns the first day of the week containing d.
func (a *Aggregator) WeekStartOf(d time.Time) time.Time {
	d = recur.Date(d)
	delta := (int(d.Weekday()) - int(a.WeekStart) + 7) % 7
	return d.AddDate(0, 0, -delta)
}

// RangeFor returns the inclusive date range a view mode covers.
func (a *Aggregator) RangeFor(mode ViewMode, anchor time.Time) (time.Time, time.Time) {
	anchor = recur.Date(anchor)
	switch mode {
	case ViewWeek:
		start := a.WeekStartOf(anchor)
		return start, start.AddDate(0, 0, 6)
	case ViewYear:
		start := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(anchor.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	}
}

// CellsFor produces the ordered cells visible in the given view:
// week: 7 cells from the configured first-of-week;
// month: a fixed 6-week grid including leading/trailing fill days;
// year: every day of the year, grouped by month through Cell.Date.
func (a *Aggregator) CellsFor(mode ViewMode, q Query) []Cell {
	switch mode {
	case ViewWeek:
		start := a.WeekStartOf(q.Anchor)
		return a.build(start, start.AddDate(0, 0, 6), q, nil)
	case ViewYear:
		start, end := a.RangeFor(ViewYear, q.Anchor)
		return a.build(start, end, q, nil)
	default:
		monthStart, monthEnd := a.RangeFor(ViewMonth, q.Anchor)
		gridStart := a.WeekStartOf(monthStart)
		gridEnd := gridStart.AddDate(0, 0, 6*7-1)
		inPeriod := func(d time.Time) bool {
			return !d.Before(monthStart) && !d.After(monthEnd)
		}
		return a.build(gridStart, gridEnd, q, inPeriod)
	}
}

func (a *Aggregator) build(start, end time.Time, q Query, inPeriod func(time.Time) bool) []Cell {
	selected := recur.Date(q.Selected)
	today := recur.Date(q.Today)

	var cells []Cell
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		due := a.Tasks.DueOn(d)
		cell := Cell{
			Date:       d,
			InPeriod:   true,
			HasEntry:   a.Entries.Has(d),
			HasTaskDue: len(due) > 0,
			HasOverdue: len(due) > 0 && d.Before(today),
			IsSelected: d.Equal(selected),
			IsToday:    d.Equal(today),
			Matches:    true,
		}
		if inPeriod != nil {
			cell.InPeriod = inPeriod(d)
		}
		if q.Filtered != nil {
			cell.Matches = q.Filtered[recur.DateKey(d)]
		}
		cells = append(cells, cell)
	}
	return cells
}

// Summary reduces the tracked metrics over the view's visible range,
// for the month and year stat popups.
func (a *Aggregator) Summary(mode ViewMode, anchor time.Time) diary.Stats {
	start, end := a.RangeFor(mode, anchor)
	return a.Entries.Aggregate(start, end)
}
