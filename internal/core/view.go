package core

import (
	"fmt"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/diary"
	"daybook/internal/note"
	"daybook/internal/recur"
	"daybook/internal/search"
	"daybook/internal/task"
	"daybook/internal/timeblock"
)

// SelectedDate returns the current selection, always a valid date.
func (c *Core) SelectedDate() time.Time { return c.selected }

// ViewMode returns the active calendar view.
func (c *Core) ViewMode() calendar.ViewMode { return c.mode }

// Pane returns the focused pane.
func (c *Core) FocusedPane() Pane { return c.pane }

// ActiveFilter returns the current filter, FilterNone when inactive.
func (c *Core) ActiveFilter() Filter { return c.filter }

// SelectDate moves the selection. Selecting outside the visible period
// re-anchors the view so the selection is always visible.
func (c *Core) SelectDate(d time.Time) {
	c.selected = recur.Date(d)
}

// ChangeViewMode switches between week, month and year. The selection
// is kept; the new view is anchored on it.
func (c *Core) ChangeViewMode(mode calendar.ViewMode) {
	c.mode = mode
}

// FocusNext cycles the focused pane.
func (c *Core) FocusNext() {
	c.pane = (c.pane + 1) % 4
}

// FocusPane sets the focused pane directly.
func (c *Core) FocusPane(p Pane) {
	c.pane = p
}

// CurrentCells renders the calendar cells for the active view, with the
// selection, today marker and any active filter applied.
func (c *Core) CurrentCells() []calendar.Cell {
	q := calendar.Query{
		Anchor:   c.selected,
		Selected: c.selected,
		Today:    recur.Date(c.now()),
	}
	if c.filter.Kind != FilterNone {
		q.Filtered = c.filterDates
	}
	return c.agg.CellsFor(c.mode, q)
}

// CurrentTaskList returns the tasks for the task pane, sorted overdue
// first, then priority, then due date. An active filter restricts the
// list to matching tasks.
func (c *Core) CurrentTaskList() []*task.Record {
	recs := c.tasks.List(c.taskFilter, c.now())
	if c.filter.Kind == FilterNone {
		return recs
	}
	matched := make(map[string]bool, len(c.filterIDs))
	for _, id := range c.filterIDs {
		matched[id] = true
	}
	out := recs[:0:0]
	for _, rec := range recs {
		if matched[rec.ID] {
			out = append(out, rec)
		}
	}
	return out
}

// SetTaskListFilter narrows the task pane by status and context,
// independent of the search filter.
func (c *Core) SetTaskListFilter(f task.Filter) {
	if f.Status == "" {
		f.Status = "all"
	}
	c.taskFilter = f
}

// CurrentSearchResults returns the ids matching the active filter,
// most recently modified first. Nil when no filter is active.
func (c *Core) CurrentSearchResults() []string {
	if c.filter.Kind == FilterNone {
		return nil
	}
	return c.filterIDs
}

// CurrentTimeblockLayout returns the timeblock entries of the selected
// date's diary file, or nil when the entry does not exist or carries no
// table.
func (c *Core) CurrentTimeblockLayout() []timeblock.Entry {
	ref := c.entries.Get(c.selected)
	if ref == nil {
		return nil
	}
	rec := c.notes[ref.Path]
	if rec == nil {
		return nil
	}
	return timeblock.Parse(rec.Body)
}

// DiaryBody returns the body text of the selected date's entry for the
// preview pane.
func (c *Core) DiaryBody(date time.Time) string {
	ref := c.entries.Get(date)
	if ref == nil {
		return ""
	}
	if rec := c.notes[ref.Path]; rec != nil {
		return rec.Body
	}
	return ""
}

// HasEntry reports whether a diary entry exists for the date.
func (c *Core) HasEntry(date time.Time) bool {
	return c.entries.Has(date)
}

// Summary reduces the tracked metrics over the active view's range.
func (c *Core) Summary() diary.Stats {
	return c.agg.Summary(c.mode, c.selected)
}

// ApplyFilter installs a search or tag filter and computes its result
// set. The calendar keeps its shape; only match highlighting changes.
func (c *Core) ApplyFilter(query string) {
	kind := FilterKeyword
	if len(query) > 1 && (query[0] == '#' || query[0] == '@') {
		kind = FilterTag
	}
	c.filter = Filter{Kind: kind, Value: query}
	c.refreshFilter()
}

// ClearFilter removes the active filter.
func (c *Core) ClearFilter() {
	c.filter = Filter{}
	c.filterIDs = nil
	c.filterDates = nil
}

// refreshFilter recomputes the result set, mapping each matching source
// to the dates it should highlight: a diary entry highlights its own
// date, a task highlights its effective due date.
func (c *Core) refreshFilter() {
	c.filterIDs = c.index.Query(c.filter.Value)
	c.filterDates = make(map[string]bool)
	for _, id := range c.filterIDs {
		if date, ok := diary.DateFromPath(id); ok {
			c.filterDates[recur.DateKey(date)] = true
			continue
		}
		if rec := c.tasks.Get(id); rec != nil {
			if due := rec.EffectiveDue(); !due.IsZero() {
				c.filterDates[recur.DateKey(due)] = true
			}
		}
	}
}

// ToggleTaskStatus advances the task's status, marks the source dirty
// so reconciliation defers external changes, and leaves the write to
// RequestFlush.
func (c *Core) ToggleTaskStatus(id string) (*task.Record, error) {
	rec, err := c.tasks.ToggleStatus(id, c.now())
	if err != nil {
		return nil, err
	}
	c.stageTaskEdit(rec)
	return rec, nil
}

// CycleTaskPriority steps the task's priority and stages the edit.
func (c *Core) CycleTaskPriority(id string) (*task.Record, error) {
	rec, err := c.tasks.CyclePriority(id)
	if err != nil {
		return nil, err
	}
	c.stageTaskEdit(rec)
	return rec, nil
}

// SetTaskArchived toggles the archive tag and stages the edit.
func (c *Core) SetTaskArchived(id string, archived bool) (*task.Record, error) {
	rec, err := c.tasks.SetArchived(id, archived)
	if err != nil {
		return nil, err
	}
	c.stageTaskEdit(rec)
	return rec, nil
}

func (c *Core) stageTaskEdit(rec *task.Record) {
	n := c.notes[rec.ID]
	if n == nil {
		return
	}
	rec.ApplyToNote(n)
	n.Modified = c.now()
	c.recon.MarkDirty(rec.ID)
	c.index.Add(searchDoc(n, search.SourceTask))
}

// SetTimeblock writes an activity into the selected date's timeblock
// table and marks the entry dirty. The entry must already exist.
func (c *Core) SetTimeblock(slot, activity string) error {
	ref := c.entries.Get(c.selected)
	if ref == nil {
		return fmt.Errorf("no diary entry for %s", recur.DateKey(c.selected))
	}
	rec := c.notes[ref.Path]
	if rec == nil {
		return fmt.Errorf("no diary entry for %s", recur.DateKey(c.selected))
	}
	body := rec.Body
	if !timeblock.HasTable(body) {
		body += timeblock.DefaultTable()
	}
	updated, ok := timeblock.Update(body, slot, activity)
	if !ok {
		return fmt.Errorf("no timeblock slot %q", slot)
	}
	rec.Body = updated
	rec.Modified = c.now()
	c.recon.MarkDirty(ref.Path)
	return nil
}

// EnsureDiaryEntry creates the diary file for a date when it does not
// exist yet, seeded with the default timeblock table, and merges it
// immediately.
func (c *Core) EnsureDiaryEntry(date time.Time) (string, error) {
	date = recur.Date(date)
	if ref := c.entries.Get(date); ref != nil {
		return ref.Path, nil
	}
	path := c.DiaryPath(date)
	rec := &note.Record{
		Path:    path,
		Title:   date.Format("Monday, January 2 2006"),
		Created: c.now(),
		Body:    timeblock.DefaultTable(),
	}
	if err := c.recon.Flush(path, note.Serialize(rec)); err != nil {
		return "", err
	}
	c.apply(rec)
	return path, nil
}

// AddTask creates a new task note under the notes directory, flushes it
// and merges it immediately. due may be zero.
func (c *Core) AddTask(title string, due time.Time) (string, error) {
	path := c.taskPath(title)
	rec := &note.Record{
		Path:    path,
		Title:   title,
		Created: c.now(),
		Status:  task.StatusOpen.String(),
		Tags:    []string{"task"},
	}
	if !due.IsZero() {
		rec.Due = recur.Date(due).Format("2006-01-02")
	}
	if err := c.recon.Flush(path, note.Serialize(rec)); err != nil {
		return "", err
	}
	c.apply(rec)
	return path, nil
}

// RequestFlush serializes a locally edited source back to its file. On
// success the dirty and conflict flags clear; on failure the edit stays
// staged and the error carries the path.
func (c *Core) RequestFlush(id string) error {
	rec := c.notes[id]
	if rec == nil {
		return fmt.Errorf("unknown source %q", id)
	}
	if err := c.recon.Flush(id, note.Serialize(rec)); err != nil {
		return fmt.Errorf("flush %s: %w", id, err)
	}
	c.log.Debug().Str("path", id).Msg("flushed")
	return nil
}

// FlushAll flushes every dirty source, returning the first error.
func (c *Core) FlushAll() error {
	var first error
	for _, id := range c.recon.DirtyPaths() {
		if err := c.RequestFlush(id); err != nil && first == nil {
			first = err
		}
	}
	return first
}
