package task

import (
	"sort"
	"strings"
	"time"

	"daybook/internal/recur"
)

// Index holds every task record and a lazily rebuilt date -> ids mapping
// used by the calendar. The mapping is invalidated whenever a record is
// upserted or removed, or when reconciliation reports the backing file
// changed, and rebuilt on the next query that needs it.
type Index struct {
	records map[string]*Record

	byDate   map[string]map[string]struct{}
	winStart time.Time
	winEnd   time.Time
	stale    bool
}

func NewIndex() *Index {
	return &Index{
		records: make(map[string]*Record),
		stale:   true,
	}
}

// Upsert stores or replaces a record. A nil record or one that fails
// validation is rejected without touching the index.
func (ix *Index) Upsert(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return &ValidationError{Field: "id", Reason: "missing"}
	}
	ix.records[rec.ID] = rec
	ix.stale = true
	return nil
}

// Remove drops a record when its backing file is deleted.
func (ix *Index) Remove(id string) {
	if _, ok := ix.records[id]; !ok {
		return
	}
	delete(ix.records, id)
	ix.stale = true
}

// Invalidate marks the date mapping stale, e.g. after reconciliation
// reports an external change.
func (ix *Index) Invalidate() {
	ix.stale = true
}

// Get returns the record for an id, or nil.
func (ix *Index) Get(id string) *Record {
	return ix.records[id]
}

// Len reports the number of stored records.
func (ix *Index) Len() int { return len(ix.records) }

// DueOn returns the ids of unarchived tasks due on the given date:
// non-recurring tasks whose due date matches and are not done, plus
// unresolved occurrences of recurring tasks.
func (ix *Index) DueOn(date time.Time) []string {
	date = recur.Date(date)
	ix.ensureWindow(date, date)
	ids := ix.byDate[recur.DateKey(date)]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// OverdueAsOf returns the ids of unarchived tasks whose effective due
// date has passed and which are not done.
func (ix *Index) OverdueAsOf(date time.Time) []string {
	date = recur.Date(date)
	var out []string
	for id, rec := range ix.records {
		if rec.Archived {
			continue
		}
		if rec.EffectiveStatus(date) == StatusDone && rec.Rule == nil {
			continue
		}
		due := rec.EffectiveDue()
		if !due.IsZero() && due.Before(date) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ToggleStatus advances a task's status. A plain task cycles
// open -> in-progress -> done -> open. A recurring task toggles today's
// occurrence in the completed set and stays open; completing the current
// occurrence advances the effective due date to the next unresolved one.
func (ix *Index) ToggleStatus(id string, today time.Time) (*Record, error) {
	rec := ix.records[id]
	if rec == nil {
		return nil, &ValidationError{ID: id, Field: "id", Reason: "unknown task"}
	}

	today = recur.Date(today)
	if rec.Rule != nil {
		if rec.Rule.IsCompleted(today) {
			rec.Rule.UnmarkComplete(today)
		} else {
			rec.Rule.MarkComplete(today)
		}
		rec.Status = StatusOpen
		rec.Due = rec.Rule.NextDue(today)
	} else {
		switch rec.Status {
		case StatusOpen:
			rec.Status = StatusInProgress
		case StatusInProgress:
			rec.Status = StatusDone
		default:
			rec.Status = StatusOpen
		}
	}

	ix.stale = true
	return rec, nil
}

// CyclePriority steps the task's priority low -> normal -> high -> low.
func (ix *Index) CyclePriority(id string) (*Record, error) {
	rec := ix.records[id]
	if rec == nil {
		return nil, &ValidationError{ID: id, Field: "id", Reason: "unknown task"}
	}
	rec.Priority = rec.Priority.Cycle()
	return rec, nil
}

// SetArchived adds or removes the archive tag.
func (ix *Index) SetArchived(id string, archived bool) (*Record, error) {
	rec := ix.records[id]
	if rec == nil {
		return nil, &ValidationError{ID: id, Field: "id", Reason: "unknown task"}
	}
	rec.Archived = archived
	tags := rec.Tags[:0]
	for _, t := range rec.Tags {
		if t != "archive" {
			tags = append(tags, t)
		}
	}
	if archived {
		tags = append(tags, "archive")
	}
	rec.Tags = tags
	ix.stale = true
	return rec, nil
}

// Filter lists tasks sorted for display: overdue first, then by
// priority, then by due date. status may be "all", "open",
// "in-progress", "done" or "archive"; context restricts to tasks
// carrying the context tag.
type Filter struct {
	Status  string
	Context string
}

func (ix *Index) List(f Filter, today time.Time) []*Record {
	today = recur.Date(today)
	var out []*Record
	for _, rec := range ix.records {
		if f.Status == "archive" {
			if rec.Archived {
				out = append(out, rec)
			}
			continue
		}
		if rec.Archived {
			continue
		}
		if f.Status != "" && f.Status != "all" &&
			rec.EffectiveStatus(today).String() != f.Status {
			continue
		}
		if f.Context != "" && !hasContext(rec, f.Context) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ao := a.Urgency(today, 0) == recur.UrgencyOverdue
		bo := b.Urgency(today, 0) == recur.UrgencyOverdue
		if ao != bo {
			return ao
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		ad, bd := a.EffectiveDue(), b.EffectiveDue()
		switch {
		case ad.IsZero() && !bd.IsZero():
			return false
		case !ad.IsZero() && bd.IsZero():
			return true
		case !ad.Equal(bd):
			return ad.Before(bd)
		}
		return a.Title < b.Title
	})
	return out
}

func hasContext(rec *Record, ctx string) bool {
	for _, c := range rec.Contexts {
		if strings.EqualFold(c, ctx) {
			return true
		}
	}
	return false
}

// ensureWindow rebuilds the date mapping when it is stale or does not
// cover the requested range. The window is padded so that navigating
// nearby dates does not rebuild every query.
func (ix *Index) ensureWindow(start, end time.Time) {
	if !ix.stale && !start.Before(ix.winStart) && !end.After(ix.winEnd) {
		return
	}
	if ix.stale || ix.winStart.IsZero() {
		ix.winStart, ix.winEnd = start, end
	}
	if start.Before(ix.winStart) {
		ix.winStart = start
	}
	if end.After(ix.winEnd) {
		ix.winEnd = end
	}
	// Pad by a year each way; year view asks for 366 days at once.
	lo := ix.winStart.AddDate(-1, 0, 0)
	hi := ix.winEnd.AddDate(1, 0, 0)

	ix.byDate = make(map[string]map[string]struct{})
	add := func(date time.Time, id string) {
		key := recur.DateKey(date)
		if ix.byDate[key] == nil {
			ix.byDate[key] = make(map[string]struct{})
		}
		ix.byDate[key][id] = struct{}{}
	}

	for id, rec := range ix.records {
		if rec.Archived {
			continue
		}
		if rec.Rule != nil {
			for _, occ := range rec.Rule.OccurrencesInRange(lo, hi) {
				add(occ, id)
			}
			continue
		}
		if rec.Due.IsZero() || rec.Status == StatusDone {
			continue
		}
		if rec.Due.Before(lo) || rec.Due.After(hi) {
			continue
		}
		add(rec.Due, id)
	}

	ix.winStart, ix.winEnd = lo, hi
	ix.stale = false
}
