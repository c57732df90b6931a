// Package task holds the task records parsed from note files and the
// date index that answers due/overdue queries for the calendar.
package task

import (
	"fmt"
	"time"

	"daybook/internal/note"
	"daybook/internal/recur"
)

type Status int

const (
	StatusOpen Status = iota
	StatusInProgress
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in-progress"
	case StatusDone:
		return "done"
	}
	return "open"
}

// ParseStatus maps a frontmatter status value; anything unrecognized is
// open, matching how the files treat a missing status.
func ParseStatus(s string) Status {
	switch s {
	case "in-progress":
		return StatusInProgress
	case "done":
		return StatusDone
	}
	return StatusOpen
}

type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	}
	return "normal"
}

func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	}
	return PriorityNormal
}

// Cycle steps low -> normal -> high -> low.
func (p Priority) Cycle() Priority {
	switch p {
	case PriorityLow:
		return PriorityNormal
	case PriorityNormal:
		return PriorityHigh
	}
	return PriorityLow
}

// ValidationError rejects a record on upsert. The record is not stored
// and no partial index state is retained.
type ValidationError struct {
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %s: invalid %s: %s", e.ID, e.Field, e.Reason)
}

// Record is one task. ID is the backing file path, which is stable for
// the life of the file. For a recurring task Due is the next unresolved
// occurrence, recomputed from the rule, never a fixed deadline.
type Record struct {
	ID       string
	Title    string
	Created  time.Time
	Modified time.Time
	Status   Status
	Due      time.Time // zero when the task has no due date
	Priority Priority
	Tags     []string
	Contexts []string
	Archived bool
	Rule     *recur.Rule // nil for non-recurring tasks
}

// Recurring reports whether the task carries a recurrence rule.
func (r *Record) Recurring() bool { return r.Rule != nil }

// EffectiveStatus resolves the status for a given day: a recurring task
// is done-for-today iff today's occurrence is in the completed set.
func (r *Record) EffectiveStatus(today time.Time) Status {
	if r.Rule == nil {
		return r.Status
	}
	if r.Rule.IsCompleted(recur.Date(today)) {
		return StatusDone
	}
	return StatusOpen
}

// EffectiveDue is the date the task is next due: the fixed due date for
// a plain task, the first unresolved occurrence for a recurring one.
func (r *Record) EffectiveDue() time.Time {
	if r.Rule == nil {
		return r.Due
	}
	return r.Rule.NextDue(r.Rule.Anchor)
}

// Urgency classifies the task's effective due date against today.
func (r *Record) Urgency(today time.Time, windowDays int) recur.Urgency {
	if r.Rule == nil && r.Status == StatusDone {
		return recur.UrgencyNone
	}
	return recur.ClassifyUrgency(r.EffectiveDue(), today, windowDays)
}

// FromNote converts a parsed note into a task record, validating the
// recurrence block. A malformed rule or due date is a *ValidationError.
func FromNote(n *note.Record) (*Record, error) {
	rec := &Record{
		ID:       n.Path,
		Title:    n.Title,
		Created:  n.Created,
		Modified: n.Modified,
		Status:   ParseStatus(n.Status),
		Priority: ParsePriority(n.Priority),
		Tags:     n.Tags,
		Contexts: n.Contexts,
		Archived: n.IsArchived(),
	}
	if rec.Title == "" {
		rec.Title = n.Path
	}

	if n.Due != "" {
		due, err := time.Parse("2006-01-02", n.Due)
		if err != nil {
			return nil, &ValidationError{ID: n.Path, Field: "due", Reason: fmt.Sprintf("bad date %q", n.Due)}
		}
		rec.Due = recur.Date(due)
	}

	if n.Recurrence != nil {
		rule, err := ruleFromNote(n)
		if err != nil {
			return nil, err
		}
		rec.Rule = rule
		rec.Due = rule.NextDue(rule.Anchor)
	}

	return rec, nil
}

func ruleFromNote(n *note.Record) (*recur.Rule, error) {
	raw := n.Recurrence

	freq, err := recur.ParseFrequency(raw.Frequency)
	if err != nil {
		return nil, &ValidationError{ID: n.Path, Field: "frequency", Reason: err.Error()}
	}

	rule := &recur.Rule{Freq: freq}

	for _, name := range raw.DaysOfWeek {
		wd, err := recur.ParseWeekday(name)
		if err != nil {
			return nil, &ValidationError{ID: n.Path, Field: "days_of_week", Reason: err.Error()}
		}
		rule.Weekdays = append(rule.Weekdays, wd)
	}

	// The anchor is the task's creation date; a monthly day_of_month
	// override re-anchors the day.
	anchor := n.Created
	if anchor.IsZero() {
		return nil, &ValidationError{ID: n.Path, Field: "date", Reason: "recurring task needs a creation date anchor"}
	}
	anchor = recur.Date(anchor)
	if raw.DayOfMonth != 0 {
		if raw.DayOfMonth < 1 || raw.DayOfMonth > 31 {
			return nil, &ValidationError{ID: n.Path, Field: "day_of_month", Reason: fmt.Sprintf("out of range: %d", raw.DayOfMonth)}
		}
		anchor = time.Date(anchor.Year(), anchor.Month(), raw.DayOfMonth, 0, 0, 0, 0, time.UTC)
	}
	rule.Anchor = anchor

	for _, ds := range raw.CompleteInstances {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return nil, &ValidationError{ID: n.Path, Field: "complete_instances", Reason: fmt.Sprintf("bad date %q", ds)}
		}
		rule.MarkComplete(d)
	}

	return rule, nil
}

// ApplyToNote writes the mutable task state back into a note record so
// it can be serialized. The note's extra fields are untouched.
func (r *Record) ApplyToNote(n *note.Record) {
	n.Status = r.Status.String()
	n.Priority = r.Priority.String()
	n.Tags = r.Tags
	n.Contexts = r.Contexts
	if !r.Due.IsZero() && r.Rule == nil {
		n.Due = r.Due.Format("2006-01-02")
	}
	if r.Rule != nil {
		if n.Recurrence == nil {
			n.Recurrence = &note.Recurrence{}
		}
		n.Recurrence.Frequency = r.Rule.Freq.String()
		n.Recurrence.CompleteInstances = r.Rule.CompletedDates()
	}
}
