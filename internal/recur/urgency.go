package recur

import "time"

// Urgency classifies a due date relative to today. The ordering is
// meaningful: as today advances with a fixed due date, a task's urgency
// never moves backward.
type Urgency int

const (
	UrgencyNone Urgency = iota
	UrgencyUpcoming
	UrgencyDueToday
	UrgencyOverdue
)

func (u Urgency) String() string {
	switch u {
	case UrgencyUpcoming:
		return "upcoming"
	case UrgencyDueToday:
		return "due-today"
	case UrgencyOverdue:
		return "overdue"
	}
	return "none"
}

// ClassifyUrgency buckets a due date: overdue when it has passed,
// due-today when it is today, upcoming when it falls within the next
// windowDays days, none otherwise. A zero due date is always none.
func ClassifyUrgency(due, today time.Time, windowDays int) Urgency {
	if due.IsZero() {
		return UrgencyNone
	}
	due = Date(due)
	today = Date(today)
	switch {
	case due.Before(today):
		return UrgencyOverdue
	case due.Equal(today):
		return UrgencyDueToday
	}
	days := int(due.Sub(today) / (24 * time.Hour))
	if days <= windowDays {
		return UrgencyUpcoming
	}
	return UrgencyNone
}
