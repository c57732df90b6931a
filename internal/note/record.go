package note

import (
	"time"
)

// Kind distinguishes the two record layouts on disk: one file per diary
// date and one file per task note.
type Kind int

const (
	KindDiary Kind = iota
	KindTask
)

func (k Kind) String() string {
	if k == KindTask {
		return "task"
	}
	return "diary"
}

// Recurrence is the raw recurrence block as it appears in frontmatter.
// It is not validated here; the task index validates it on upsert so a
// malformed rule is a ValidationError, not a ParseError.
type Recurrence struct {
	Frequency         string   `yaml:"frequency"`
	DaysOfWeek        []string `yaml:"days_of_week,omitempty"`
	DayOfMonth        int      `yaml:"day_of_month,omitempty"`
	CompleteInstances []string `yaml:"complete_instances,omitempty"`
}

// Record is one parsed file: the recognized frontmatter fields, a
// catch-all Extra map preserved verbatim for round-trip serialization,
// and the free-text body below the closing fence.
type Record struct {
	Path string

	Title      string
	Created    time.Time
	Modified   time.Time
	Status     string
	Due        string // YYYY-MM-DD, empty if unset
	Priority   string
	Tags       []string
	Contexts   []string
	Recurrence *Recurrence

	// Extra holds frontmatter keys this program does not interpret.
	// They survive a parse/serialize round trip unchanged.
	Extra map[string]any

	Body string
}

// HasTag reports whether the record carries the given free tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsTask reports whether the record is a task note (tagged "task").
func (r *Record) IsTask() bool {
	return r.HasTag("task")
}

// IsArchived reports whether the record carries the "archive" tag.
func (r *Record) IsArchived() bool {
	return r.HasTag("archive")
}

// Metrics extracts the tracked metric values from the record's extra
// fields: integers become counters, booleans become flags. Everything
// else in Extra is ignored.
func (r *Record) Metrics() map[string]MetricValue {
	if len(r.Extra) == 0 {
		return nil
	}
	out := make(map[string]MetricValue)
	for key, val := range r.Extra {
		switch v := val.(type) {
		case bool:
			out[key] = MetricValue{Flag: v, IsFlag: true}
		case int:
			out[key] = MetricValue{Count: v}
		case int64:
			out[key] = MetricValue{Count: int(v)}
		case float64:
			out[key] = MetricValue{Count: int(v)}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MetricValue is one tracked metric read from frontmatter: either a
// counter (pomodoros: 3) or a flag (meditate: true).
type MetricValue struct {
	Count  int
	Flag   bool
	IsFlag bool
}
