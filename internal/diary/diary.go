// Package diary tracks which dates have diary entries and the tracked
// metric values read from their frontmatter. Entries are read-only
// snapshots; the files stay the source of truth.
package diary

import (
	"path/filepath"
	"strings"
	"time"

	"daybook/internal/note"
	"daybook/internal/recur"
)

// EntryRef is a snapshot of one diary file.
type EntryRef struct {
	Date     time.Time
	Path     string
	HasBody  bool
	Tags     []string
	Metrics  map[string]note.MetricValue
	Modified time.Time
}

// DateFromPath extracts the entry date from a YYYY-MM-DD.md filename.
// ok is false for files that are not diary entries.
func DateFromPath(path string) (time.Time, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	t, err := time.Parse("2006-01-02", stem)
	if err != nil {
		return time.Time{}, false
	}
	return recur.Date(t), true
}

// FromNote builds an entry ref from a parsed diary file. Returns nil if
// the filename does not carry a date.
func FromNote(n *note.Record) *EntryRef {
	date, ok := DateFromPath(n.Path)
	if !ok {
		return nil
	}
	modified := n.Modified
	if modified.IsZero() {
		modified = n.Created
	}
	return &EntryRef{
		Date:     date,
		Path:     n.Path,
		HasBody:  strings.TrimSpace(n.Body) != "",
		Tags:     n.Tags,
		Metrics:  n.Metrics(),
		Modified: modified,
	}
}

// Set holds the known diary entries keyed by date.
type Set struct {
	byDate map[string]*EntryRef
	byPath map[string]string
}

func NewSet() *Set {
	return &Set{
		byDate: make(map[string]*EntryRef),
		byPath: make(map[string]string),
	}
}

func (s *Set) Upsert(ref *EntryRef) {
	if ref == nil {
		return
	}
	key := recur.DateKey(ref.Date)
	s.byDate[key] = ref
	s.byPath[ref.Path] = key
}

// RemovePath drops the entry backed by the given file.
func (s *Set) RemovePath(path string) {
	key, ok := s.byPath[path]
	if !ok {
		return
	}
	delete(s.byPath, path)
	delete(s.byDate, key)
}

func (s *Set) Get(date time.Time) *EntryRef {
	return s.byDate[recur.DateKey(date)]
}

func (s *Set) Has(date time.Time) bool {
	return s.Get(date) != nil
}

func (s *Set) Len() int { return len(s.byDate) }

// Stats are simple reductions over the tracked metrics of the entries in
// a date range: counters are summed, flags count the days they were set.
type Stats struct {
	Counters map[string]int
	FlagDays map[string]int
	Entries  int
}

// Aggregate reduces the entries in [start, end] inclusive.
func (s *Set) Aggregate(start, end time.Time) Stats {
	st := Stats{
		Counters: make(map[string]int),
		FlagDays: make(map[string]int),
	}
	for d := recur.Date(start); !d.After(recur.Date(end)); d = d.AddDate(0, 0, 1) {
		ref := s.Get(d)
		if ref == nil {
			continue
		}
		st.Entries++
		for name, v := range ref.Metrics {
			if v.IsFlag {
				if v.Flag {
					st.FlagDays[name]++
				}
			} else {
				st.Counters[name] += v.Count
			}
		}
	}
	return st
}
