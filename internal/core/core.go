// Package core owns the in-memory model: the task index, diary set,
// search index and reconciler, plus the view state the rendering layer
// drives. It is constructed once at startup and handed to the UI; all
// interaction goes through its methods, never through shared globals.
//
// The model is single-threaded by design. Tick is the only entry point
// that touches the disk, and it merges every reconciliation result
// before returning, so queries between ticks never observe a
// half-updated index.
package core

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/config"
	"daybook/internal/diary"
	"daybook/internal/livesync"
	"daybook/internal/note"
	"daybook/internal/recur"
	"daybook/internal/search"
	"daybook/internal/task"

	"github.com/rs/zerolog"
)

// Pane identifies the focused pane.
type Pane int

const (
	PaneCalendar Pane = iota
	PaneTasks
	PaneNotes
	PaneTimeblock
)

func (p Pane) String() string {
	switch p {
	case PaneTasks:
		return "tasks"
	case PaneNotes:
		return "notes"
	case PaneTimeblock:
		return "timeblock"
	}
	return "calendar"
}

// FilterKind distinguishes the two query modes.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterKeyword
	FilterTag
)

// Filter is the active search or tag filter.
type Filter struct {
	Kind  FilterKind
	Value string
}

// Core is the owned model object.
type Core struct {
	cfg config.Config
	log zerolog.Logger

	tasks   *task.Index
	entries *diary.Set
	index   *search.Index
	recon   *livesync.Reconciler
	agg     *calendar.Aggregator

	// notes keeps the latest parsed record per path so local edits can
	// be serialized back on flush.
	notes       map[string]*note.Record
	parseErrors map[string]string
	taskFilter  task.Filter

	mode     calendar.ViewMode
	pane     Pane
	selected time.Time
	filter   Filter

	// filter results, recomputed on apply and after merges
	filterIDs   []string
	filterDates map[string]bool

	now func() time.Time
}

// New builds the core. It does not touch the disk; the first Tick does.
func New(cfg config.Config, log zerolog.Logger) *Core {
	c := &Core{
		cfg:         cfg,
		log:         log,
		tasks:       task.NewIndex(),
		entries:     diary.NewSet(),
		index:       search.NewIndex(),
		recon:       livesync.NewReconciler(cfg.PollBudget, log),
		notes:       make(map[string]*note.Record),
		parseErrors: make(map[string]string),
		taskFilter:  task.Filter{Status: "all"},
		now:         time.Now,
	}
	c.agg = &calendar.Aggregator{
		Tasks:     c.tasks,
		Entries:   c.entries,
		WeekStart: cfg.WeekStart(),
	}
	c.selected = recur.Date(c.now())
	switch cfg.StartupView {
	case "week":
		c.mode = calendar.ViewWeek
	case "year":
		c.mode = calendar.ViewYear
	default:
		c.mode = calendar.ViewMonth
	}
	return c
}

// TickResult summarizes one reconciliation pass for the status line.
type TickResult struct {
	Changed   []string
	Conflicts []string
	Failed    []string
}

// Tick discovers new files, polls the tracked set within the configured
// budget, and merges every result before returning.
func (c *Core) Tick() TickResult {
	c.discover()

	var res TickResult
	for _, ch := range c.recon.Poll() {
		switch {
		case ch.Deleted:
			c.remove(ch.Path)
			res.Changed = append(res.Changed, ch.Path)
		case ch.Conflict:
			res.Conflicts = append(res.Conflicts, ch.Path)
		case ch.Err != nil:
			c.parseErrors[ch.Path] = ch.Err.Error()
			res.Failed = append(res.Failed, ch.Path)
		default:
			c.apply(ch.Record)
			res.Changed = append(res.Changed, ch.Path)
		}
	}

	if len(res.Changed) > 0 && c.filter.Kind != FilterNone {
		c.refreshFilter()
	}
	return res
}

// discover walks the diary and notes directories and starts tracking
// any markdown file not seen before.
func (c *Core) discover() {
	for _, dir := range []string{c.cfg.DiaryDir, c.cfg.NotesDir} {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				name := d.Name()
				if name == "templates" || strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".md" && !c.recon.Tracked(path) {
				c.recon.Track(path)
			}
			return nil
		})
	}
}

// apply merges one freshly parsed record into the indexes. A record
// that fails task validation is rejected whole; prior state for the
// source stays.
func (c *Core) apply(rec *note.Record) {
	path := rec.Path
	delete(c.parseErrors, path)

	if c.isDiaryPath(path) {
		if ref := diary.FromNote(rec); ref != nil {
			c.notes[path] = rec
			c.entries.Upsert(ref)
			c.index.Add(searchDoc(rec, search.SourceDiary))
			c.tasks.Invalidate()
			return
		}
	}

	if rec.IsTask() {
		trec, err := task.FromNote(rec)
		if err != nil {
			c.parseErrors[path] = err.Error()
			c.log.Warn().Err(err).Str("path", path).Msg("task rejected")
			return
		}
		c.notes[path] = rec
		if err := c.tasks.Upsert(trec); err != nil {
			c.parseErrors[path] = err.Error()
			return
		}
		c.index.Add(searchDoc(rec, search.SourceTask))
		return
	}

	// Plain note: searchable, nothing else.
	c.notes[path] = rec
	c.index.Add(searchDoc(rec, search.SourceDiary))
}

func (c *Core) remove(path string) {
	delete(c.notes, path)
	delete(c.parseErrors, path)
	c.entries.RemovePath(path)
	c.tasks.Remove(path)
	c.index.Remove(path)
}

// isDiaryPath applies the tie-break rule: anything under the diary
// directory with a date-shaped name is a diary entry, never a task.
func (c *Core) isDiaryPath(path string) bool {
	if c.cfg.DiaryDir != "" {
		rel, err := filepath.Rel(c.cfg.DiaryDir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return false
		}
	}
	_, ok := diary.DateFromPath(path)
	return ok
}

func searchDoc(rec *note.Record, kind search.Kind) search.Document {
	modified := rec.Modified
	if modified.IsZero() {
		modified = rec.Created
	}
	return search.Document{
		ID:       rec.Path,
		Kind:     kind,
		Modified: modified,
		Text:     rec.Title + "\n" + rec.Body,
		Tags:     rec.Tags,
	}
}

// taskPath derives a fresh file path for a new task note from its
// title, suffixing on collision.
func (c *Core) taskPath(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "task"
	}
	path := filepath.Join(c.cfg.NotesDir, slug+".md")
	for i := 2; c.recon.Tracked(path); i++ {
		path = filepath.Join(c.cfg.NotesDir, fmt.Sprintf("%s-%d.md", slug, i))
	}
	return path
}

// DiaryPath returns the file backing a date's diary entry.
func (c *Core) DiaryPath(date time.Time) string {
	return filepath.Join(c.cfg.DiaryDir, recur.DateKey(recur.Date(date))+".md")
}

// ParseFailures exposes the per-source failure flags.
func (c *Core) ParseFailures() map[string]string {
	return c.parseErrors
}

// Conflicts lists sources whose external changes are deferred behind
// unflushed local edits.
func (c *Core) Conflicts() []string {
	return c.recon.Conflicts()
}

// Dirty lists sources with unflushed local edits.
func (c *Core) Dirty() []string {
	return c.recon.DirtyPaths()
}
