package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/config"
	"daybook/internal/recur"
	"daybook/internal/task"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	cfg := config.Config{
		DiaryDir:           filepath.Join(t.TempDir(), "diary"),
		NotesDir:           filepath.Join(t.TempDir(), "notes"),
		WeekStartDay:       "monday",
		StartupView:        "month",
		UpcomingWindowDays: 3,
	}
	require.NoError(t, os.MkdirAll(cfg.DiaryDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.NotesDir, 0o755))

	c := New(cfg, zerolog.Nop())
	c.now = func() time.Time {
		return time.Date(2023, time.April, 5, 10, 0, 0, 0, time.UTC)
	}
	c.SelectDate(c.now())
	return c
}

func writeNote(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// touch pushes the file's mtime forward so the next poll cannot mistake
// a rewrite for the unchanged file.
func touch(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

const taskNote = `---
title: Write report
date: 2023-04-01T09:00:00
status: open
due: 2023-04-05
tags:
  - task
---
Quarterly numbers.
`

func TestTickDiscoversAndMerges(t *testing.T) {
	c := newTestCore(t)
	path := filepath.Join(c.cfg.NotesDir, "report.md")
	writeNote(t, path, taskNote)

	res := c.Tick()
	assert.Contains(t, res.Changed, path)

	list := c.CurrentTaskList()
	require.Len(t, list, 1)
	assert.Equal(t, "Write report", list[0].Title)
	assert.Equal(t, task.StatusOpen, list[0].Status)
}

func TestTickIsIdempotent(t *testing.T) {
	c := newTestCore(t)
	writeNote(t, filepath.Join(c.cfg.NotesDir, "report.md"), taskNote)

	c.Tick()
	res := c.Tick()
	assert.Empty(t, res.Changed)
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, res.Failed)
}

func TestDiaryFileIsNeverATask(t *testing.T) {
	c := newTestCore(t)
	path := filepath.Join(c.cfg.DiaryDir, "2023-04-05.md")
	writeNote(t, path, "---\ntitle: Wednesday\ntags:\n  - task\n---\nnotes\n")

	c.Tick()

	assert.True(t, c.HasEntry(c.now()))
	assert.Empty(t, c.CurrentTaskList())
}

func TestToggleDefersExternalEditUntilFlush(t *testing.T) {
	c := newTestCore(t)
	path := filepath.Join(c.cfg.NotesDir, "report.md")
	writeNote(t, path, taskNote)
	c.Tick()

	rec, err := c.ToggleTaskStatus(path)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, rec.Status)
	assert.Contains(t, c.Dirty(), path)

	// External edit arrives while the local toggle is unflushed.
	writeNote(t, path, "---\ntitle: Edited elsewhere\ntags:\n  - task\n---\n")
	touch(t, path)

	res := c.Tick()
	assert.Contains(t, res.Conflicts, path)
	assert.Equal(t, "Write report", c.tasks.Get(path).Title, "local state must not be overwritten")

	// The same external version is not re-reported.
	res = c.Tick()
	assert.Empty(t, res.Conflicts)

	require.NoError(t, c.RequestFlush(path))
	assert.Empty(t, c.Dirty())
	assert.Empty(t, c.Conflicts())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status: in-progress")

	// Flushed content matches the tracked signature; nothing to merge.
	res = c.Tick()
	assert.Empty(t, res.Changed)
}

func TestDeletedFileDropsFromIndexes(t *testing.T) {
	c := newTestCore(t)
	path := filepath.Join(c.cfg.NotesDir, "report.md")
	writeNote(t, path, taskNote)
	c.Tick()
	require.Len(t, c.CurrentTaskList(), 1)

	require.NoError(t, os.Remove(path))
	res := c.Tick()
	assert.Contains(t, res.Changed, path)
	assert.Empty(t, c.CurrentTaskList())
	assert.Empty(t, c.CurrentSearchResults())
}

func TestParseFailureKeepsPriorState(t *testing.T) {
	c := newTestCore(t)
	path := filepath.Join(c.cfg.NotesDir, "report.md")
	writeNote(t, path, taskNote)
	c.Tick()

	writeNote(t, path, "---\ntitle: [unclosed\n---\n")
	touch(t, path)

	res := c.Tick()
	assert.Contains(t, res.Failed, path)
	assert.Contains(t, c.ParseFailures(), path)

	list := c.CurrentTaskList()
	require.Len(t, list, 1)
	assert.Equal(t, "Write report", list[0].Title)

	// Reported once, not every poll.
	res = c.Tick()
	assert.Empty(t, res.Failed)
}

func TestFilterHighlightsWithoutReshaping(t *testing.T) {
	c := newTestCore(t)
	writeNote(t, filepath.Join(c.cfg.DiaryDir, "2023-04-10.md"),
		"---\ntitle: Monday\n---\ndentist appointment at nine\n")
	writeNote(t, filepath.Join(c.cfg.DiaryDir, "2023-04-11.md"),
		"---\ntitle: Tuesday\n---\nnothing notable\n")
	c.Tick()

	before := c.CurrentCells()
	c.ApplyFilter("dentist")
	after := c.CurrentCells()
	require.Equal(t, len(before), len(after), "filter must not change the calendar shape")

	matched := 0
	for _, cell := range after {
		if cell.Matches {
			matched++
			assert.Equal(t, "2023-04-10", recur.DateKey(cell.Date))
		}
	}
	assert.Equal(t, 1, matched)

	results := c.CurrentSearchResults()
	require.Len(t, results, 1)

	c.ClearFilter()
	assert.Nil(t, c.CurrentSearchResults())
	for _, cell := range c.CurrentCells() {
		assert.True(t, cell.Matches)
	}
}

func TestFilterRestrictsTaskList(t *testing.T) {
	c := newTestCore(t)
	writeNote(t, filepath.Join(c.cfg.NotesDir, "report.md"), taskNote)
	writeNote(t, filepath.Join(c.cfg.NotesDir, "errand.md"),
		"---\ntitle: Buy stamps\ntags:\n  - task\n---\n")
	c.Tick()
	require.Len(t, c.CurrentTaskList(), 2)

	c.ApplyFilter("report")
	list := c.CurrentTaskList()
	require.Len(t, list, 1)
	assert.Equal(t, "Write report", list[0].Title)
}

func TestTagFilter(t *testing.T) {
	c := newTestCore(t)
	writeNote(t, filepath.Join(c.cfg.DiaryDir, "2023-04-03.md"),
		"---\ntitle: Monday\ntags:\n  - travel\n---\nflight day\n")
	c.Tick()

	c.ApplyFilter("#travel")
	assert.Equal(t, FilterTag, c.ActiveFilter().Kind)
	assert.Len(t, c.CurrentSearchResults(), 1)

	c.ApplyFilter("#nope")
	assert.Empty(t, c.CurrentSearchResults())
}

func TestEnsureDiaryEntrySeedsTimeblock(t *testing.T) {
	c := newTestCore(t)
	path, err := c.EnsureDiaryEntry(c.now())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.True(t, c.HasEntry(c.now()))

	layout := c.CurrentTimeblockLayout()
	require.NotEmpty(t, layout)
	assert.Equal(t, "05:00", layout[0].Time)

	// Second call reuses the existing entry.
	again, err := c.EnsureDiaryEntry(c.now())
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestSetTimeblockStagesEdit(t *testing.T) {
	c := newTestCore(t)
	_, err := c.EnsureDiaryEntry(c.now())
	require.NoError(t, err)

	require.NoError(t, c.SetTimeblock("06:00", "run"))
	assert.Len(t, c.Dirty(), 1)

	var found bool
	for _, e := range c.CurrentTimeblockLayout() {
		if e.Time == "06:00" {
			assert.Equal(t, "run", e.Activity)
			found = true
		}
	}
	assert.True(t, found)
}

func TestAddTask(t *testing.T) {
	c := newTestCore(t)
	due := time.Date(2023, time.April, 20, 0, 0, 0, 0, time.UTC)
	path, err := c.AddTask("Renew passport", due)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(c.cfg.NotesDir, "renew-passport.md"), path)

	list := c.CurrentTaskList()
	require.Len(t, list, 1)
	assert.Equal(t, due, list[0].Due)

	// A second task with the same title gets a fresh path.
	other, err := c.AddTask("Renew passport", time.Time{})
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestViewStateTransitions(t *testing.T) {
	c := newTestCore(t)
	assert.Equal(t, calendar.ViewMonth, c.ViewMode())

	c.ChangeViewMode(calendar.ViewWeek)
	assert.Len(t, c.CurrentCells(), 7)

	c.ChangeViewMode(calendar.ViewYear)
	assert.Len(t, c.CurrentCells(), 365)

	c.FocusNext()
	assert.Equal(t, PaneTasks, c.FocusedPane())
	c.FocusNext()
	c.FocusNext()
	c.FocusNext()
	assert.Equal(t, PaneCalendar, c.FocusedPane())
}

func TestSummaryReducesMetrics(t *testing.T) {
	c := newTestCore(t)
	writeNote(t, filepath.Join(c.cfg.DiaryDir, "2023-04-03.md"),
		"---\ntitle: Mon\npomodoros: 4\nmeditate: true\n---\nx\n")
	writeNote(t, filepath.Join(c.cfg.DiaryDir, "2023-04-04.md"),
		"---\ntitle: Tue\npomodoros: 2\nmeditate: false\n---\nx\n")
	c.Tick()

	stats := c.Summary()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 6, stats.Counters["pomodoros"])
	assert.Equal(t, 1, stats.FlagDays["meditate"])
}
