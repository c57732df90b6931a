package ui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/config"
	"daybook/internal/core"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	cfg := config.Config{
		DiaryDir:           filepath.Join(t.TempDir(), "diary"),
		NotesDir:           filepath.Join(t.TempDir(), "notes"),
		WeekStartDay:       "monday",
		StartupView:        "month",
		UpcomingWindowDays: 3,
		RefreshRate:        "5s",
	}
	require.NoError(t, os.MkdirAll(cfg.DiaryDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.NotesDir, 0o755))

	// Populate defaults for the key bindings the tests press.
	defaults, err := config.LoadOrCreate("")
	require.NoError(t, err)
	cfg.Keys = defaults.Keys

	m := NewModel(&cfg, core.New(cfg, zerolog.Nop()))
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func press(m *Model, keys ...string) {
	for _, key := range keys {
		var msg tea.KeyMsg
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		m.Update(msg)
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestDayAndWeekNavigation(t *testing.T) {
	m := newTestModel(t)
	start := m.core.SelectedDate()

	press(m, "l")
	assert.Equal(t, start.AddDate(0, 0, 1), m.core.SelectedDate())

	press(m, "h", "h")
	assert.Equal(t, start.AddDate(0, 0, -1), m.core.SelectedDate())

	press(m, "j")
	assert.Equal(t, start.AddDate(0, 0, 6), m.core.SelectedDate())

	press(m, "k", "k")
	assert.Equal(t, start.AddDate(0, 0, -8), m.core.SelectedDate())
}

func TestMonthJump(t *testing.T) {
	m := newTestModel(t)
	start := m.core.SelectedDate()

	press(m, ">")
	assert.Equal(t, start.AddDate(0, 1, 0), m.core.SelectedDate())
	press(m, "<")
	assert.Equal(t, start, m.core.SelectedDate())
}

func TestViewModeKeys(t *testing.T) {
	m := newTestModel(t)

	press(m, "1")
	assert.Equal(t, calendar.ViewWeek, m.core.ViewMode())
	press(m, "3")
	assert.Equal(t, calendar.ViewYear, m.core.ViewMode())
	press(m, "2")
	assert.Equal(t, calendar.ViewMonth, m.core.ViewMode())
}

func TestViewRendersEveryMode(t *testing.T) {
	m := newTestModel(t)
	for _, key := range []string{"1", "2", "3"} {
		press(m, key)
		assert.NotEmpty(t, m.View())
	}
}

func TestGotoPrompt(t *testing.T) {
	m := newTestModel(t)
	start := m.core.SelectedDate()

	press(m, "g")
	typeText(m, "tomorrow")
	press(m, "enter")

	want := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	assert.Equal(t, want, m.core.SelectedDate())
}

func TestGotoPromptCancel(t *testing.T) {
	m := newTestModel(t)
	start := m.core.SelectedDate()

	press(m, "g")
	typeText(m, "2099-01-01")
	press(m, "esc")

	assert.Equal(t, start, m.core.SelectedDate())
	assert.Equal(t, promptNone, m.promptKind)
}

func TestSearchPromptAppliesFilter(t *testing.T) {
	m := newTestModel(t)
	writeDiary(t, m, "2023-04-10.md", "---\ntitle: Mon\n---\ndentist visit\n")
	m.mergeTick()

	press(m, "/")
	typeText(m, "dentist")
	press(m, "enter")

	assert.Equal(t, core.FilterKeyword, m.core.ActiveFilter().Kind)
	assert.Len(t, m.core.CurrentSearchResults(), 1)

	press(m, "c")
	assert.Equal(t, core.FilterNone, m.core.ActiveFilter().Kind)
}

func TestTagPromptPrefilled(t *testing.T) {
	m := newTestModel(t)
	writeDiary(t, m, "2023-04-10.md", "---\ntitle: Mon\ntags:\n  - travel\n---\nx\n")
	m.mergeTick()

	press(m, "#")
	typeText(m, "travel")
	press(m, "enter")

	assert.Equal(t, core.FilterTag, m.core.ActiveFilter().Kind)
	assert.Len(t, m.core.CurrentSearchResults(), 1)
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t)
	press(m, "?")
	assert.True(t, m.helpVisible)
	assert.Contains(t, m.View(), "Daybook Help")

	press(m, "x")
	assert.False(t, m.helpVisible)
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestToggleTaskFromTaskPane(t *testing.T) {
	m := newTestModel(t)
	path := filepath.Join(m.cfg.NotesDir, "report.md")
	require.NoError(t, os.WriteFile(path,
		[]byte("---\ntitle: Write report\ntags:\n  - task\n---\n"), 0o644))
	m.mergeTick()

	press(m, "tab") // focus tasks
	assert.Equal(t, core.PaneTasks, m.core.FocusedPane())

	press(m, " ")
	assert.Contains(t, m.core.Dirty(), path)
}

func TestFocusCycle(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, core.PaneCalendar, m.core.FocusedPane())
	press(m, "tab", "tab", "tab", "tab")
	assert.Equal(t, core.PaneCalendar, m.core.FocusedPane())
}

func TestStatsToggle(t *testing.T) {
	m := newTestModel(t)
	press(m, "s")
	assert.True(t, m.statsVisible)
	assert.Contains(t, m.View(), "Stats")
	press(m, "s")
	assert.False(t, m.statsVisible)
}

func writeDiary(t *testing.T, m *Model, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(m.cfg.DiaryDir, name), []byte(content), 0o644))
}
