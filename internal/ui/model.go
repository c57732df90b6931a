package ui

import (
	"fmt"
	"os/exec"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/config"
	"daybook/internal/core"
	"daybook/internal/dateparse"
	"daybook/internal/task"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type promptKind int

const (
	promptNone promptKind = iota
	promptSearch
	promptTag
	promptGoto
	promptTimeblock
)

type Model struct {
	cfg  *config.Config
	core *core.Core

	// UI state
	width        int
	height       int
	helpVisible  bool
	statsVisible bool
	taskCursor   int
	slotCursor   int
	message      string
	messageTimer *time.Timer

	// Prompt state
	prompt     textinput.Model
	promptKind promptKind

	styles Styles
}

type Styles struct {
	Normal    lipgloss.Style
	Dim       lipgloss.Style
	Selected  lipgloss.Style
	Today     lipgloss.Style
	Entry     lipgloss.Style
	Due       lipgloss.Style
	Overdue   lipgloss.Style
	Header    lipgloss.Style
	Help      lipgloss.Style
	Message   lipgloss.Style
	Conflict  lipgloss.Style
	Border    lipgloss.Style
	FocusMark lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color("220")).
			Bold(true),
		Today: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true),
		Entry: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")),
		Due: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		Overdue: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true).
			Underline(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Conflict: lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")),
		FocusMark: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
	}
}

func NewModel(cfg *config.Config, c *core.Core) *Model {
	input := textinput.New()
	input.CharLimit = 120
	input.Width = 40

	return &Model{
		cfg:    cfg,
		core:   c,
		prompt: input,
		styles: DefaultStyles(),
	}
}

// Message types
type tickMsg struct{}
type messageTimeoutMsg struct{}

// RefreshMsg asks for an immediate reconciliation pass; the file
// watcher sends it when something under the tracked directories moves.
type RefreshMsg struct{}

type editorFinishedMsg struct{ err error }

func (m *Model) Init() tea.Cmd {
	m.core.Tick()
	return tea.Batch(
		tea.EnterAltScreen,
		m.tickCmd(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tickMsg:
		if m.cfg.AutoRefresh {
			m.mergeTick()
			return m, m.tickCmd()
		}
		return m, nil

	case RefreshMsg:
		m.mergeTick()
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.showMessage(fmt.Sprintf("editor: %v", msg.err))
		}
		m.mergeTick()
		return m, nil

	case messageTimeoutMsg:
		m.message = ""
		return m, nil
	}

	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.helpVisible {
		return m.viewHelp()
	}

	var main string
	if m.statsVisible {
		main = m.renderStats()
	} else {
		left := m.renderCalendar()
		right := lipgloss.JoinVertical(lipgloss.Left,
			m.renderTasks(),
			m.renderDayDetail(),
		)
		main = lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	}

	sections := []string{main}
	if m.promptKind != promptNone {
		sections = append(sections, m.renderPrompt())
	}
	sections = append(sections, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// mergeTick runs one reconciliation pass and surfaces its outcome.
func (m *Model) mergeTick() {
	res := m.core.Tick()
	if len(res.Conflicts) > 0 {
		m.showMessage(fmt.Sprintf("%d external change(s) deferred; save with %q to resolve",
			len(res.Conflicts), m.cfg.Keys.Flush))
	} else if len(res.Failed) > 0 {
		m.showMessage(fmt.Sprintf("%d file(s) failed to parse", len(res.Failed)))
	}
	m.clampCursors()
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promptKind != promptNone {
		return m.handlePromptKeys(msg)
	}

	if m.helpVisible {
		m.helpVisible = false
		return m, nil
	}

	keys := m.cfg.Keys
	switch msg.String() {
	case "ctrl+c", keys.Quit:
		return m, tea.Quit

	case keys.Help:
		m.helpVisible = true
		return m, nil

	case keys.Refresh:
		m.mergeTick()
		m.showMessage("refreshed")
		return m, nil

	case keys.Today:
		m.core.SelectDate(time.Now())
		return m, nil

	case keys.GotoDate:
		return m.openPrompt(promptGoto, "date: ", "")

	case keys.Search:
		return m.openPrompt(promptSearch, "search: ", "")

	case keys.TagFilter:
		return m.openPrompt(promptTag, "tag: ", "#")

	case keys.ClearFilter:
		m.core.ClearFilter()
		return m, nil

	case keys.WeekView:
		m.core.ChangeViewMode(calendar.ViewWeek)
		return m, nil

	case keys.MonthView:
		m.core.ChangeViewMode(calendar.ViewMonth)
		return m, nil

	case keys.YearView:
		m.core.ChangeViewMode(calendar.ViewYear)
		return m, nil

	case keys.Stats:
		m.statsVisible = !m.statsVisible
		return m, nil

	case keys.FocusNext:
		m.core.FocusNext()
		m.clampCursors()
		return m, nil

	case keys.Flush:
		if err := m.core.FlushAll(); err != nil {
			m.showMessage(fmt.Sprintf("save failed: %v", err))
		} else {
			m.showMessage("saved")
		}
		return m, nil

	case keys.Edit:
		return m.openEditor()

	case keys.ToggleTask:
		return m.toggleSelectedTask()

	case keys.CyclePriority:
		if rec, ok := m.selectedTask(); ok {
			if _, err := m.core.CycleTaskPriority(rec.ID); err != nil {
				m.showMessage(err.Error())
			}
		}
		return m, nil

	case keys.Archive:
		if rec, ok := m.selectedTask(); ok {
			if _, err := m.core.SetTaskArchived(rec.ID, !rec.Archived); err != nil {
				m.showMessage(err.Error())
			}
			m.clampCursors()
		}
		return m, nil
	}

	switch m.core.FocusedPane() {
	case core.PaneTasks:
		return m.handleTaskKeys(msg)
	case core.PaneTimeblock:
		return m.handleTimeblockKeys(msg)
	default:
		return m.handleCalendarKeys(msg)
	}
}

func (m *Model) handleCalendarKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.cfg.Keys
	sel := m.core.SelectedDate()

	switch msg.String() {
	case keys.NextDay, "right":
		m.core.SelectDate(sel.AddDate(0, 0, 1))

	case keys.PrevDay, "left":
		m.core.SelectDate(sel.AddDate(0, 0, -1))

	case keys.NextWeek, "down":
		m.core.SelectDate(sel.AddDate(0, 0, 7))

	case keys.PrevWeek, "up":
		m.core.SelectDate(sel.AddDate(0, 0, -7))

	case ">":
		m.core.SelectDate(sel.AddDate(0, 1, 0))

	case "<":
		m.core.SelectDate(sel.AddDate(0, -1, 0))
	}

	return m, nil
}

func (m *Model) handleTaskKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.core.CurrentTaskList())
	switch msg.String() {
	case "j", "down":
		if m.taskCursor < n-1 {
			m.taskCursor++
		}
	case "k", "up":
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	}
	return m, nil
}

func (m *Model) handleTimeblockKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	layout := m.core.CurrentTimeblockLayout()
	switch msg.String() {
	case "j", "down":
		if m.slotCursor < len(layout)-1 {
			m.slotCursor++
		}
	case "k", "up":
		if m.slotCursor > 0 {
			m.slotCursor--
		}
	case "enter":
		if m.slotCursor < len(layout) {
			slot := layout[m.slotCursor]
			return m.openPrompt(promptTimeblock, slot.Time+": ", slot.Activity)
		}
	}
	return m, nil
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.closePrompt()
		return m, nil

	case tea.KeyEnter:
		value := m.prompt.Value()
		kind := m.promptKind
		m.closePrompt()
		m.commitPrompt(kind, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) commitPrompt(kind promptKind, value string) {
	switch kind {
	case promptGoto:
		date, err := dateparse.Parse(value, time.Now())
		if err != nil {
			m.showMessage(err.Error())
			return
		}
		m.core.SelectDate(date)

	case promptSearch, promptTag:
		if value == "" || value == "#" {
			m.core.ClearFilter()
			return
		}
		m.core.ApplyFilter(value)
		m.showMessage(fmt.Sprintf("%d match(es)", len(m.core.CurrentSearchResults())))

	case promptTimeblock:
		layout := m.core.CurrentTimeblockLayout()
		if m.slotCursor >= len(layout) {
			return
		}
		if err := m.core.SetTimeblock(layout[m.slotCursor].Time, value); err != nil {
			m.showMessage(err.Error())
		}
	}
}

func (m *Model) openPrompt(kind promptKind, label, initial string) (tea.Model, tea.Cmd) {
	m.promptKind = kind
	m.prompt.Prompt = label
	m.prompt.SetValue(initial)
	m.prompt.CursorEnd()
	return m, m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptKind = promptNone
	m.prompt.Blur()
	m.prompt.SetValue("")
}

// openEditor hands the selected date's diary file to $EDITOR, creating
// the entry first when needed, and re-merges when the editor exits.
func (m *Model) openEditor() (tea.Model, tea.Cmd) {
	path, err := m.core.EnsureDiaryEntry(m.core.SelectedDate())
	if err != nil {
		m.showMessage(fmt.Sprintf("create entry: %v", err))
		return m, nil
	}
	cmd := exec.Command(m.cfg.Editor, path)
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m *Model) toggleSelectedTask() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	updated, err := m.core.ToggleTaskStatus(rec.ID)
	if err != nil {
		m.showMessage(err.Error())
		return m, nil
	}
	if updated.Recurring() {
		m.showMessage("occurrence toggled; next due " + updated.Due.Format("Jan 2"))
	}
	return m, nil
}

func (m *Model) selectedTask() (*task.Record, bool) {
	list := m.core.CurrentTaskList()
	if len(list) == 0 || m.taskCursor >= len(list) {
		return nil, false
	}
	return list[m.taskCursor], true
}

func (m *Model) clampCursors() {
	if n := len(m.core.CurrentTaskList()); m.taskCursor >= n {
		m.taskCursor = n - 1
	}
	if m.taskCursor < 0 {
		m.taskCursor = 0
	}
	if n := len(m.core.CurrentTimeblockLayout()); m.slotCursor >= n {
		m.slotCursor = 0
	}
}

func (m *Model) showMessage(msg string) {
	m.message = msg
	if m.messageTimer != nil {
		m.messageTimer.Stop()
	}
	m.messageTimer = time.AfterFunc(3*time.Second, func() {
		m.message = ""
	})
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.Refresh(), func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
