package ui

import (
	"fmt"
	"sort"
	"strings"

	"daybook/internal/core"
	"daybook/internal/recur"
	"daybook/internal/task"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

func (m *Model) viewHelp() string {
	k := m.cfg.Keys
	help := []string{
		m.styles.Header.Render("Daybook Help"),
		"",
		m.styles.Normal.Render("Navigation:"),
		m.styles.Help.Render(fmt.Sprintf("  %s/%s     - previous / next day", k.PrevDay, k.NextDay)),
		m.styles.Help.Render(fmt.Sprintf("  %s/%s     - previous / next week", k.PrevWeek, k.NextWeek)),
		m.styles.Help.Render("  </>     - previous / next month"),
		m.styles.Help.Render(fmt.Sprintf("  %s       - go to today", k.Today)),
		m.styles.Help.Render(fmt.Sprintf("  %s       - go to date (e.g. 'fri', '+3d', '2026-01-15')", k.GotoDate)),
		m.styles.Help.Render(fmt.Sprintf("  %s/%s/%s   - week / month / year view", k.WeekView, k.MonthView, k.YearView)),
		m.styles.Help.Render(fmt.Sprintf("  %s     - cycle pane focus", k.FocusNext)),
		"",
		m.styles.Normal.Render("Tasks:"),
		m.styles.Help.Render("  space   - toggle status (recurring: toggle today's occurrence)"),
		m.styles.Help.Render(fmt.Sprintf("  %s       - cycle priority", k.CyclePriority)),
		m.styles.Help.Render(fmt.Sprintf("  %s       - archive / unarchive", k.Archive)),
		"",
		m.styles.Normal.Render("Diary:"),
		m.styles.Help.Render(fmt.Sprintf("  %s       - edit selected day in $EDITOR", k.Edit)),
		m.styles.Help.Render("  enter   - edit timeblock slot (timeblock pane)"),
		m.styles.Help.Render(fmt.Sprintf("  %s       - metric stats for the visible range", k.Stats)),
		"",
		m.styles.Normal.Render("Filtering:"),
		m.styles.Help.Render(fmt.Sprintf("  %s       - keyword search", k.Search)),
		m.styles.Help.Render(fmt.Sprintf("  %s       - tag filter", k.TagFilter)),
		m.styles.Help.Render(fmt.Sprintf("  %s       - clear filter", k.ClearFilter)),
		"",
		m.styles.Normal.Render("Other:"),
		m.styles.Help.Render(fmt.Sprintf("  %s       - save local edits", k.Flush)),
		m.styles.Help.Render(fmt.Sprintf("  %s       - refresh now", k.Refresh)),
		m.styles.Help.Render(fmt.Sprintf("  %s       - quit", k.Quit)),
		"",
		m.styles.Help.Render("Press any key to return..."),
	}
	return lipgloss.JoinVertical(lipgloss.Left, help...)
}

func (m *Model) renderPrompt() string {
	return m.styles.Border.Render(m.prompt.View())
}

func (m *Model) renderStatusBar() string {
	sel := m.core.SelectedDate()
	left := fmt.Sprintf(" %s | %s | %s",
		sel.Format("Mon Jan 2, 2006"),
		m.core.ViewMode(),
		m.core.FocusedPane())

	if f := m.core.ActiveFilter(); f.Kind != core.FilterNone {
		left += fmt.Sprintf(" | filter: %s", f.Value)
	}
	if dirty := m.core.Dirty(); len(dirty) > 0 {
		left += fmt.Sprintf(" | %d unsaved", len(dirty))
	}

	right := "? for help | q to quit"
	if conflicts := m.core.Conflicts(); len(conflicts) > 0 {
		right = m.styles.Conflict.Render(fmt.Sprintf("%d conflict(s)", len(conflicts)))
	}
	if m.message != "" {
		right = m.styles.Message.Render(m.message)
	}

	width := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if width < 0 {
		width = 0
	}
	return m.styles.Help.Render(left) + strings.Repeat(" ", width) + right
}

func (m *Model) renderTasks() string {
	list := m.core.CurrentTaskList()

	title := "Tasks"
	if m.core.FocusedPane() == core.PaneTasks {
		title = m.styles.FocusMark.Render("▸ ") + title
	}
	lines := []string{m.styles.Header.Render(title)}

	if len(list) == 0 {
		lines = append(lines, m.styles.Help.Render("(no tasks)"))
	}
	max := m.height / 2
	if max < 5 {
		max = 5
	}
	for i, rec := range list {
		if i >= max {
			lines = append(lines, m.styles.Help.Render(fmt.Sprintf("… %d more", len(list)-i)))
			break
		}
		lines = append(lines, m.renderTaskLine(rec, i == m.taskCursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderTaskLine(rec *task.Record, cursor bool) string {
	box := "[ ]"
	switch rec.EffectiveStatus(m.core.SelectedDate()) {
	case task.StatusInProgress:
		box = "[~]"
	case task.StatusDone:
		box = "[x]"
	}

	line := fmt.Sprintf("%s %s", box, rec.Title)
	if rec.Priority == task.PriorityHigh {
		line = "! " + line
	} else {
		line = "  " + line
	}
	if due := rec.EffectiveDue(); !due.IsZero() {
		line += m.styles.Help.Render(due.Format(" (Jan 2)"))
	}
	if rec.Recurring() {
		line += m.styles.Help.Render(" ↻")
	}

	style := m.styles.Normal
	switch rec.Urgency(m.core.SelectedDate(), m.cfg.UpcomingWindowDays) {
	case recur.UrgencyOverdue:
		style = m.styles.Overdue
	case recur.UrgencyDueToday:
		style = m.styles.Due
	}
	if cursor && m.core.FocusedPane() == core.PaneTasks {
		style = m.styles.Selected
	}
	return style.Render(line)
}

// renderDayDetail shows the selected day: the timeblock when that pane
// is focused, otherwise the diary body preview.
func (m *Model) renderDayDetail() string {
	if m.core.FocusedPane() == core.PaneTimeblock {
		return m.renderTimeblock()
	}
	return m.renderPreview()
}

func (m *Model) renderPreview() string {
	sel := m.core.SelectedDate()
	lines := []string{m.styles.Header.Render(sel.Format("Monday, Jan 2"))}

	body := m.core.DiaryBody(sel)
	if body == "" {
		lines = append(lines, m.styles.Help.Render("(no entry; 'e' to create)"))
	} else {
		width := m.width/3 - 2
		if width < 24 {
			width = 24
		}
		wrapped := wordwrap.String(body, width)
		shown := 0
		for _, line := range strings.Split(wrapped, "\n") {
			if shown >= m.height/2 {
				lines = append(lines, m.styles.Help.Render("…"))
				break
			}
			lines = append(lines, m.styles.Normal.Render(line))
			shown++
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderTimeblock() string {
	title := m.styles.FocusMark.Render("▸ ") + "Timeblock"
	lines := []string{m.styles.Header.Render(title)}

	layout := m.core.CurrentTimeblockLayout()
	if len(layout) == 0 {
		lines = append(lines, m.styles.Help.Render("(no timeblock; 'e' to create the entry)"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	visible := m.height - 6
	if visible < 8 {
		visible = 8
	}
	top := 0
	if m.slotCursor >= visible {
		top = m.slotCursor - visible + 1
	}
	for i := top; i < len(layout) && i < top+visible; i++ {
		entry := layout[i]
		line := fmt.Sprintf("%s  %s", entry.Time, entry.Activity)
		style := m.styles.Normal
		if entry.Activity == "" {
			style = m.styles.Dim
			line = entry.Time + "  ·"
		}
		if i == m.slotCursor {
			style = m.styles.Selected
		}
		lines = append(lines, style.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderStats() string {
	stats := m.core.Summary()

	lines := []string{
		m.styles.Header.Render(fmt.Sprintf("Stats (%s view)", m.core.ViewMode())),
		"",
		m.styles.Normal.Render(fmt.Sprintf("entries: %d", stats.Entries)),
	}

	names := make([]string, 0, len(stats.Counters))
	for name := range stats.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, m.styles.Normal.Render(
			fmt.Sprintf("%s: %d", name, stats.Counters[name])))
	}

	names = names[:0]
	for name := range stats.FlagDays {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, m.styles.Entry.Render(
			fmt.Sprintf("%s: %d day(s)", name, stats.FlagDays[name])))
	}

	return m.styles.Border.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
