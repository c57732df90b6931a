package ui

import (
	"fmt"
	"strings"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/core"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) renderCalendar() string {
	title := m.core.SelectedDate().Format("January 2006")
	if m.core.ViewMode() == calendar.ViewYear {
		title = m.core.SelectedDate().Format("2006")
	}
	if m.core.FocusedPane() == core.PaneCalendar {
		title = m.styles.FocusMark.Render("▸ ") + title
	}

	var body string
	switch m.core.ViewMode() {
	case calendar.ViewWeek:
		body = m.renderWeek()
	case calendar.ViewYear:
		body = m.renderYear()
	default:
		body = m.renderMonth()
	}

	return m.styles.Border.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title), body))
}

// renderWeek lists the seven days of the selected week, one per line,
// with the day's entry and task markers.
func (m *Model) renderWeek() string {
	cells := m.core.CurrentCells()
	var lines []string
	for _, cell := range cells {
		line := fmt.Sprintf("%s %2d %s",
			cell.Date.Format("Mon"), cell.Date.Day(), m.cellMarkers(cell))
		lines = append(lines, m.cellStyle(cell).Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderMonth draws the fixed six-week grid. Fill days from the
// neighboring months stay visible but dimmed.
func (m *Model) renderMonth() string {
	cells := m.core.CurrentCells()
	if len(cells) == 0 {
		return ""
	}

	var header strings.Builder
	day := cells[0].Date
	for i := 0; i < 7; i++ {
		header.WriteString(fmt.Sprintf("%-4s", day.Format("Mon")[:2]))
		day = day.AddDate(0, 0, 1)
	}
	lines := []string{m.styles.Help.Render(header.String())}

	for row := 0; row < len(cells)/7; row++ {
		var week []string
		for col := 0; col < 7; col++ {
			cell := cells[row*7+col]
			text := fmt.Sprintf("%2d%s ", cell.Date.Day(), m.cellGlyph(cell))
			week = append(week, m.cellStyle(cell).Render(text))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, week...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderYear draws one compact line per month, one glyph per day.
func (m *Model) renderYear() string {
	cells := m.core.CurrentCells()

	byMonth := make(map[time.Month][]calendar.Cell)
	for _, cell := range cells {
		byMonth[cell.Date.Month()] = append(byMonth[cell.Date.Month()], cell)
	}

	var lines []string
	for mo := time.January; mo <= time.December; mo++ {
		var row strings.Builder
		for _, cell := range byMonth[mo] {
			row.WriteString(m.cellStyle(cell).Render(m.cellGlyph(cell)))
		}
		label := m.styles.Help.Render(mo.String()[:3] + " ")
		lines = append(lines, label+row.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// cellGlyph is the single-character day marker: overdue beats due beats
// entry.
func (m *Model) cellGlyph(cell calendar.Cell) string {
	switch {
	case cell.HasOverdue:
		return "!"
	case cell.HasTaskDue:
		return "▪"
	case cell.HasEntry:
		return "•"
	}
	return "·"
}

func (m *Model) cellMarkers(cell calendar.Cell) string {
	var marks []string
	if cell.HasEntry {
		marks = append(marks, "entry")
	}
	if cell.HasOverdue {
		marks = append(marks, "overdue")
	} else if cell.HasTaskDue {
		marks = append(marks, "due")
	}
	return strings.Join(marks, " ")
}

func (m *Model) cellStyle(cell calendar.Cell) lipgloss.Style {
	switch {
	case cell.IsSelected:
		return m.styles.Selected
	case !cell.Matches || !cell.InPeriod:
		return m.styles.Dim
	case cell.IsToday:
		return m.styles.Today
	case cell.HasOverdue:
		return m.styles.Overdue
	case cell.HasTaskDue:
		return m.styles.Due
	case cell.HasEntry:
		return m.styles.Entry
	}
	return m.styles.Normal
}
