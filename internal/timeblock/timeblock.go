// Package timeblock reads and edits the markdown timeblock table kept
// in a diary entry's body:
//
//	| Time  | Activity |
//	| ----- | -------- |
//	| 05:00 | writing  |
package timeblock

import (
	"fmt"
	"strings"
)

// Entry is one slot of the table.
type Entry struct {
	Time     string
	Activity string
}

// Parse extracts the timeblock entries from a diary body. A body
// without a table yields no entries.
func Parse(body string) []Entry {
	var entries []Entry
	inTable := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if isHeader(trimmed) {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "|---") || strings.HasPrefix(trimmed, "| ---") || strings.HasPrefix(trimmed, "| ----"):
			continue
		case strings.HasPrefix(trimmed, "|"):
			parts := splitRow(trimmed)
			if len(parts) >= 2 {
				entries = append(entries, Entry{Time: parts[0], Activity: parts[1]})
			}
		default:
			// First non-table line ends the block.
			return entries
		}
	}
	return entries
}

// Update sets the activity for a time slot, returning the rewritten
// body. A slot missing from the table is inserted just under the header
// separator.
func Update(body, timeStr, activity string) (string, bool) {
	lines := strings.Split(body, "\n")
	inTable := false
	updated := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeader(trimmed) {
			inTable = true
			continue
		}
		if !inTable || !strings.HasPrefix(trimmed, "|") {
			continue
		}
		parts := splitRow(trimmed)
		if len(parts) >= 1 && parts[0] == timeStr {
			lines[i] = fmt.Sprintf("| %s | %s |", timeStr, activity)
			updated = true
			break
		}
	}

	if !updated {
		for i, line := range lines {
			if isHeader(strings.TrimSpace(line)) {
				at := i + 2 // past the separator row
				if at > len(lines) {
					at = len(lines)
				}
				row := fmt.Sprintf("| %s | %s |", timeStr, activity)
				lines = append(lines[:at], append([]string{row}, lines[at:]...)...)
				updated = true
				break
			}
		}
	}

	return strings.Join(lines, "\n"), updated
}

// DefaultTable renders the empty 05:00-23:30 half-hour template
// appended to fresh diary entries.
func DefaultTable() string {
	var b strings.Builder
	b.WriteString("\n## Timeblock\n\n")
	b.WriteString("| Time  | Activity |\n")
	b.WriteString("| ----- | -------- |\n")
	for hour := 5; hour < 24; hour++ {
		fmt.Fprintf(&b, "| %02d:00 |          |\n", hour)
		fmt.Fprintf(&b, "| %02d:30 |          |\n", hour)
	}
	return b.String()
}

// HasTable reports whether the body already contains a timeblock table.
func HasTable(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if isHeader(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "| Time") && strings.Contains(line, "Activity")
}

func splitRow(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
