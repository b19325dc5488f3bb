package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sheet-dash/internal/browse"
)

// overviewLabelWidth is the widest "label:" prefix among lines, capped so long
// metric names do not push values off narrow panes.
func overviewLabelWidth(lines []string) int {
	w := 0
	for _, line := range lines {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		if n := len([]rune(line[:idx+1])); n > w {
			w = n
		}
	}
	if w > 24 {
		w = 24
	}
	return w
}

// styleOverviewLine aligns the value column and colours sheet state words.
func styleOverviewLine(line string, labelWidth, maxWidth int, theme UITheme) string {
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsValue))
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return valueStyle.Render(line)
	}
	label := line[:idx+1]
	value := strings.TrimSpace(line[idx+1:])
	if label == "Sheet:" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.HeaderText)).Bold(true).Render(value)
	}
	if value == "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsLabel)).Render(label)
	}
	if pad := labelWidth - len([]rune(label)); pad > 0 && len([]rune(line))+pad <= maxWidth {
		label += strings.Repeat(" ", pad)
	}
	switch value {
	case "done", "loaded":
		valueStyle = valueStyle.Foreground(lipgloss.Color(theme.Success))
	case "not loaded", "not cleaned", "unknown", browse.EmptyCell:
		valueStyle = valueStyle.Foreground(lipgloss.Color(theme.TextMuted))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.DetailsLabel)).Render(label) + " " + valueStyle.Render(value)
}
