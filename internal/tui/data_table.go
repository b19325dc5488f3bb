package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sheet-dash/internal/browse"
)

type columnSpec struct {
	title  string
	min    int
	max    int
	weight int
}

// dataTable holds the per-view cursor state of the grid. The rows themselves
// always come from the controller's committed snapshot.
type dataTable struct {
	cursor      int
	scroll      int
	height      int
	pagerCursor int
}

func newDataTable() dataTable {
	return dataTable{height: 32}
}

func (t *dataTable) setHeight(h int) {
	t.height = h
}

func (t *dataTable) reset() {
	t.cursor = 0
	t.scroll = 0
	t.pagerCursor = 0
}

func (t *dataTable) moveCursor(delta, rows int) {
	if rows == 0 {
		t.cursor = 0
		t.scroll = 0
		return
	}
	t.cursor = clampInt(t.cursor+delta, 0, rows-1)
	t.ensureVisible(rows)
}

func (t *dataTable) pageMove(delta, rows int) {
	t.moveCursor(delta*t.bodyRows(), rows)
}

func (t *dataTable) ensureVisible(rows int) {
	if rows == 0 {
		t.cursor = 0
		t.scroll = 0
		return
	}
	t.cursor = clampInt(t.cursor, 0, rows-1)
	body := t.bodyRows()
	if t.cursor < t.scroll {
		t.scroll = t.cursor
	}
	if t.cursor >= t.scroll+body {
		t.scroll = t.cursor - body + 1
	}
	t.scroll = clampInt(t.scroll, 0, max(rows-body, 0))
}

func (t dataTable) bodyRows() int {
	height := t.height
	if height <= 0 {
		height = 30
	}
	// top border, header, separator, bottom border, pager line, footer line
	rows := height - 6
	if rows < 3 {
		rows = 3
	}
	return rows
}

// movePager moves the pager cursor across the enabled controls of tbl.
func (t *dataTable) movePager(delta int, tbl browse.Table) {
	n := len(enabledControls(tbl))
	if n == 0 {
		t.pagerCursor = 0
		return
	}
	t.pagerCursor = clampInt(t.pagerCursor+delta, 0, n-1)
}

// selectedControl returns the enabled control under the pager cursor.
func (t dataTable) selectedControl(tbl browse.Table) (browse.Control, bool) {
	enabled := enabledControls(tbl)
	if len(enabled) == 0 {
		return browse.Control{}, false
	}
	return enabled[clampInt(t.pagerCursor, 0, len(enabled)-1)], true
}

func enabledControls(tbl browse.Table) []browse.Control {
	out := make([]browse.Control, 0, len(tbl.Controls))
	for _, c := range tbl.Controls {
		if c.Enabled && c.Select != nil {
			out = append(out, c)
		}
	}
	return out
}

type tableState struct {
	loading bool
	stale   bool
	err     string
	spinner string
}

func (t dataTable) renderWithTheme(tbl browse.Table, st tableState, totalWidth int, pagerActive bool, theme UITheme) string {
	cols := make([]columnSpec, len(tbl.Headers))
	for i, h := range tbl.Headers {
		w := len([]rune(h))
		cols[i] = columnSpec{title: h, min: clampInt(w, 6, 16), max: 40, weight: 1}
	}
	if len(cols) == 0 {
		cols = []columnSpec{{title: "", min: 10, max: 200, weight: 1}}
	}
	widths := allocateColumnWidths(totalWidth-2, cols)
	rowLimit := t.bodyRows()

	lines := make([]string, 0, rowLimit+6)
	lines = append(lines, drawBorder("┌", "┬", "┐", widths))
	lines = append(lines, drawRow(tbl.Headers, widths, false, theme, true))
	lines = append(lines, drawBorder("├", "┼", "┤", widths))

	if tbl.Empty || st.err != "" {
		msg := tbl.Message
		switch {
		case st.err != "":
			msg = "Error: " + st.err + " (r to retry)"
		case st.loading:
			msg = st.spinner + " Loading…"
		}
		inner := sumWidths(widths)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TextMuted))
		if st.err != "" {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Danger))
		}
		for i := 0; i < rowLimit; i++ {
			text := ""
			if i == rowLimit/2 {
				text = truncate(msg, inner)
			}
			lines = append(lines, "│"+style.Render(center(text, inner))+"│")
		}
	} else {
		start := clampInt(t.scroll, 0, max(len(tbl.Cells)-1, 0))
		end := start + rowLimit
		if end > len(tbl.Cells) {
			end = len(tbl.Cells)
		}
		for i := start; i < end; i++ {
			lines = append(lines, drawRow(tbl.Cells[i], widths, i == t.cursor, theme, false))
		}
		for i := end; i < start+rowLimit; i++ {
			lines = append(lines, drawRow(nil, widths, false, theme, false))
		}
	}
	lines = append(lines, drawBorder("└", "┴", "┘", widths))
	lines = append(lines, clampLine(renderPager(tbl, t, pagerActive, theme), totalWidth))
	lines = append(lines, renderFooter(tbl, st, totalWidth, theme))
	return strings.Join(lines, "\n")
}

func renderPager(tbl browse.Table, t dataTable, active bool, theme UITheme) string {
	if len(tbl.Controls) == 0 {
		return ""
	}
	selected, hasSel := t.selectedControl(tbl)
	parts := make([]string, 0, len(tbl.Controls))
	for _, c := range tbl.Controls {
		label := c.Label
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.PagerControl))
		switch {
		case c.Current:
			label = "[" + label + "]"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.PagerCurrent)).Bold(true)
		case c.Kind == browse.ControlEllipsis:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TextMuted))
		case !c.Enabled:
			style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TabDisabled))
		}
		if active && hasSel && c.Enabled && c.Kind == selected.Kind && c.Page == selected.Page {
			style = lipgloss.NewStyle().
				Foreground(lipgloss.Color(theme.SelectionFg)).
				Background(lipgloss.Color(theme.SelectionBg))
		}
		parts = append(parts, style.Render(label))
	}
	return strings.Join(parts, " ")
}

func renderFooter(tbl browse.Table, st tableState, width int, theme UITheme) string {
	pages := tbl.TotalPages
	if pages < 1 {
		pages = 1
	}
	current := tbl.CurrentPage
	if current < 1 {
		current = 1
	}
	line := fmt.Sprintf("Page %d of %d | %d records", current, pages, tbl.TotalRecords)
	if st.loading && !tbl.Empty {
		line += " | " + st.spinner + " loading"
	}
	if st.stale {
		line += " | stale, refreshing"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TextMuted))
	if st.err != "" {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Danger))
	}
	return style.Render(clampLine(line, width))
}

func sumWidths(widths []int) int {
	n := len(widths) - 1
	for _, w := range widths {
		n += w
	}
	return n
}

func drawBorder(left, mid, right string, widths []int) string {
	parts := make([]string, 0, len(widths)+2)
	parts = append(parts, left)
	for i, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
		if i != len(widths)-1 {
			parts = append(parts, mid)
		}
	}
	parts = append(parts, right)
	return strings.Join(parts, "")
}

func drawRow(values []string, widths []int, selected bool, theme UITheme, isHeader bool) string {
	parts := make([]string, 0, len(widths)+2)
	parts = append(parts, "│")
	for i := range widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		cellText := truncate(v, widths[i])
		cell := pad(cellText, widths[i])
		cellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TextPrimary))
		if v == browse.EmptyCell {
			cell = center(cellText, widths[i])
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.CellEmpty))
		}
		if isHeader {
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TableHeader)).Bold(true)
		}
		if selected {
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(theme.SelectionFg)).
				Background(lipgloss.Color(theme.SelectionBg))
		}
		parts = append(parts, cellStyle.Render(cell))
		if i != len(widths)-1 {
			parts = append(parts, "│")
		}
	}
	parts = append(parts, "│")
	return strings.Join(parts, "")
}

func allocateColumnWidths(total int, cols []columnSpec) []int {
	if total < 10 {
		total = 10
	}
	sep := len(cols) - 1
	available := total - sep
	widths := make([]int, len(cols))
	used := 0
	for i, c := range cols {
		widths[i] = c.min
		used += c.min
	}
	remaining := available - used
	for remaining > 0 {
		changed := false
		for i, c := range cols {
			if remaining == 0 {
				break
			}
			if widths[i] >= c.max || c.weight == 0 {
				continue
			}
			widths[i]++
			remaining--
			changed = true
		}
		if !changed {
			break
		}
	}
	return widths
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "~"
	}
	return string(r[:max-1]) + "~"
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func center(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	left := (width - len(r)) / 2
	right := width - len(r) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
