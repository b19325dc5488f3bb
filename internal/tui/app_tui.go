package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sheet-dash/internal/browse"
	"sheet-dash/internal/dataset"
	"sheet-dash/internal/export"
)

type AppCallbacks struct {
	// Download saves a server-rendered export of a cleaned view and returns the
	// written path.
	Download func(ctx context.Context, sheet dataset.SheetID, view dataset.View, format string) (string, error)
	// ExportPage writes one loaded page to a local spreadsheet named name.
	ExportPage func(name string, page export.Page) (string, error)
	Version    string
	Theme      UITheme
}

type pageLoadedMsg struct {
	res browse.Result
}

type actionDoneMsg struct {
	res browse.ActionResult
}

type fileSavedMsg struct {
	what string
	path string
	err  error
}

type appModel struct {
	ctrl        *browse.Controller
	callbacks   AppCallbacks
	ctx         context.Context
	table       dataTable
	spinner     spinner.Model
	theme       UITheme
	width       int
	height      int
	status      string
	appVersion  string
	pagerActive bool
	saving      bool
	quitting    bool
}

func RunApp(ctrl *browse.Controller, callbacks AppCallbacks) error {
	m := newAppModel(ctrl, callbacks)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newAppModel(ctrl *browse.Controller, callbacks AppCallbacks) appModel {
	th := callbacks.Theme.withDefaults()
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(th.Spinner))
	return appModel{
		ctrl:       ctrl,
		callbacks:  callbacks,
		ctx:        context.Background(),
		table:      newDataTable(),
		spinner:    sp,
		theme:      th,
		status:     "Ready",
		appVersion: callbacks.Version,
	}
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.actionCmd(m.ctrl.CheckStatus())}
	cmds = append(cmds, m.fetchCmds(m.ctrl.Start())...)
	return tea.Batch(cmds...)
}

func (m appModel) fetchCmd(job browse.Job) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return pageLoadedMsg{res: job.Run(ctx)}
	}
}

func (m appModel) fetchCmds(jobs []browse.Job) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(jobs))
	for _, job := range jobs {
		cmds = append(cmds, m.fetchCmd(job))
	}
	return cmds
}

func (m appModel) actionCmd(job browse.ActionJob) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{res: job.Run(ctx)}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.setHeight(m.bodyHeight())
		m.table.ensureVisible(m.visibleRowCount())
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case pageLoadedMsg:
		return m.applyPage(msg.res), nil
	case actionDoneMsg:
		return m.applyAction(msg.res)
	case fileSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Saved %s to %s", msg.what, msg.path)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) applyPage(res browse.Result) appModel {
	req := res.Request
	visible := m.isVisible(req.Sheet, req.View)
	switch m.ctrl.Complete(res) {
	case browse.OutcomeFailed:
		if visible {
			m.status = "Error: " + res.Err.Error()
		}
	case browse.OutcomeCommitted:
		if visible {
			m.table.reset()
			m.table.ensureVisible(m.visibleRowCount())
		}
	}
	return m
}

func (m appModel) applyAction(res browse.ActionResult) (tea.Model, tea.Cmd) {
	jobs, err := m.ctrl.CompleteAction(res)
	if err != nil {
		m.status = "Error: " + err.Error()
	} else {
		m.status = actionStatus(m.ctrl, res)
	}
	return m, tea.Batch(m.fetchCmds(jobs)...)
}

func actionStatus(ctrl *browse.Controller, res browse.ActionResult) string {
	title := string(res.Sheet)
	if s, ok := ctrl.Sheet(res.Sheet); ok {
		title = s.Title()
	}
	switch res.Kind {
	case browse.ActionLoadSheet:
		return fmt.Sprintf("Loaded %s: %d rows", title, res.RowCount)
	case browse.ActionCleanSheet:
		if msg := strings.TrimSpace(res.Clean.Message); msg != "" {
			return msg
		}
		st, _ := ctrl.Status(res.Sheet)
		return fmt.Sprintf("Cleaned %s: %d included, %d excluded", title, st.Summary.IncludedCount, st.Summary.ExcludedCount)
	case browse.ActionStatus:
		cleaned := 0
		for _, st := range res.Statuses {
			if st.Cleaned {
				cleaned++
			}
		}
		return fmt.Sprintf("Status checked: %d of %d sheets cleaned", cleaned, len(res.Statuses))
	}
	return "Ready"
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch k {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	}
	if m.pagerActive {
		return m.handlePagerKey(k)
	}

	switch k {
	case "0":
		return m.activate(browse.GroupTop, browse.TabOverview)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(k[0] - '1')
		sheets := m.ctrl.Sheets()
		if idx >= len(sheets) {
			return m, nil
		}
		return m.activate(browse.GroupTop, string(sheets[idx].ID))
	case "S":
		m.status = "Checking cleaning status…"
		return m, m.actionCmd(m.ctrl.CheckStatus())
	}

	sheet, ok := m.ctrl.ActiveSheet()
	if !ok {
		return m, nil
	}
	switch k {
	case "tab", "shift+tab":
		delta := 1
		if k == "shift+tab" {
			delta = -1
		}
		act, jobs, err := m.ctrl.CycleView(delta)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		if act.Changed() {
			m.table.reset()
		}
		return m, tea.Batch(m.fetchCmds(jobs)...)
	case "o", "i", "e", "a":
		return m.activate(string(sheet), viewKeys[k])
	case "L":
		job, err := m.ctrl.LoadSheet(sheet)
		if err != nil {
			m.status = policyHint(err)
			return m, nil
		}
		m.status = "Loading sheet…"
		return m, m.actionCmd(job)
	case "C":
		job, err := m.ctrl.CleanSheet(sheet)
		if err != nil {
			m.status = policyHint(err)
			return m, nil
		}
		m.status = "Cleaning sheet…"
		return m, m.actionCmd(job)
	case "n", "right":
		return m.fetchStep(m.ctrl.Step(1))
	case "p", "left":
		return m.fetchStep(m.ctrl.Step(-1))
	case "g", "home":
		return m.fetchStep(m.ctrl.Jump(false))
	case "G", "end":
		return m.fetchStep(m.ctrl.Jump(true))
	case "r":
		return m.fetchStep(m.ctrl.Reload())
	case "j", "down":
		m.table.moveCursor(1, m.visibleRowCount())
		return m, nil
	case "k", "up":
		m.table.moveCursor(-1, m.visibleRowCount())
		return m, nil
	case "pgdown":
		m.table.pageMove(1, m.visibleRowCount())
		return m, nil
	case "pgup":
		m.table.pageMove(-1, m.visibleRowCount())
		return m, nil
	case "[", "]":
		tbl := m.visibleTable(sheet)
		if len(enabledControls(tbl)) == 0 {
			return m, nil
		}
		m.pagerActive = true
		if k == "]" {
			m.table.pagerCursor = len(enabledControls(tbl)) - 1
		} else {
			m.table.pagerCursor = 0
		}
		return m, nil
	case "d":
		return m.download(sheet, "csv")
	case "P":
		return m.download(sheet, "pdf")
	case "x":
		return m.exportPage(sheet)
	}
	return m, nil
}

func (m appModel) handlePagerKey(k string) (tea.Model, tea.Cmd) {
	sheet, ok := m.ctrl.ActiveSheet()
	if !ok {
		m.pagerActive = false
		return m, nil
	}
	tbl := m.visibleTable(sheet)
	switch k {
	case "esc", "[", "]":
		m.pagerActive = false
	case "h", "left":
		m.table.movePager(-1, tbl)
	case "l", "right":
		m.table.movePager(1, tbl)
	case "enter":
		c, ok := m.table.selectedControl(tbl)
		m.pagerActive = false
		if !ok {
			return m, nil
		}
		job, err := c.Select()
		return m.fetchStep(job, err == nil, err)
	}
	return m, nil
}

func (m appModel) activate(group, tab string) (tea.Model, tea.Cmd) {
	act, jobs, err := m.ctrl.Activate(group, tab)
	if err != nil {
		m.status = policyHint(err)
		return m, nil
	}
	if act.Changed() {
		m.table.reset()
		m.pagerActive = false
	}
	return m, tea.Batch(m.fetchCmds(jobs)...)
}

func (m appModel) fetchStep(job browse.Job, ok bool, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.status = policyHint(err)
		return m, nil
	}
	if !ok {
		return m, nil
	}
	return m, m.fetchCmd(job)
}

func (m appModel) download(sheet dataset.SheetID, format string) (tea.Model, tea.Cmd) {
	view := m.ctrl.ActiveView(sheet)
	if m.callbacks.Download == nil {
		m.status = "Error: download unavailable"
		return m, nil
	}
	if view != dataset.ViewIncluded && view != dataset.ViewExcluded {
		m.status = "Downloads are available for included and excluded data"
		return m, nil
	}
	if m.saving {
		return m, nil
	}
	m.saving = true
	m.status = fmt.Sprintf("Downloading %s %s…", view, format)
	ctx := m.ctx
	fn := m.callbacks.Download
	return m, func() tea.Msg {
		path, err := fn(ctx, sheet, view, format)
		return fileSavedMsg{what: format, path: path, err: err}
	}
}

func (m appModel) exportPage(sheet dataset.SheetID) (tea.Model, tea.Cmd) {
	if m.callbacks.ExportPage == nil {
		m.status = "Error: export unavailable"
		return m, nil
	}
	view := m.ctrl.ActiveView(sheet)
	snap := m.ctrl.Store().Snapshot(sheet, view)
	if len(snap.Rows) == 0 {
		m.status = "Nothing to export"
		return m, nil
	}
	if m.saving {
		return m, nil
	}
	tbl := m.ctrl.Render(sheet, view)
	title := string(sheet)
	if s, ok := m.ctrl.Sheet(sheet); ok {
		title = s.Title()
	}
	page := export.Page{
		Title:   title + " " + view.Label(),
		Columns: tbl.Columns,
		Headers: tbl.Headers,
		Rows:    snap.Rows,
	}
	name := export.PageFileName(sheet, view, snap.CurrentPage)
	m.saving = true
	m.status = "Exporting page…"
	fn := m.callbacks.ExportPage
	return m, func() tea.Msg {
		path, err := fn(name, page)
		return fileSavedMsg{what: "xlsx", path: path, err: err}
	}
}

// policyHint turns a local rejection into a short hint; anything else is shown as
// an error.
func policyHint(err error) string {
	switch {
	case errors.Is(err, browse.ErrTabDisabled):
		return "Clean the sheet first (C) to unlock this tab"
	case errors.Is(err, browse.ErrActionBusy):
		return "Still working on this sheet"
	case errors.Is(err, browse.ErrPageOutOfRange):
		return "No such page"
	case browse.IsPolicyError(err):
		return err.Error()
	}
	return "Error: " + err.Error()
}

func (m appModel) isVisible(sheet dataset.SheetID, view dataset.View) bool {
	active, ok := m.ctrl.ActiveSheet()
	return ok && active == sheet && m.ctrl.ActiveView(sheet) == view
}

func (m appModel) visibleTable(sheet dataset.SheetID) browse.Table {
	return m.ctrl.Render(sheet, m.ctrl.ActiveView(sheet))
}

func (m appModel) visibleRowCount() int {
	sheet, ok := m.ctrl.ActiveSheet()
	if !ok {
		return 0
	}
	return len(m.ctrl.Store().Snapshot(sheet, m.ctrl.ActiveView(sheet)).Rows)
}

func (m appModel) bodyHeight() int {
	// banner, tabs, sub-tabs, blank, help, status
	h := m.height - 6
	if h < 8 {
		h = 8
	}
	return h
}

func (m appModel) View() string {
	if m.quitting {
		return "Exited.\n"
	}
	if m.width <= 0 {
		m.width = 140
	}
	if m.height <= 0 {
		m.height = 36
	}
	m.table.setHeight(m.bodyHeight())

	sheet, onSheet := m.ctrl.ActiveSheet()
	help := globalHelp()
	switch {
	case m.pagerActive:
		help += " | " + pagerHelp()
	case onSheet:
		help += " | " + sheetHelp()
	default:
		help += " | " + overviewHelp()
	}
	help = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.HelpText)).Render(clampLine(help, m.width))
	status := m.status
	if onSheet {
		if kind, busy := m.ctrl.Busy(sheet); busy {
			status = m.spinner.View() + " " + kind.String() + " running | " + status
		}
	}
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusText))
	switch {
	case strings.HasPrefix(m.status, "Error: "):
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Danger))
	case strings.HasPrefix(m.status, "Saved "):
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Success))
	}
	status = statusStyle.Render(clampLine(status, m.width))

	out := []string{m.renderBanner(), m.renderTopTabs()}
	var body string
	if onSheet {
		out = append(out, m.renderViewTabs(sheet))
		body = m.renderSheetBody(sheet)
	} else {
		out = append(out, "")
		body = m.renderOverview(m.width, m.bodyHeight())
	}
	out = append(out, "", help, status, body)
	return strings.Join(out, "\n") + "\n"
}

func (m appModel) renderBanner() string {
	line := "sheet-dash " + formatVersionLabel(m.appVersion)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.HeaderText)).Bold(true).Render(clampLine(line, m.width))
}

func (m appModel) renderTopTabs() string {
	router := m.ctrl.Router()
	active := router.Active(browse.GroupTop)
	parts := make([]string, 0, len(router.Tabs(browse.GroupTop)))
	for i, tab := range router.Tabs(browse.GroupTop) {
		label := "Overview"
		shortcut := "0"
		if tab != browse.TabOverview {
			shortcut = fmt.Sprint(i + 1)
			if s, ok := m.ctrl.Sheet(dataset.SheetID(tab)); ok {
				label = s.Title()
			}
		}
		parts = append(parts, m.tabLabel(shortcut+" "+label, tab == active, true))
	}
	return strings.Join(parts, " ")
}

func (m appModel) renderViewTabs(sheet dataset.SheetID) string {
	router := m.ctrl.Router()
	active := router.Active(string(sheet))
	parts := make([]string, 0, len(dataset.Views))
	for _, tab := range router.Tabs(string(sheet)) {
		label := dataset.View(tab).Label()
		parts = append(parts, m.tabLabel(label, tab == active, router.Enabled(string(sheet), tab)))
	}
	return "  " + strings.Join(parts, " ")
}

func (m appModel) tabLabel(label string, active, enabled bool) string {
	switch {
	case active:
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.SelectionFg)).
			Background(lipgloss.Color(m.theme.TabActive)).
			Bold(true).
			Render(" " + label + " ")
	case !enabled:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TabDisabled)).Render(" " + label + " ")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.TabInactive)).Render(" " + label + " ")
	}
}

func (m appModel) renderSheetBody(sheet dataset.SheetID) string {
	view := m.ctrl.ActiveView(sheet)
	snap := m.ctrl.Store().Snapshot(sheet, view)
	tbl := m.ctrl.Render(sheet, view)
	st := tableState{
		loading: snap.Loading,
		stale:   snap.Stale,
		err:     snap.Err,
		spinner: m.spinner.View(),
	}
	if !snap.Loaded && !snap.Loading && snap.Err == "" && view == dataset.ViewOriginal {
		tbl.Message = "Not loaded yet. Press L to load the sheet"
	}
	return m.table.renderWithTheme(tbl, st, m.width, m.pagerActive, m.theme)
}

func (m appModel) renderOverview(width, height int) string {
	lines := []string{"Overview"}
	for _, s := range m.ctrl.Sheets() {
		lines = append(lines, "")
		lines = append(lines, overviewLines(m.ctrl, s)...)
	}
	innerW := panelInnerWidth(width)
	lines = fitAndWrapLines(lines, innerHeight(height), innerW)
	labelW := overviewLabelWidth(lines)
	for i := range lines {
		if i == 0 {
			lines[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.HeaderText)).Bold(true).Render(lines[i])
			continue
		}
		lines[i] = styleOverviewLine(lines[i], labelW, innerW, m.theme)
	}
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.PaneBorderActive)).
		Padding(0, 1)
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func overviewLines(ctrl *browse.Controller, s dataset.Sheet) []string {
	lines := []string{"Sheet: " + s.Title()}
	st, known := ctrl.Status(s.ID)
	orig := ctrl.Store().Get(s.ID, dataset.ViewOriginal)
	switch {
	case orig.Loaded:
		lines = append(lines, fmt.Sprintf("Original rows: %d", orig.TotalRecords))
	case known && st.OriginalLoaded:
		lines = append(lines, "Original rows: loaded")
	default:
		lines = append(lines, "Original rows: not loaded")
	}
	if !ctrl.Store().CleaningDone(s.ID) {
		if !known {
			lines = append(lines, "Cleaning: unknown")
		} else {
			lines = append(lines, "Cleaning: not cleaned")
		}
		return lines
	}
	inc := ctrl.Store().Get(s.ID, dataset.ViewIncluded)
	exc := ctrl.Store().Get(s.ID, dataset.ViewExcluded)
	lines = append(lines,
		"Cleaning: done",
		fmt.Sprintf("Included rows: %d", inc.TotalRecords),
		fmt.Sprintf("Excluded rows: %d", exc.TotalRecords),
	)
	analytics := ctrl.Store().Snapshot(s.ID, dataset.ViewAnalytics).Analytics
	if analytics.IsZero() {
		analytics = st.Analytics
	}
	for _, row := range analytics.Rows() {
		if row["section"] != "Birth year summary" && row["section"] != "Duplicates" {
			continue
		}
		value := row["value"]
		if value == "" {
			value = browse.EmptyCell
		}
		lines = append(lines, row["metric"]+": "+value)
	}
	return lines
}

func formatVersionLabel(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "vdev"
	}
	if strings.HasPrefix(trimmed, "v") {
		return trimmed
	}
	return "v" + trimmed
}

func panelInnerWidth(totalWidth int) int {
	w := totalWidth - 4
	if w < 1 {
		return 1
	}
	return w
}

func innerHeight(totalHeight int) int {
	h := totalHeight - 2
	if h < 1 {
		return 1
	}
	return h
}

func fitAndWrapLines(lines []string, maxLines, maxWidth int) []string {
	wrapped := wrapLines(lines, maxWidth)
	return fitLines(wrapped, maxLines)
}

func fitLines(lines []string, maxLines int) []string {
	if maxLines <= 0 {
		return []string{}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	if len(lines) > maxLines {
		if maxLines == 1 {
			return []string{truncate(lines[0], 20)}
		}
		out := append([]string(nil), lines[:maxLines-1]...)
		out = append(out, "~")
		return out
	}
	out := append([]string(nil), lines...)
	for len(out) < maxLines {
		out = append(out, "")
	}
	return out
}

func clampLine(s string, maxWidth int) string {
	if maxWidth <= 1 {
		return truncate(s, 1)
	}
	r := []rune(s)
	if len(r) <= maxWidth {
		return s
	}
	return truncate(s, maxWidth)
}

func wrapLines(lines []string, width int) []string {
	if width <= 0 {
		return []string{}
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return out
}

func wrapLine(s string, width int) []string {
	if width <= 0 {
		return []string{""}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{""}
	}
	words := strings.Fields(s)
	out := make([]string, 0, 4)
	current := ""
	for _, w := range words {
		for len([]rune(w)) > width {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			r := []rune(w)
			out = append(out, string(r[:width]))
			w = string(r[width:])
		}
		if current == "" {
			current = w
			continue
		}
		candidate := current + " " + w
		if len([]rune(candidate)) <= width {
			current = candidate
			continue
		}
		out = append(out, current)
		current = w
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
