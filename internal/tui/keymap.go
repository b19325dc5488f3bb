package tui

func globalHelp() string {
	return "Global: 1-9 sheet, 0 overview, S refresh status, q quit"
}

func sheetHelp() string {
	return "Sheet: tab/shift+tab or o/i/e/a view, L load, C clean, r retry, j/k scroll, n/p page, g/G first/last, [ ] pager, d csv, P pdf, x xlsx"
}

func pagerHelp() string {
	return "Pager: h/l or left/right move, enter open page, esc leave"
}

func overviewHelp() string {
	return "Overview: status of every sheet, S to refresh"
}

// viewKeys maps the direct sub-tab shortcuts.
var viewKeys = map[string]string{
	"o": "original",
	"i": "included",
	"e": "excluded",
	"a": "analytics",
}
