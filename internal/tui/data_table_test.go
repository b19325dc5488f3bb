package tui

import (
	"strings"
	"testing"

	"sheet-dash/internal/browse"
	"sheet-dash/internal/dataset"
)

func TestAllocateColumnWidths(t *testing.T) {
	cols := []columnSpec{
		{title: "a", min: 3, max: 3, weight: 0},
		{title: "b", min: 8, max: 20, weight: 2},
		{title: "c", min: 8, max: 20, weight: 2},
	}

	narrow := allocateColumnWidths(24, cols)
	if len(narrow) != 3 || narrow[0] != 3 {
		t.Fatalf("bad narrow widths: %#v", narrow)
	}
	wide := allocateColumnWidths(80, cols)
	if wide[1] <= narrow[1] || wide[2] <= narrow[2] {
		t.Fatalf("expected wider columns in wide layout: narrow=%#v wide=%#v", narrow, wide)
	}
}

func TestEnsureVisible(t *testing.T) {
	tb := dataTable{height: 20}
	tb.cursor = 90
	tb.ensureVisible(100)
	if tb.scroll == 0 {
		t.Fatalf("expected scroll to move for deep cursor")
	}
	tb.cursor = 0
	tb.ensureVisible(100)
	if tb.scroll != 0 {
		t.Fatalf("expected scroll reset near top, got %d", tb.scroll)
	}
	tb.moveCursor(500, 100)
	if tb.cursor != 99 {
		t.Fatalf("cursor should clamp to last row, got %d", tb.cursor)
	}
}

func TestRenderEmptyTableShowsMessage(t *testing.T) {
	tbl := browse.RenderTable(browse.RenderInput{Columns: []string{"row_id", "name"}})
	out := newDataTable().renderWithTheme(tbl, tableState{}, 80, false, defaultUITheme())
	if !strings.Contains(out, browse.NoDataMessage) {
		t.Fatalf("expected no-data message in:\n%s", out)
	}
	out = newDataTable().renderWithTheme(tbl, tableState{err: "boom"}, 80, false, defaultUITheme())
	if !strings.Contains(out, "Error: boom") {
		t.Fatalf("expected inline error in:\n%s", out)
	}
}

func TestRenderErrorReplacesLoadedRows(t *testing.T) {
	tbl := browse.RenderTable(browse.RenderInput{
		Sheet:   "sheet1",
		View:    dataset.ViewIncluded,
		Columns: []string{"row_id", "name"},
		Rows:    []dataset.Row{{"row_id": "r-17", "name": "Ana"}},
	})
	tb := newDataTable()
	tb.setHeight(30)
	out := tb.renderWithTheme(tbl, tableState{}, 80, false, defaultUITheme())
	if !strings.Contains(out, "r-17") {
		t.Fatalf("expected rows before failure:\n%s", out)
	}
	out = tb.renderWithTheme(tbl, tableState{err: "connection refused"}, 80, false, defaultUITheme())
	if strings.Contains(out, "r-17") {
		t.Fatalf("old rows still drawn after failure:\n%s", out)
	}
	if !strings.Contains(out, "Error: connection refused (r to retry)") {
		t.Fatalf("expected inline error with retry hint:\n%s", out)
	}
}

func TestRenderPagerLine(t *testing.T) {
	tbl := browse.RenderTable(browse.RenderInput{
		Sheet:       "sheet1",
		View:        dataset.ViewOriginal,
		Columns:     []string{"row_id"},
		Rows:        []dataset.Row{{"row_id": "1"}},
		CurrentPage: 50,
		TotalPages:  100,
		Load: func(dataset.SheetID, dataset.View, int) (browse.Job, error) {
			return browse.Job{}, nil
		},
	})
	line := renderPager(tbl, newDataTable(), false, defaultUITheme())
	for _, want := range []string{"‹ Prev", "[50]", "…", "100", "Next ›"} {
		if !strings.Contains(line, want) {
			t.Fatalf("pager %q missing %q", line, want)
		}
	}

	tb := newDataTable()
	tb.movePager(100, tbl)
	c, ok := tb.selectedControl(tbl)
	if !ok || c.Kind != browse.ControlNext || c.Page != 51 {
		t.Fatalf("expected next control under cursor, got %+v", c)
	}
}
