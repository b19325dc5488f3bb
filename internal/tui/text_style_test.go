package tui

import (
	"strings"
	"testing"
)

func TestStyleOverviewLineAlignsValues(t *testing.T) {
	lines := []string{"Cleaning: done", "Included rows: 200"}
	w := overviewLabelWidth(lines)
	if w != len("Included rows:") {
		t.Fatalf("unexpected label width %d", w)
	}
	got := styleOverviewLine(lines[0], w, 80, defaultUITheme())
	if !strings.Contains(got, "Cleaning:") || !strings.Contains(got, "done") {
		t.Fatalf("missing label or value: %q", got)
	}
	if strings.Index(got, "done") < len("Included rows:") {
		t.Fatalf("value not aligned: %q", got)
	}
	if got := styleOverviewLine("Sheet: 01_jan (January Data)", w, 80, defaultUITheme()); strings.Contains(got, "Sheet:") {
		t.Fatalf("sheet title should render without its label: %q", got)
	}
	if got := styleOverviewLine("Cleaning: done", w, 12, defaultUITheme()); strings.Contains(got, "Cleaning:      ") {
		t.Fatalf("padding should not overflow narrow panes: %q", got)
	}
}

func TestOverviewLabelWidthIsCapped(t *testing.T) {
	if w := overviewLabelWidth([]string{strings.Repeat("x", 40) + ": 1"}); w != 24 {
		t.Fatalf("expected cap at 24, got %d", w)
	}
}
