package browse

import (
	"strconv"
	"strings"

	"sheet-dash/internal/dataset"
)

const (
	EmptyCell      = "—"
	NoDataMessage  = "No data available"
	DefaultButtons = 5
)

// PageLoader is what a pagination control calls when selected.
type PageLoader func(sheet dataset.SheetID, view dataset.View, page int) (Job, error)

type RenderInput struct {
	Sheet        dataset.SheetID
	View         dataset.View
	Rows         []dataset.Row
	Columns      []string
	Labels       map[string]string
	CurrentPage  int
	TotalPages   int
	TotalRecords int
	MaxButtons   int
	Load         PageLoader
}

type ControlKind int

const (
	ControlPrev ControlKind = iota
	ControlFirst
	ControlEllipsis
	ControlPage
	ControlLast
	ControlNext
)

// Control is one pagination affordance. Ellipses carry no Select.
type Control struct {
	Kind    ControlKind
	Label   string
	Page    int
	Current bool
	Enabled bool
	Select  func() (Job, error)
}

// Table is a fully prepared view ready to draw.
type Table struct {
	Sheet        dataset.SheetID
	View         dataset.View
	Columns      []string
	Headers      []string
	Cells        [][]string
	Empty        bool
	Message      string
	CurrentPage  int
	TotalPages   int
	TotalRecords int
	Controls     []Control
}

// RenderTable is a pure function of its input.
func RenderTable(in RenderInput) Table {
	t := Table{
		Sheet:        in.Sheet,
		View:         in.View,
		Columns:      append([]string(nil), in.Columns...),
		CurrentPage:  in.CurrentPage,
		TotalPages:   in.TotalPages,
		TotalRecords: in.TotalRecords,
	}
	t.Headers = make([]string, len(in.Columns))
	for i, col := range in.Columns {
		t.Headers[i] = dataset.Label(in.Labels, col)
	}
	if len(in.Rows) == 0 {
		t.Empty = true
		t.Message = NoDataMessage
		return t
	}
	t.Cells = make([][]string, len(in.Rows))
	for i, row := range in.Rows {
		cells := make([]string, len(in.Columns))
		for j, col := range in.Columns {
			v := strings.TrimSpace(row[col])
			if v == "" {
				v = EmptyCell
			}
			cells[j] = v
		}
		t.Cells[i] = cells
	}
	t.Controls = buildControls(in)
	return t
}

func buildControls(in RenderInput) []Control {
	maxButtons := in.MaxButtons
	if maxButtons == 0 {
		maxButtons = DefaultButtons
	}
	w := ComputeWindow(in.CurrentPage, in.TotalPages, maxButtons)
	if !w.Visible {
		return nil
	}
	current := clampInt(in.CurrentPage, 1, in.TotalPages)
	bind := func(page int) func() (Job, error) {
		if in.Load == nil {
			return nil
		}
		sheet, view, load := in.Sheet, in.View, in.Load
		return func() (Job, error) { return load(sheet, view, page) }
	}

	var out []Control
	out = append(out, Control{Kind: ControlPrev, Label: "‹ Prev", Page: current - 1, Enabled: w.PrevEnabled})
	if w.ShowFirst {
		out = append(out, Control{Kind: ControlFirst, Label: "1", Page: 1, Enabled: true})
	}
	if w.ShowLeadingEllipsis {
		out = append(out, Control{Kind: ControlEllipsis, Label: "…"})
	}
	for _, p := range w.Pages {
		out = append(out, Control{
			Kind:    ControlPage,
			Label:   strconv.Itoa(p),
			Page:    p,
			Current: p == current,
			Enabled: p != current,
		})
	}
	if w.ShowTrailingEllipsis {
		out = append(out, Control{Kind: ControlEllipsis, Label: "…"})
	}
	if w.ShowLast {
		out = append(out, Control{Kind: ControlLast, Label: strconv.Itoa(in.TotalPages), Page: in.TotalPages, Enabled: true})
	}
	out = append(out, Control{Kind: ControlNext, Label: "Next ›", Page: current + 1, Enabled: w.NextEnabled})

	for i := range out {
		if out[i].Enabled {
			out[i].Select = bind(out[i].Page)
		}
	}
	return out
}
