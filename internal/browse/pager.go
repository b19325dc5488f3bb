package browse

// Window describes which pagination controls to show. Pages are 1-based.
type Window struct {
	Visible              bool
	ShowFirst            bool
	ShowLeadingEllipsis  bool
	Pages                []int
	ShowTrailingEllipsis bool
	ShowLast             bool
	PrevEnabled          bool
	NextEnabled          bool
}

// ComputeWindow centres up to maxButtons consecutive pages on current, shifted to
// stay within [1, total]. Jump-to-first/last appear whenever the window does not
// touch that end; an ellipsis appears only when at least one page sits between the
// jump control and the window.
func ComputeWindow(current, total, maxButtons int) Window {
	if total <= 1 {
		return Window{}
	}
	if maxButtons < 1 {
		maxButtons = 1
	}
	current = clampInt(current, 1, total)

	start := current - maxButtons/2
	end := start + maxButtons - 1
	if start < 1 {
		start = 1
		end = minInt(total, maxButtons)
	}
	if end > total {
		end = total
		start = maxInt(1, total-maxButtons+1)
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return Window{
		Visible:              true,
		ShowFirst:            start > 1,
		ShowLeadingEllipsis:  start > 2,
		Pages:                pages,
		ShowTrailingEllipsis: end < total-1,
		ShowLast:             end < total,
		PrevEnabled:          current > 1,
		NextEnabled:          current < total,
	}
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
