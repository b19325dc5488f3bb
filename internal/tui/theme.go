package tui

import (
	"sheet-dash/internal/theme"
)

type UITheme struct {
	PaneBorderActive   string
	PaneBorderInactive string
	Danger             string
	Success            string
	TextPrimary        string
	TextMuted          string
	SelectionBg        string
	SelectionFg        string
	HeaderText         string
	HelpText           string
	StatusText         string
	TableHeader        string
	TabActive          string
	TabInactive        string
	TabDisabled        string
	PagerCurrent       string
	PagerControl       string
	CellEmpty          string
	Spinner            string
	DetailsLabel       string
	DetailsValue       string
}

func defaultUITheme() UITheme {
	resolved := theme.ResolveForTerminal(theme.DefaultPaletteHex(), theme.DetectTrueColor())
	return UIThemeFromResolved(resolved)
}

func UIThemeFromResolved(r theme.PaletteResolved) UITheme {
	return UITheme{
		PaneBorderActive:   r.PaneBorderActive,
		PaneBorderInactive: r.PaneBorderInactive,
		Danger:             r.Danger,
		Success:            r.Success,
		TextPrimary:        r.TextPrimary,
		TextMuted:          r.TextMuted,
		SelectionBg:        r.SelectionBg,
		SelectionFg:        r.SelectionFg,
		HeaderText:         r.HeaderText,
		HelpText:           r.HelpText,
		StatusText:         r.StatusText,
		TableHeader:        r.TableHeader,
		TabActive:          r.TabActive,
		TabInactive:        r.TabInactive,
		TabDisabled:        r.TabDisabled,
		PagerCurrent:       r.PagerCurrent,
		PagerControl:       r.PagerControl,
		CellEmpty:          r.CellEmpty,
		Spinner:            r.Spinner,
		DetailsLabel:       r.DetailsLabel,
		DetailsValue:       r.DetailsValue,
	}
}

func (t UITheme) withDefaults() UITheme {
	d := defaultUITheme()
	if t.PaneBorderActive == "" {
		t.PaneBorderActive = d.PaneBorderActive
	}
	if t.PaneBorderInactive == "" {
		t.PaneBorderInactive = d.PaneBorderInactive
	}
	if t.Danger == "" {
		t.Danger = d.Danger
	}
	if t.Success == "" {
		t.Success = d.Success
	}
	if t.TextPrimary == "" {
		t.TextPrimary = d.TextPrimary
	}
	if t.TextMuted == "" {
		t.TextMuted = d.TextMuted
	}
	if t.SelectionBg == "" {
		t.SelectionBg = d.SelectionBg
	}
	if t.SelectionFg == "" {
		t.SelectionFg = d.SelectionFg
	}
	if t.HeaderText == "" {
		t.HeaderText = d.HeaderText
	}
	if t.HelpText == "" {
		t.HelpText = d.HelpText
	}
	if t.StatusText == "" {
		t.StatusText = d.StatusText
	}
	if t.TableHeader == "" {
		t.TableHeader = d.TableHeader
	}
	if t.TabActive == "" {
		t.TabActive = d.TabActive
	}
	if t.TabInactive == "" {
		t.TabInactive = d.TabInactive
	}
	if t.TabDisabled == "" {
		t.TabDisabled = d.TabDisabled
	}
	if t.PagerCurrent == "" {
		t.PagerCurrent = d.PagerCurrent
	}
	if t.PagerControl == "" {
		t.PagerControl = d.PagerControl
	}
	if t.CellEmpty == "" {
		t.CellEmpty = d.CellEmpty
	}
	if t.Spinner == "" {
		t.Spinner = d.Spinner
	}
	if t.DetailsLabel == "" {
		t.DetailsLabel = d.DetailsLabel
	}
	if t.DetailsValue == "" {
		t.DetailsValue = d.DetailsValue
	}
	return t
}
