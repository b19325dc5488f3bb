package theme

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

type Hex string

type PaletteHex struct {
	PaneBorderActive   Hex `json:"pane_border_active"`
	PaneBorderInactive Hex `json:"pane_border_inactive"`
	Danger             Hex `json:"danger"`
	Success            Hex `json:"success"`
	TextPrimary        Hex `json:"text_primary"`
	TextMuted          Hex `json:"text_muted"`
	SelectionBg        Hex `json:"selection_bg"`
	SelectionFg        Hex `json:"selection_fg"`
	HeaderText         Hex `json:"header_text"`
	HelpText           Hex `json:"help_text"`
	StatusText         Hex `json:"status_text"`
	TableHeader        Hex `json:"table_header"`
	TabActive          Hex `json:"tab_active"`
	TabInactive        Hex `json:"tab_inactive"`
	TabDisabled        Hex `json:"tab_disabled"`
	PagerCurrent       Hex `json:"pager_current"`
	PagerControl       Hex `json:"pager_control"`
	CellEmpty          Hex `json:"cell_empty"`
	Spinner            Hex `json:"spinner"`
	DetailsLabel       Hex `json:"details_label"`
	DetailsValue       Hex `json:"details_value"`
}

type ThemeFile struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Version int        `json:"version"`
	Colors  PaletteHex `json:"colors"`
}

type PaletteResolved struct {
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

var (
	hexRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	varRe = regexp.MustCompile(`^var\(--([A-Za-z0-9_-]+)\)$`)
)

func (p PaletteHex) fields() map[string]Hex {
	return map[string]Hex{
		"pane_border_active":   p.PaneBorderActive,
		"pane_border_inactive": p.PaneBorderInactive,
		"danger":               p.Danger,
		"success":              p.Success,
		"text_primary":         p.TextPrimary,
		"text_muted":           p.TextMuted,
		"selection_bg":         p.SelectionBg,
		"selection_fg":         p.SelectionFg,
		"header_text":          p.HeaderText,
		"help_text":            p.HelpText,
		"status_text":          p.StatusText,
		"table_header":         p.TableHeader,
		"tab_active":           p.TabActive,
		"tab_inactive":         p.TabInactive,
		"tab_disabled":         p.TabDisabled,
		"pager_current":        p.PagerCurrent,
		"pager_control":        p.PagerControl,
		"cell_empty":           p.CellEmpty,
		"spinner":              p.Spinner,
		"details_label":        p.DetailsLabel,
		"details_value":        p.DetailsValue,
	}
}

func (p PaletteHex) Validate() error {
	for key, val := range p.fields() {
		if !hexRe.MatchString(string(val)) {
			return fmt.Errorf("invalid hex color for %s: %q", key, string(val))
		}
	}
	return nil
}

type rawThemeFile struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Version int               `json:"version"`
	Vars    map[string]string `json:"vars"`
	Colors  map[string]string `json:"colors"`
}

// ParseThemeFile decodes a theme. Colors may reference vars as var(--name); any
// color the file omits keeps its default.
func ParseThemeFile(b []byte) (ThemeFile, error) {
	var raw rawThemeFile
	if err := json.Unmarshal(b, &raw); err != nil {
		return ThemeFile{}, err
	}
	if raw.ID == "" {
		return ThemeFile{}, fmt.Errorf("theme id is required")
	}
	t := ThemeFile{ID: raw.ID, Name: raw.Name, Version: raw.Version}
	if t.Version == 0 {
		t.Version = 1
	}

	colors := map[string]string{}
	for key, val := range DefaultPaletteHex().fields() {
		colors[key] = string(val)
	}
	for key, val := range raw.Colors {
		resolved, err := resolveVar(strings.TrimSpace(val), raw.Vars, map[string]bool{})
		if err != nil {
			return ThemeFile{}, fmt.Errorf("color %s: %w", key, err)
		}
		colors[key] = resolved
	}
	merged, err := json.Marshal(colors)
	if err != nil {
		return ThemeFile{}, err
	}
	if err := json.Unmarshal(merged, &t.Colors); err != nil {
		return ThemeFile{}, err
	}
	if err := t.Colors.Validate(); err != nil {
		return ThemeFile{}, err
	}
	return t, nil
}

func resolveVar(val string, vars map[string]string, seen map[string]bool) (string, error) {
	if !strings.HasPrefix(val, "var(") {
		return val, nil
	}
	m := varRe.FindStringSubmatch(val)
	if m == nil {
		return "", fmt.Errorf("invalid variable reference %q", val)
	}
	name := m[1]
	if seen[name] {
		return "", fmt.Errorf("circular variable reference: %s", name)
	}
	next, ok := vars[name]
	if !ok {
		return "", fmt.Errorf("unknown color variable: %s", name)
	}
	seen[name] = true
	return resolveVar(strings.TrimSpace(next), vars, seen)
}

func DefaultPaletteHex() PaletteHex {
	return PaletteHex{
		PaneBorderActive:   "#fff67d",
		PaneBorderInactive: "#585858",
		Danger:             "#d70000",
		Success:            "#87d787",
		TextPrimary:        "#ddd7c1",
		TextMuted:          "#9e9987",
		SelectionBg:        "#fff67d",
		SelectionFg:        "#000000",
		HeaderText:         "#efe8ca",
		HelpText:           "#d8cfaa",
		StatusText:         "#fff67d",
		TableHeader:        "#fff1a6",
		TabActive:          "#fff67d",
		TabInactive:        "#bdb79f",
		TabDisabled:        "#585858",
		PagerCurrent:       "#fff67d",
		PagerControl:       "#d6d1b3",
		CellEmpty:          "#6c6c6c",
		Spinner:            "#fff67d",
		DetailsLabel:       "#dcca91",
		DetailsValue:       "#d8d1b2",
	}
}
