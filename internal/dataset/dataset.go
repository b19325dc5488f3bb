package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// SheetID identifies one independently tracked dataset, e.g. "sheet1".
type SheetID string

type View string

const (
	ViewOriginal  View = "original"
	ViewIncluded  View = "included"
	ViewExcluded  View = "excluded"
	ViewAnalytics View = "analytics"
)

// Views lists every view in tab order.
var Views = []View{ViewOriginal, ViewIncluded, ViewExcluded, ViewAnalytics}

func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view: %q", s)
}

// RequiresCleaning reports whether the view only exists after a sheet was cleaned.
func (v View) RequiresCleaning() bool {
	return v == ViewIncluded || v == ViewExcluded || v == ViewAnalytics
}

func (v View) Label() string {
	switch v {
	case ViewOriginal:
		return "Original"
	case ViewIncluded:
		return "Included"
	case ViewExcluded:
		return "Excluded"
	case ViewAnalytics:
		return "Analytics"
	default:
		return string(v)
	}
}

type Sheet struct {
	ID          SheetID
	Identifier  string
	DisplayName string
}

func (s Sheet) Title() string {
	if strings.TrimSpace(s.DisplayName) != "" {
		return s.DisplayName
	}
	return string(s.ID)
}

// Row maps a column key to its display value. Rows are snapshots and are never
// mutated after decoding.
type Row map[string]string

// RowFromJSON converts a decoded JSON object into display values.
func RowFromJSON(obj map[string]any) Row {
	row := make(Row, len(obj))
	for k, v := range obj {
		row[k] = DisplayValue(v)
	}
	return row
}

func DisplayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Page is one page of rows as returned by a backend.
type Page struct {
	Rows         []Row
	Columns      []string
	TotalRecords int
	// TotalPages is informational; callers derive page counts from TotalRecords.
	TotalPages int
	// Analytics is set only for pages of the analytics view.
	Analytics Analytics
}

type CleanSummary struct {
	OriginalCount int
	IncludedCount int
	ExcludedCount int
}

type CleanResult struct {
	Message   string
	Summary   CleanSummary
	Analytics Analytics
}

type SheetStatus struct {
	Sheet          SheetID
	OriginalLoaded bool
	Cleaned        bool
	Summary        CleanSummary
	Analytics      Analytics
}

type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// PageCount returns the number of pages needed for totalRecords; an empty view
// still has one (empty) page.
func PageCount(totalRecords, pageSize int) int {
	if pageSize <= 0 {
		pageSize = 1
	}
	if totalRecords <= 0 {
		return 1
	}
	return (totalRecords + pageSize - 1) / pageSize
}
