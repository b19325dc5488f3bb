package dataset

import "strings"

var viewColumns = map[View][]string{
	ViewOriginal:  {"original_row_number", "row_id", "firstname", "birthday", "birthmonth", "birthyear"},
	ViewIncluded:  {"row_id", "name", "birth_day", "birth_month", "birth_year"},
	ViewExcluded:  {"row_id", "original_name", "original_birth_day", "original_birth_month", "original_birth_year", "exclusion_reason"},
	ViewAnalytics: {"section", "metric", "value"},
}

var columnLabels = map[string]string{
	"original_row_number":  "Row #",
	"row_id":               "Row ID",
	"firstname":            "First Name",
	"birthday":             "Birth Day",
	"birthmonth":           "Birth Month",
	"birthyear":            "Birth Year",
	"name":                 "Name",
	"birth_day":            "Birth Day",
	"birth_month":          "Birth Month",
	"birth_year":           "Birth Year",
	"original_name":        "Original Name",
	"original_birth_day":   "Original Day",
	"original_birth_month": "Original Month",
	"original_birth_year":  "Original Year",
	"exclusion_reason":     "Exclusion Reason",
}

// Columns returns the ordered column keys shown for a view.
func Columns(v View) []string {
	return append([]string(nil), viewColumns[v]...)
}

// Labels returns a copy of the column label dictionary.
func Labels() map[string]string {
	out := make(map[string]string, len(columnLabels))
	for k, v := range columnLabels {
		out[k] = v
	}
	return out
}

// Label resolves a column key through labels, deriving one when missing:
// "exclusion_reason" becomes "Exclusion Reason".
func Label(labels map[string]string, key string) string {
	if l, ok := labels[key]; ok && l != "" {
		return l
	}
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
