package dataset

import (
	"fmt"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/tidwall/gjson"
)

// Analytics wraps the server's analytics payload. The payload shape is owned by the
// server, so fields are read by path instead of being decoded into a fixed struct.
type Analytics struct {
	raw []byte
}

func NewAnalytics(raw []byte) (Analytics, error) {
	if len(raw) == 0 {
		return Analytics{}, nil
	}
	if !gjson.ValidBytes(raw) {
		return Analytics{}, fmt.Errorf("analytics payload is not valid JSON")
	}
	return Analytics{raw: append([]byte(nil), raw...)}, nil
}

func (a Analytics) IsZero() bool { return len(a.raw) == 0 }

func (a Analytics) Raw() []byte { return append([]byte(nil), a.raw...) }

func (a Analytics) get(path string) gjson.Result {
	return gjson.GetBytes(a.raw, path)
}

// Sizes reads dataset_sizes.
func (a Analytics) Sizes() CleanSummary {
	return CleanSummary{
		OriginalCount: int(a.get("dataset_sizes.original_row_count").Int()),
		IncludedCount: int(a.get("dataset_sizes.included_row_count").Int()),
		ExcludedCount: int(a.get("dataset_sizes.excluded_row_count").Int()),
	}
}

type metricPath struct {
	label string
	path  string
	pct   bool
}

var analyticsSections = []struct {
	name    string
	metrics []metricPath
}{
	{"Dataset sizes", []metricPath{
		{"Original rows", "dataset_sizes.original_row_count", false},
		{"Included rows", "dataset_sizes.included_row_count", false},
		{"Excluded rows", "dataset_sizes.excluded_row_count", false},
		{"Included vs original", "dataset_sizes.percent_included_vs_original", true},
		{"Excluded vs original", "dataset_sizes.percent_excluded_vs_original", true},
	}},
	{"Uniqueness", []metricPath{
		{"Unique names", "uniqueness_metrics.unique_names", false},
		{"Unique birthdays", "uniqueness_metrics.unique_birthday_combinations", false},
		{"Unique name+year", "uniqueness_metrics.unique_name_year", false},
		{"Unique name+month", "uniqueness_metrics.unique_name_month", false},
		{"Unique name+day", "uniqueness_metrics.unique_name_day", false},
	}},
	{"Duplicates", []metricPath{
		{"Duplicate records", "duplicate_analysis.total_duplicate_records", false},
		{"Duplicate groups", "duplicate_analysis.unique_duplicate_groups", false},
	}},
}

// Rows flattens the payload into section/metric/value rows for the table renderer.
// Missing metrics keep their row with an empty value.
func (a Analytics) Rows() []Row {
	if a.IsZero() {
		return nil
	}
	rows := make([]Row, 0, 48)
	for _, sec := range analyticsSections {
		for _, m := range sec.metrics {
			v := a.get(m.path)
			value := ""
			if v.Exists() {
				value = v.String()
				if m.pct {
					value = strconv.FormatFloat(v.Float(), 'f', 2, 64) + "%"
				}
			}
			rows = append(rows, Row{"section": sec.name, "metric": m.label, "value": value})
		}
	}
	rows = append(rows, a.birthYearSummary()...)
	a.get("birth_year_distribution").ForEach(func(_, item gjson.Result) bool {
		rows = append(rows, Row{
			"section": "Birth years",
			"metric":  item.Get("year").String(),
			"value":   item.Get("count").String(),
		})
		return true
	})
	a.get("birth_month_distribution").ForEach(func(_, item gjson.Result) bool {
		label := item.Get("month_name").String()
		if label == "" {
			label = item.Get("month").String()
		}
		rows = append(rows, Row{"section": "Birth months", "metric": label, "value": item.Get("count").String()})
		return true
	})
	a.get("exclusion_reasons").ForEach(func(_, item gjson.Result) bool {
		rows = append(rows, Row{"section": "Exclusion reasons", "metric": item.Get("reason").String(), "value": item.Get("count").String()})
		return true
	})
	return rows
}

func (a Analytics) birthYearSummary() []Row {
	var years []float64
	a.get("birth_year_distribution").ForEach(func(_, item gjson.Result) bool {
		year := item.Get("year").Float()
		for n := item.Get("count").Int(); n > 0; n-- {
			years = append(years, year)
		}
		return true
	})
	if len(years) == 0 {
		return nil
	}
	var rows []Row
	if mean, err := stats.Mean(years); err == nil {
		rows = append(rows, Row{"section": "Birth year summary", "metric": "Mean", "value": strconv.FormatFloat(mean, 'f', 1, 64)})
	}
	if median, err := stats.Median(years); err == nil {
		rows = append(rows, Row{"section": "Birth year summary", "metric": "Median", "value": strconv.FormatFloat(median, 'f', 0, 64)})
	}
	if modes, err := stats.Mode(years); err == nil && len(modes) > 0 {
		rows = append(rows, Row{"section": "Birth year summary", "metric": "Most common", "value": strconv.FormatFloat(modes[0], 'f', 0, 64)})
	}
	return rows
}
