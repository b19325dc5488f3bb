package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 100))
	assert.Equal(t, 1, PageCount(-3, 100))
	assert.Equal(t, 1, PageCount(100, 100))
	assert.Equal(t, 2, PageCount(101, 100))
	assert.Equal(t, 3, PageCount(250, 100))
	assert.Equal(t, 5, PageCount(5, 0))
}

func TestParseView(t *testing.T) {
	v, err := ParseView(" Included ")
	require.NoError(t, err)
	assert.Equal(t, ViewIncluded, v)
	_, err = ParseView("raw")
	assert.Error(t, err)
	assert.False(t, ViewOriginal.RequiresCleaning())
	assert.True(t, ViewAnalytics.RequiresCleaning())
}

func TestRowFromJSON(t *testing.T) {
	row := RowFromJSON(map[string]any{
		"row_id":     float64(12),
		"name":       "Ana",
		"birth_day":  nil,
		"ratio":      1.5,
		"is_flagged": true,
	})
	assert.Equal(t, Row{"row_id": "12", "name": "Ana", "birth_day": "", "ratio": "1.5", "is_flagged": "true"}, row)
}

func TestLabelFallback(t *testing.T) {
	labels := Labels()
	assert.Equal(t, "Row ID", Label(labels, "row_id"))
	assert.Equal(t, "Exclusion Reason", Label(nil, "exclusion_reason"))
	assert.Equal(t, "Über Feld", Label(nil, "über-feld"))
	assert.Equal(t, "", Label(nil, ""))
}

func TestAnalyticsRows(t *testing.T) {
	a, err := NewAnalytics([]byte(`{
		"dataset_sizes": {"original_row_count": 250, "included_row_count": 200, "excluded_row_count": 50,
			"percent_included_vs_original": 80, "percent_excluded_vs_original": 20},
		"birth_year_distribution": [{"year": 1990, "count": 3}, {"year": 1992, "count": 1}],
		"birth_month_distribution": [{"month": 1, "month_name": "January", "count": 4}],
		"exclusion_reasons": [{"reason": "invalid date", "count": 50}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, CleanSummary{OriginalCount: 250, IncludedCount: 200, ExcludedCount: 50}, a.Sizes())

	rows := a.Rows()
	find := func(section, metric string) (string, bool) {
		for _, r := range rows {
			if r["section"] == section && r["metric"] == metric {
				return r["value"], true
			}
		}
		return "", false
	}
	v, ok := find("Dataset sizes", "Included vs original")
	require.True(t, ok)
	assert.Equal(t, "80.00%", v)
	v, _ = find("Birth year summary", "Mean")
	assert.Equal(t, "1990.5", v)
	v, _ = find("Birth year summary", "Most common")
	assert.Equal(t, "1990", v)
	v, _ = find("Birth months", "January")
	assert.Equal(t, "4", v)
	v, _ = find("Exclusion reasons", "invalid date")
	assert.Equal(t, "50", v)
	v, ok = find("Uniqueness", "Unique names")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestNewAnalyticsRejectsInvalidJSON(t *testing.T) {
	_, err := NewAnalytics([]byte(`{"broken"`))
	assert.Error(t, err)
	a, err := NewAnalytics(nil)
	require.NoError(t, err)
	assert.True(t, a.IsZero())
	assert.Nil(t, a.Rows())
}
