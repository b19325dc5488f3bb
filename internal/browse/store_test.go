package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheet-dash/internal/dataset"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore([]dataset.SheetID{"sheet1"}, 0)
	assert.Equal(t, DefaultPageSize, s.PageSize())
	for _, v := range dataset.Views {
		st := s.Get("sheet1", v)
		assert.Equal(t, ViewState{CurrentPage: 1, TotalPages: 1}, st, v)
		assert.True(t, s.NeedsLoad("sheet1", v))
	}
	assert.False(t, s.Has("sheet9", dataset.ViewOriginal))
	assert.Equal(t, ViewState{CurrentPage: 1, TotalPages: 1}, s.Get("sheet9", dataset.ViewOriginal))
}

func TestCommitKeepsPageInvariants(t *testing.T) {
	s := NewStore([]dataset.SheetID{"sheet1"}, 100)
	tests := []struct {
		page, total   int
		wantPage      int
		wantTotalPage int
	}{
		{1, 0, 1, 1},
		{1, 1, 1, 1},
		{2, 200, 2, 2},
		{3, 201, 3, 3},
		{9, 250, 3, 3},
		{0, 250, 1, 3},
		{1, -5, 1, 1},
	}
	for _, tc := range tests {
		s.Commit("sheet1", dataset.ViewIncluded, PagePatch{Page: tc.page, TotalRecords: tc.total})
		st := s.Get("sheet1", dataset.ViewIncluded)
		assert.True(t, st.Loaded)
		assert.Equal(t, tc.wantPage, st.CurrentPage, "page for %+v", tc)
		assert.Equal(t, tc.wantTotalPage, st.TotalPages, "pages for %+v", tc)
		assert.GreaterOrEqual(t, st.CurrentPage, 1)
		assert.LessOrEqual(t, st.CurrentPage, st.TotalPages)
	}
}

func TestCommitCleaningUpdatesAllCleanedViews(t *testing.T) {
	s := NewStore([]dataset.SheetID{"sheet1"}, 100)
	s.Commit("sheet1", dataset.ViewIncluded, PagePatch{Page: 3, TotalRecords: 300})
	a, err := dataset.NewAnalytics([]byte(`{"dataset_sizes":{"original_row_count":250}}`))
	require.NoError(t, err)

	s.CommitCleaning("sheet1", dataset.CleanSummary{IncludedCount: 200, ExcludedCount: 50}, a)

	inc := s.Snapshot("sheet1", dataset.ViewIncluded)
	assert.True(t, inc.CleaningDone)
	assert.True(t, inc.Loaded, "loaded must not revert")
	assert.True(t, inc.Stale)
	assert.Equal(t, 200, inc.TotalRecords)
	assert.Equal(t, 2, inc.TotalPages)
	assert.Equal(t, 1, inc.CurrentPage)

	exc := s.Get("sheet1", dataset.ViewExcluded)
	assert.True(t, exc.CleaningDone)
	assert.False(t, exc.Loaded)
	assert.Equal(t, 1, exc.TotalPages)

	an := s.Snapshot("sheet1", dataset.ViewAnalytics)
	assert.True(t, an.CleaningDone)
	assert.False(t, an.Analytics.IsZero())
	assert.True(t, s.CleaningDone("sheet1"))
	assert.False(t, s.Get("sheet1", dataset.ViewOriginal).CleaningDone)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore([]dataset.SheetID{"sheet1"}, 100)
	s.Commit("sheet1", dataset.ViewOriginal, PagePatch{Page: 1, TotalRecords: 1, Rows: []dataset.Row{{"row_id": "1"}}})
	snap := s.Snapshot("sheet1", dataset.ViewOriginal)
	snap.Rows[0] = dataset.Row{"row_id": "changed"}
	assert.Equal(t, "1", s.Snapshot("sheet1", dataset.ViewOriginal).Rows[0]["row_id"])
}

func TestFailKeepsCommittedState(t *testing.T) {
	s := NewStore([]dataset.SheetID{"sheet1"}, 100)
	s.Commit("sheet1", dataset.ViewOriginal, PagePatch{Page: 2, TotalRecords: 250})
	s.setLoading("sheet1", dataset.ViewOriginal)
	assert.False(t, s.NeedsLoad("sheet1", dataset.ViewOriginal))
	s.fail("sheet1", dataset.ViewOriginal, "boom")

	snap := s.Snapshot("sheet1", dataset.ViewOriginal)
	assert.False(t, snap.Loading)
	assert.Equal(t, "boom", snap.Err)
	assert.Equal(t, 2, snap.CurrentPage)
	assert.Equal(t, 3, snap.TotalPages)
	assert.True(t, snap.Loaded)
}
