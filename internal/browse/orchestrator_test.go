package browse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheet-dash/internal/dataset"
)

func TestSequenceGuardReverseOrder(t *testing.T) {
	be := newFakeBackend()
	be.setTotal("sheet1", dataset.ViewOriginal, 250)
	c := newTestController(be)
	c.Store().CommitMetadata("sheet1", dataset.ViewOriginal, 250)

	first, err := c.LoadPage("sheet1", dataset.ViewOriginal, 2)
	require.NoError(t, err)
	second, err := c.LoadPage("sheet1", dataset.ViewOriginal, 3)
	require.NoError(t, err)
	assert.Less(t, first.Request.Seq, second.Request.Seq)

	secondRes := second.Run(context.Background())
	firstRes := first.Run(context.Background())

	assert.Equal(t, OutcomeCommitted, c.Complete(secondRes))
	assert.Equal(t, OutcomeStale, c.Complete(firstRes))

	st := c.Store().Get("sheet1", dataset.ViewOriginal)
	assert.Equal(t, 3, st.CurrentPage)
	snap := c.Store().Snapshot("sheet1", dataset.ViewOriginal)
	require.Len(t, snap.Rows, 50)
	assert.Equal(t, "201", snap.Rows[0]["row_id"])
	assert.False(t, snap.Loading)
}

func TestSequenceGuardInOrderStillDropsSuperseded(t *testing.T) {
	be := newFakeBackend()
	be.setTotal("sheet1", dataset.ViewOriginal, 250)
	c := newTestController(be)
	c.Store().CommitMetadata("sheet1", dataset.ViewOriginal, 250)

	first, _ := c.LoadPage("sheet1", dataset.ViewOriginal, 2)
	second, _ := c.LoadPage("sheet1", dataset.ViewOriginal, 3)

	assert.Equal(t, OutcomeStale, c.Complete(first.Run(context.Background())))
	assert.True(t, c.Store().Snapshot("sheet1", dataset.ViewOriginal).Loading)
	assert.Equal(t, OutcomeCommitted, c.Complete(second.Run(context.Background())))
	assert.Equal(t, 3, c.Store().Get("sheet1", dataset.ViewOriginal).CurrentPage)
}

func TestLoadPageRejectsOutOfRange(t *testing.T) {
	c := newTestController(newFakeBackend())
	for _, p := range []int{0, -1, 2} {
		_, err := c.LoadPage("sheet1", dataset.ViewOriginal, p)
		assert.ErrorIs(t, err, ErrPageOutOfRange, "page %d", p)
	}
	assert.False(t, c.Store().Snapshot("sheet1", dataset.ViewOriginal).Loading)
	assert.Zero(t, c.orch.Latest("sheet1", dataset.ViewOriginal))

	_, err := c.LoadPage("nope", dataset.ViewOriginal, 1)
	assert.ErrorIs(t, err, ErrUnknownView)
	_, err = c.LoadPage("sheet1", dataset.ViewIncluded, 1)
	assert.ErrorIs(t, err, ErrTabDisabled)
}

func TestFetchErrorLeavesViewUnchanged(t *testing.T) {
	be := newFakeBackend()
	be.setTotal("sheet1", dataset.ViewIncluded, 150)
	c := newTestController(be)
	c.Store().CommitCleaning("sheet1", dataset.CleanSummary{IncludedCount: 150}, dataset.Analytics{})
	job, err := c.LoadPage("sheet1", dataset.ViewIncluded, 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, c.Complete(job.Run(context.Background())))

	be.fetchErr = errors.New("connection refused")
	job, err = c.LoadPage("sheet1", dataset.ViewIncluded, 2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, c.Complete(job.Run(context.Background())))

	snap := c.Store().Snapshot("sheet1", dataset.ViewIncluded)
	assert.Equal(t, 1, snap.CurrentPage)
	assert.Len(t, snap.Rows, 100)
	assert.False(t, snap.Loading)
	assert.Contains(t, snap.Err, "connection refused")

	// other views are unaffected
	assert.Empty(t, c.Store().Snapshot("sheet1", dataset.ViewOriginal).Err)
}

func TestOriginalSourceIsProbedOnceAndCached(t *testing.T) {
	be := newFakeBackend()
	be.persisted["sheet1"] = true
	be.setTotal("sheet1", dataset.ViewOriginal, 250)
	c := newTestController(be)
	c.Store().CommitMetadata("sheet1", dataset.ViewOriginal, 250)

	for _, p := range []int{1, 2, 3} {
		job, err := c.LoadPage("sheet1", dataset.ViewOriginal, p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCommitted, c.Complete(job.Run(context.Background())))
	}
	assert.Equal(t, 1, be.probes)
	assert.Equal(t, 3, be.persistedReads)
	assert.Zero(t, be.liveReads)

	src, ok := c.Resolver().Cached("sheet1")
	assert.True(t, ok)
	assert.Equal(t, SourcePersisted, src)
}

func TestFailedProbeFallsBackToLiveAndIsNotCached(t *testing.T) {
	be := newFakeBackend()
	be.probeErr = errors.New("db down")
	be.setTotal("sheet1", dataset.ViewOriginal, 10)
	c := newTestController(be)

	job, err := c.LoadPage("sheet1", dataset.ViewOriginal, 1)
	require.NoError(t, err)
	res := job.Run(context.Background())
	assert.NoError(t, res.Err)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, OutcomeCommitted, c.Complete(res))
	assert.Equal(t, 1, be.liveReads)

	_, ok := c.Resolver().Cached("sheet1")
	assert.False(t, ok)
}

func TestPersistedReadFailureFallsBackToLive(t *testing.T) {
	be := newFakeBackend()
	be.persisted["sheet1"] = true
	be.fetchErr = errors.New("relation does not exist")
	be.setTotal("sheet1", dataset.ViewOriginal, 10)
	c := newTestController(be)

	job, err := c.LoadPage("sheet1", dataset.ViewOriginal, 1)
	require.NoError(t, err)
	res := job.Run(context.Background())
	assert.NoError(t, res.Err)
	assert.Equal(t, SourcePersisted, res.Source)
	assert.Equal(t, 1, be.liveReads)
	assert.Equal(t, OutcomeCommitted, c.Complete(res))
	assert.Len(t, c.Store().Snapshot("sheet1", dataset.ViewOriginal).Rows, 10)
}

func TestResolverInvalidate(t *testing.T) {
	be := newFakeBackend()
	r := NewResolver(be)
	src, err := r.Resolve(context.Background(), "sheet1")
	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)

	be.persisted["sheet1"] = true
	src, _ = r.Resolve(context.Background(), "sheet1")
	assert.Equal(t, SourceLive, src, "cached")

	r.Invalidate("sheet1")
	src, _ = r.Resolve(context.Background(), "sheet1")
	assert.Equal(t, SourcePersisted, src)
	assert.Equal(t, 2, be.probes)
}

func TestProbeFromBeforeLoadSheetIsNotCached(t *testing.T) {
	be := newFakeBackend()
	be.loadRows = 10
	be.setTotal("sheet1", dataset.ViewOriginal, 10)
	c := newTestController(be)
	c.Store().CommitMetadata("sheet1", dataset.ViewOriginal, 10)

	old, err := c.LoadPage("sheet1", dataset.ViewOriginal, 1)
	require.NoError(t, err)
	oldRes := old.Run(context.Background())
	require.Equal(t, SourceLive, oldRes.Source)

	be.persisted["sheet1"] = true
	action, err := c.LoadSheet("sheet1")
	require.NoError(t, err)
	jobs, err := c.CompleteAction(action.Run(context.Background()))
	require.NoError(t, err)

	assert.Equal(t, OutcomeStale, c.Complete(oldRes))
	_, ok := c.Resolver().Cached("sheet1")
	assert.False(t, ok, "old probe must not refill the cache")

	runAll(c, jobs)
	src, ok := c.Resolver().Cached("sheet1")
	assert.True(t, ok)
	assert.Equal(t, SourcePersisted, src)
	assert.Equal(t, 1, be.persistedReads)
}

func TestResolverRememberAtIgnoresOldGeneration(t *testing.T) {
	r := NewResolver(nil)
	gen := r.Generation("sheet1")
	r.Invalidate("sheet1")
	assert.False(t, r.RememberAt("sheet1", gen, SourceLive))
	_, ok := r.Cached("sheet1")
	assert.False(t, ok)
	assert.True(t, r.RememberAt("sheet1", r.Generation("sheet1"), SourcePersisted))
}

func TestAnalyticsViewIsPaginated(t *testing.T) {
	be := newFakeBackend()
	raw := []byte(`{"dataset_sizes":{"original_row_count":250,"included_row_count":200,"excluded_row_count":50},
		"birth_year_distribution":[{"year":1990,"count":2},{"year":1991,"count":1}]}`)
	a, err := dataset.NewAnalytics(raw)
	require.NoError(t, err)
	be.analytics = a
	c := newTestController(be)
	c.Store().CommitCleaning("sheet1", a.Sizes(), a)

	job, err := c.LoadPage("sheet1", dataset.ViewAnalytics, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, c.Complete(job.Run(context.Background())))

	snap := c.Store().Snapshot("sheet1", dataset.ViewAnalytics)
	assert.True(t, snap.Loaded)
	assert.Equal(t, len(a.Rows()), snap.TotalRecords)
	assert.Equal(t, 1, snap.TotalPages)
	assert.Equal(t, dataset.Columns(dataset.ViewAnalytics), snap.Columns)
	assert.False(t, snap.Analytics.IsZero())
}
