package browse

import (
	"sheet-dash/internal/dataset"
)

// DefaultPageSize is the fixed number of rows per page for every view.
const DefaultPageSize = 100

// ViewState is the committed state of one (sheet, view) pair.
type ViewState struct {
	Loaded       bool
	CurrentPage  int
	TotalPages   int
	TotalRecords int
	// CleaningDone is only meaningful for included, excluded and analytics.
	CleaningDone bool
}

// Snapshot is a read-only copy of a view's committed state plus its presentation flags.
type Snapshot struct {
	ViewState
	Rows      []dataset.Row
	Columns   []string
	Analytics dataset.Analytics
	Loading   bool
	Err       string
	// Stale marks a loaded view whose data was superseded by a new cleaning run
	// and has not been re-fetched yet.
	Stale bool
}

// PagePatch is the result of one committed page fetch.
type PagePatch struct {
	Page         int
	TotalRecords int
	Rows         []dataset.Row
	Columns      []string
	Analytics    dataset.Analytics
}

type viewEntry struct {
	state     ViewState
	rows      []dataset.Row
	columns   []string
	analytics dataset.Analytics
	loading   bool
	err       string
	stale     bool
}

// Store owns the ViewState of every (sheet, view) pair for the session. It is not
// safe for concurrent use; all calls happen on the UI goroutine.
type Store struct {
	pageSize int
	sheets   []dataset.SheetID
	views    map[dataset.SheetID]map[dataset.View]*viewEntry
}

func NewStore(sheets []dataset.SheetID, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	s := &Store{
		pageSize: pageSize,
		sheets:   append([]dataset.SheetID(nil), sheets...),
		views:    make(map[dataset.SheetID]map[dataset.View]*viewEntry, len(sheets)),
	}
	for _, sheet := range sheets {
		byView := make(map[dataset.View]*viewEntry, len(dataset.Views))
		for _, v := range dataset.Views {
			byView[v] = &viewEntry{state: ViewState{CurrentPage: 1, TotalPages: 1}}
		}
		s.views[sheet] = byView
	}
	return s
}

func (s *Store) PageSize() int { return s.pageSize }

func (s *Store) Sheets() []dataset.SheetID {
	return append([]dataset.SheetID(nil), s.sheets...)
}

func (s *Store) Has(sheet dataset.SheetID, view dataset.View) bool {
	return s.entry(sheet, view) != nil
}

func (s *Store) entry(sheet dataset.SheetID, view dataset.View) *viewEntry {
	byView, ok := s.views[sheet]
	if !ok {
		return nil
	}
	return byView[view]
}

// Get returns the committed state; unknown pairs return the zero-page default.
func (s *Store) Get(sheet dataset.SheetID, view dataset.View) ViewState {
	e := s.entry(sheet, view)
	if e == nil {
		return ViewState{CurrentPage: 1, TotalPages: 1}
	}
	return e.state
}

func (s *Store) Snapshot(sheet dataset.SheetID, view dataset.View) Snapshot {
	e := s.entry(sheet, view)
	if e == nil {
		return Snapshot{ViewState: ViewState{CurrentPage: 1, TotalPages: 1}}
	}
	return Snapshot{
		ViewState: e.state,
		Rows:      append([]dataset.Row(nil), e.rows...),
		Columns:   append([]string(nil), e.columns...),
		Analytics: e.analytics,
		Loading:   e.loading,
		Err:       e.err,
		Stale:     e.stale,
	}
}

// Commit writes a fetched page. Page counts are derived from TotalRecords so the
// page invariants hold regardless of what the server reported.
func (s *Store) Commit(sheet dataset.SheetID, view dataset.View, p PagePatch) {
	e := s.entry(sheet, view)
	if e == nil {
		return
	}
	total := p.TotalRecords
	if total < 0 {
		total = 0
	}
	pages := dataset.PageCount(total, s.pageSize)
	e.state.TotalRecords = total
	e.state.TotalPages = pages
	e.state.CurrentPage = clampInt(p.Page, 1, pages)
	e.state.Loaded = true
	e.rows = append([]dataset.Row(nil), p.Rows...)
	e.columns = append([]string(nil), p.Columns...)
	if !p.Analytics.IsZero() {
		e.analytics = p.Analytics
	}
	e.loading = false
	e.err = ""
	e.stale = false
}

// CommitMetadata updates record counts without rows, e.g. after load-sheet reports
// a row count. Loaded is left untouched.
func (s *Store) CommitMetadata(sheet dataset.SheetID, view dataset.View, totalRecords int) {
	e := s.entry(sheet, view)
	if e == nil {
		return
	}
	if totalRecords < 0 {
		totalRecords = 0
	}
	e.state.TotalRecords = totalRecords
	e.state.TotalPages = dataset.PageCount(totalRecords, s.pageSize)
	e.state.CurrentPage = clampInt(e.state.CurrentPage, 1, e.state.TotalPages)
	if e.state.Loaded {
		e.stale = true
	}
}

// CommitCleaning applies one clean-sheet (or stored status) response to the included,
// excluded and analytics views together. The views are marked stale; Loaded keeps
// its value until the follow-up fetches commit.
func (s *Store) CommitCleaning(sheet dataset.SheetID, summary dataset.CleanSummary, analytics dataset.Analytics) {
	byView, ok := s.views[sheet]
	if !ok {
		return
	}
	counts := map[dataset.View]int{
		dataset.ViewIncluded:  summary.IncludedCount,
		dataset.ViewExcluded:  summary.ExcludedCount,
		dataset.ViewAnalytics: 0,
	}
	for view, count := range counts {
		e := byView[view]
		e.state.CleaningDone = true
		if view != dataset.ViewAnalytics {
			if count < 0 {
				count = 0
			}
			e.state.TotalRecords = count
			e.state.TotalPages = dataset.PageCount(count, s.pageSize)
			e.state.CurrentPage = 1
		}
		e.stale = true
	}
	if !analytics.IsZero() {
		byView[dataset.ViewAnalytics].analytics = analytics
	}
}

// CleaningDone reports whether the sheet's cleaned views are available.
func (s *Store) CleaningDone(sheet dataset.SheetID) bool {
	return s.Get(sheet, dataset.ViewIncluded).CleaningDone
}

func (s *Store) setLoading(sheet dataset.SheetID, view dataset.View) {
	if e := s.entry(sheet, view); e != nil {
		e.loading = true
		e.err = ""
	}
}

func (s *Store) fail(sheet dataset.SheetID, view dataset.View, msg string) {
	if e := s.entry(sheet, view); e != nil {
		e.loading = false
		e.err = msg
	}
}

// NeedsLoad reports whether activating the view should trigger a fetch.
func (s *Store) NeedsLoad(sheet dataset.SheetID, view dataset.View) bool {
	e := s.entry(sheet, view)
	if e == nil {
		return false
	}
	if e.loading {
		return false
	}
	return !e.state.Loaded || e.stale
}
