package browse

import (
	"context"
	"fmt"
	"log"

	"sheet-dash/internal/dataset"
)

// Backend is every operation the browse core needs from the server side.
type Backend interface {
	Prober
	FetchPersistedOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error)
	FetchLiveOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error)
	LoadSheet(ctx context.Context, sheet dataset.SheetID) (int, error)
	CleanSheet(ctx context.Context, sheet dataset.SheetID) (dataset.CleanResult, error)
	FetchCleaned(ctx context.Context, sheet dataset.SheetID, view dataset.View, page, pageSize int) (dataset.Page, error)
	FetchAnalytics(ctx context.Context, sheet dataset.SheetID) (dataset.Analytics, error)
	CleaningStatus(ctx context.Context, sheet dataset.SheetID) (dataset.SheetStatus, error)
}

// Request identifies one issued page load. Seq is monotonic per (Sheet, View).
type Request struct {
	Sheet dataset.SheetID
	View  dataset.View
	Page  int
	Seq   uint64
	// ResolverGen is the resolver generation the source decision was read under.
	ResolverGen uint64
}

// Result is what a Job produced off the UI goroutine.
type Result struct {
	Request Request
	Page    dataset.Page
	// Source is the resolved original-row source; Probed is set when the run had to
	// probe instead of using a cached decision.
	Source   OriginalSource
	Probed   bool
	Warnings []error
	Err      error
}

// Job is the I/O half of a page load. Run touches no browse state, so it is safe to
// call from any goroutine; its Result must be handed back to Complete.
type Job struct {
	Request Request
	run     func(ctx context.Context) Result
}

func (j Job) Run(ctx context.Context) Result {
	if j.run == nil {
		return Result{Request: j.Request, Err: fmt.Errorf("empty job")}
	}
	return j.run(ctx)
}

type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeStale
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeStale:
		return "stale"
	default:
		return "failed"
	}
}

type viewKey struct {
	sheet dataset.SheetID
	view  dataset.View
}

// Orchestrator issues page loads and commits only the latest result per view.
type Orchestrator struct {
	store    *Store
	resolver *Resolver
	backend  Backend
	logger   *log.Logger
	seq      map[viewKey]uint64
}

func NewOrchestrator(store *Store, resolver *Resolver, backend Backend, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		store:    store,
		resolver: resolver,
		backend:  backend,
		logger:   logger,
		seq:      map[viewKey]uint64{},
	}
}

// Latest returns the sequence number of the most recently issued request.
func (o *Orchestrator) Latest(sheet dataset.SheetID, view dataset.View) uint64 {
	return o.seq[viewKey{sheet, view}]
}

// Begin validates the target page, supersedes any in-flight request for the view and
// flags it as loading. Committed fields are not touched until Complete.
func (o *Orchestrator) Begin(sheet dataset.SheetID, view dataset.View, page int) (Job, error) {
	if !o.store.Has(sheet, view) {
		return Job{}, fmt.Errorf("%w: %s/%s", ErrUnknownView, sheet, view)
	}
	st := o.store.Get(sheet, view)
	if view.RequiresCleaning() && !st.CleaningDone {
		return Job{}, ErrTabDisabled
	}
	if page < 1 || page > st.TotalPages {
		return Job{}, fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, page, st.TotalPages)
	}

	k := viewKey{sheet, view}
	o.seq[k]++
	req := Request{Sheet: sheet, View: view, Page: page, Seq: o.seq[k], ResolverGen: o.resolver.Generation(sheet)}
	o.store.setLoading(sheet, view)

	pageSize := o.store.PageSize()
	backend := o.backend
	switch view {
	case dataset.ViewOriginal:
		cached, known := o.resolver.Cached(sheet)
		prober := o.resolver.prober
		return Job{Request: req, run: func(ctx context.Context) Result {
			return fetchOriginal(ctx, backend, prober, req, pageSize, cached, known)
		}}, nil
	case dataset.ViewAnalytics:
		return Job{Request: req, run: func(ctx context.Context) Result {
			return fetchAnalytics(ctx, backend, req, pageSize)
		}}, nil
	default:
		return Job{Request: req, run: func(ctx context.Context) Result {
			p, err := backend.FetchCleaned(ctx, req.Sheet, req.View, req.Page, pageSize)
			if err != nil {
				return Result{Request: req, Err: fmt.Errorf("fetch %s rows: %w", req.View, err)}
			}
			return Result{Request: req, Page: withColumns(p, req.View)}
		}}, nil
	}
}

func fetchOriginal(ctx context.Context, backend Backend, prober Prober, req Request, pageSize int, cached OriginalSource, known bool) Result {
	res := Result{Request: req}
	src := cached
	if !known {
		var err error
		src, err = probeOriginal(ctx, prober, req.Sheet)
		res.Probed = err == nil
		if err != nil {
			res.Warnings = append(res.Warnings, err)
		}
	}
	res.Source = src
	if src == SourcePersisted {
		p, err := backend.FetchPersistedOriginal(ctx, req.Sheet, req.Page, pageSize)
		if err == nil {
			res.Page = withColumns(p, req.View)
			return res
		}
		res.Warnings = append(res.Warnings, fmt.Errorf("persisted original for %s unavailable, reading live source: %w", req.Sheet, err))
	}
	p, err := backend.FetchLiveOriginal(ctx, req.Sheet, req.Page, pageSize)
	if err != nil {
		res.Err = fmt.Errorf("fetch original rows: %w", err)
		return res
	}
	res.Page = withColumns(p, req.View)
	return res
}

func fetchAnalytics(ctx context.Context, backend Backend, req Request, pageSize int) Result {
	a, err := backend.FetchAnalytics(ctx, req.Sheet)
	if err != nil {
		return Result{Request: req, Err: fmt.Errorf("fetch analytics: %w", err)}
	}
	rows := a.Rows()
	start := (req.Page - 1) * pageSize
	end := start + pageSize
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}
	return Result{Request: req, Page: dataset.Page{
		Rows:         rows[start:end],
		Columns:      dataset.Columns(dataset.ViewAnalytics),
		TotalRecords: len(rows),
		Analytics:    a,
	}}
}

func withColumns(p dataset.Page, view dataset.View) dataset.Page {
	if len(p.Columns) == 0 {
		p.Columns = dataset.Columns(view)
	}
	return p
}

// Complete applies a finished Job. Results superseded by a newer Begin for the same
// view are dropped without touching the store.
func (o *Orchestrator) Complete(res Result) Outcome {
	req := res.Request
	for _, w := range res.Warnings {
		o.logger.Printf("warning: %v", w)
	}
	if req.View == dataset.ViewOriginal && res.Probed {
		if !o.resolver.RememberAt(req.Sheet, req.ResolverGen, res.Source) {
			o.logger.Printf("ignoring %s probe for %s from before reload", res.Source, req.Sheet)
		}
	}
	if req.Seq != o.seq[viewKey{req.Sheet, req.View}] {
		o.logger.Printf("discarding stale %s/%s page %d (seq %d)", req.Sheet, req.View, req.Page, req.Seq)
		return OutcomeStale
	}
	if res.Err != nil {
		o.logger.Printf("load %s/%s page %d failed: %v", req.Sheet, req.View, req.Page, res.Err)
		o.store.fail(req.Sheet, req.View, res.Err.Error())
		return OutcomeFailed
	}
	o.store.Commit(req.Sheet, req.View, PagePatch{
		Page:         req.Page,
		TotalRecords: res.Page.TotalRecords,
		Rows:         res.Page.Rows,
		Columns:      res.Page.Columns,
		Analytics:    res.Page.Analytics,
	})
	return OutcomeCommitted
}
