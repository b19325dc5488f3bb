package browse

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"sheet-dash/internal/dataset"
)

type ActionKind int

const (
	ActionLoadSheet ActionKind = iota + 1
	ActionCleanSheet
	ActionStatus
)

func (k ActionKind) String() string {
	switch k {
	case ActionLoadSheet:
		return "load"
	case ActionCleanSheet:
		return "clean"
	case ActionStatus:
		return "status"
	default:
		return "unknown"
	}
}

// ActionResult is what an ActionJob produced off the UI goroutine.
type ActionResult struct {
	Kind     ActionKind
	Sheet    dataset.SheetID
	RowCount int
	Clean    dataset.CleanResult
	Statuses []dataset.SheetStatus
	Err      error
}

type ActionJob struct {
	Kind  ActionKind
	Sheet dataset.SheetID
	run   func(ctx context.Context) ActionResult
}

func (j ActionJob) Run(ctx context.Context) ActionResult {
	if j.run == nil {
		return ActionResult{Kind: j.Kind, Sheet: j.Sheet, Err: fmt.Errorf("empty action")}
	}
	return j.run(ctx)
}

func (c *Controller) begin(kind ActionKind, sheet dataset.SheetID) error {
	if err := c.knownSheet(sheet); err != nil {
		return err
	}
	if running, ok := c.busy[sheet]; ok {
		return fmt.Errorf("%w: %s is running for %s", ErrActionBusy, running, sheet)
	}
	c.busy[sheet] = kind
	return nil
}

// LoadSheet asks the server to (re)load the sheet from its spreadsheet source.
func (c *Controller) LoadSheet(sheet dataset.SheetID) (ActionJob, error) {
	if err := c.begin(ActionLoadSheet, sheet); err != nil {
		return ActionJob{}, err
	}
	backend := c.backend
	return ActionJob{Kind: ActionLoadSheet, Sheet: sheet, run: func(ctx context.Context) ActionResult {
		n, err := backend.LoadSheet(ctx, sheet)
		if err != nil {
			err = fmt.Errorf("load %s: %w", sheet, err)
		}
		return ActionResult{Kind: ActionLoadSheet, Sheet: sheet, RowCount: n, Err: err}
	}}, nil
}

// CleanSheet runs the server-side cleaning for the sheet.
func (c *Controller) CleanSheet(sheet dataset.SheetID) (ActionJob, error) {
	if err := c.begin(ActionCleanSheet, sheet); err != nil {
		return ActionJob{}, err
	}
	backend := c.backend
	return ActionJob{Kind: ActionCleanSheet, Sheet: sheet, run: func(ctx context.Context) ActionResult {
		res, err := backend.CleanSheet(ctx, sheet)
		if err != nil {
			err = fmt.Errorf("clean %s: %w", sheet, err)
		}
		return ActionResult{Kind: ActionCleanSheet, Sheet: sheet, Clean: res, Err: err}
	}}, nil
}

// CheckStatus fetches the stored cleaning status of every sheet concurrently. A
// sheet whose check fails is reported as not cleaned; the first error is kept.
func (c *Controller) CheckStatus() ActionJob {
	sheets := make([]dataset.SheetID, len(c.sheets))
	for i, s := range c.sheets {
		sheets[i] = s.ID
	}
	backend := c.backend
	logger := c.logger
	return ActionJob{Kind: ActionStatus, run: func(ctx context.Context) ActionResult {
		out := make([]dataset.SheetStatus, len(sheets))
		var (
			mu       sync.Mutex
			firstErr error
		)
		g, gctx := errgroup.WithContext(ctx)
		for i, sheet := range sheets {
			g.Go(func() error {
				st, err := backend.CleaningStatus(gctx, sheet)
				if err != nil {
					logger.Printf("warning: status check for %s failed: %v", sheet, err)
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("status %s: %w", sheet, err)
					}
					mu.Unlock()
					st = dataset.SheetStatus{}
				}
				st.Sheet = sheet
				out[i] = st
				return nil
			})
		}
		_ = g.Wait()
		return ActionResult{Kind: ActionStatus, Statuses: out, Err: firstErr}
	}}
}

// CompleteAction applies a finished action and returns the page loads it implies.
// Server failures leave the browse state unchanged and are returned as is.
func (c *Controller) CompleteAction(res ActionResult) ([]Job, error) {
	if res.Kind != ActionStatus {
		delete(c.busy, res.Sheet)
	}
	switch res.Kind {
	case ActionLoadSheet:
		if res.Err != nil {
			return nil, res.Err
		}
		c.resolver.Invalidate(res.Sheet)
		c.store.CommitMetadata(res.Sheet, dataset.ViewOriginal, res.RowCount)
		st := c.statuses[res.Sheet]
		st.Sheet = res.Sheet
		st.OriginalLoaded = true
		c.statuses[res.Sheet] = st
		return c.beginAll(res.Sheet, dataset.ViewOriginal), nil

	case ActionCleanSheet:
		if res.Err != nil {
			return nil, res.Err
		}
		summary := res.Clean.Summary
		if summary == (dataset.CleanSummary{}) && !res.Clean.Analytics.IsZero() {
			summary = res.Clean.Analytics.Sizes()
		}
		c.store.CommitCleaning(res.Sheet, summary, res.Clean.Analytics)
		st := c.statuses[res.Sheet]
		st.Sheet = res.Sheet
		st.Cleaned = true
		st.Summary = summary
		st.Analytics = res.Clean.Analytics
		c.statuses[res.Sheet] = st
		return c.beginAll(res.Sheet, dataset.ViewIncluded, dataset.ViewExcluded, dataset.ViewAnalytics), nil

	case ActionStatus:
		for _, st := range res.Statuses {
			if err := c.knownSheet(st.Sheet); err != nil {
				continue
			}
			c.statuses[st.Sheet] = st
			if st.Cleaned && !c.store.CleaningDone(st.Sheet) {
				summary := st.Summary
				if summary == (dataset.CleanSummary{}) && !st.Analytics.IsZero() {
					summary = st.Analytics.Sizes()
				}
				c.store.CommitCleaning(st.Sheet, summary, st.Analytics)
			}
		}
		return c.lazyLoads(), res.Err
	}
	return nil, fmt.Errorf("unknown action %d", res.Kind)
}

func (c *Controller) beginAll(sheet dataset.SheetID, views ...dataset.View) []Job {
	jobs := make([]Job, 0, len(views))
	for _, v := range views {
		job, err := c.orch.Begin(sheet, v, 1)
		if err != nil {
			c.logger.Printf("load %s/%s: %v", sheet, v, err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
