package browse

import (
	"errors"
	"fmt"
	"log"

	"sheet-dash/internal/dataset"
)

type Options struct {
	Sheets     []dataset.Sheet
	PageSize   int
	MaxButtons int
	Labels     map[string]string
	Logger     *log.Logger
}

// Controller ties the store, resolver, orchestrator and router together. Every
// method must be called from the UI goroutine; only Job.Run and ActionJob.Run may
// run elsewhere.
type Controller struct {
	sheets     []dataset.Sheet
	store      *Store
	resolver   *Resolver
	orch       *Orchestrator
	router     *Router
	backend    Backend
	labels     map[string]string
	maxButtons int
	logger     *log.Logger

	busy     map[dataset.SheetID]ActionKind
	statuses map[dataset.SheetID]dataset.SheetStatus
}

func New(backend Backend, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	labels := opts.Labels
	if labels == nil {
		labels = dataset.Labels()
	}
	maxButtons := opts.MaxButtons
	if maxButtons == 0 {
		maxButtons = DefaultButtons
	}

	ids := make([]dataset.SheetID, 0, len(opts.Sheets))
	for _, s := range opts.Sheets {
		ids = append(ids, s.ID)
	}
	store := NewStore(ids, opts.PageSize)
	resolver := NewResolver(backend)

	c := &Controller{
		sheets:     append([]dataset.Sheet(nil), opts.Sheets...),
		store:      store,
		resolver:   resolver,
		orch:       NewOrchestrator(store, resolver, backend, logger),
		backend:    backend,
		labels:     labels,
		maxButtons: maxButtons,
		logger:     logger,
		busy:       map[dataset.SheetID]ActionKind{},
		statuses:   map[dataset.SheetID]dataset.SheetStatus{},
	}
	c.router = NewRouter(c.tabEnabled)

	top := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		top = append(top, string(id))
	}
	top = append(top, TabOverview)
	c.router.AddGroup(GroupTop, top)

	views := make([]string, len(dataset.Views))
	for i, v := range dataset.Views {
		views[i] = string(v)
	}
	for _, id := range ids {
		c.router.AddGroup(string(id), views)
	}
	return c
}

func (c *Controller) tabEnabled(group, tab string) bool {
	if group == GroupTop {
		return true
	}
	view := dataset.View(tab)
	if !view.RequiresCleaning() {
		return true
	}
	return c.store.CleaningDone(dataset.SheetID(group))
}

func (c *Controller) Store() *Store       { return c.store }
func (c *Controller) Router() *Router     { return c.router }
func (c *Controller) Resolver() *Resolver { return c.resolver }

func (c *Controller) Sheets() []dataset.Sheet {
	return append([]dataset.Sheet(nil), c.sheets...)
}

func (c *Controller) Sheet(id dataset.SheetID) (dataset.Sheet, bool) {
	for _, s := range c.sheets {
		if s.ID == id {
			return s, true
		}
	}
	return dataset.Sheet{}, false
}

// ActiveSheet returns the sheet selected in the top group, if any.
func (c *Controller) ActiveSheet() (dataset.SheetID, bool) {
	tab := c.router.Active(GroupTop)
	if tab == "" || tab == TabOverview {
		return "", false
	}
	return dataset.SheetID(tab), true
}

func (c *Controller) ActiveView(sheet dataset.SheetID) dataset.View {
	if tab := c.router.Active(string(sheet)); tab != "" {
		return dataset.View(tab)
	}
	return dataset.ViewOriginal
}

// Start activates the first top tab, returning the lazy load for its visible view.
func (c *Controller) Start() []Job {
	tabs := c.router.Tabs(GroupTop)
	if len(tabs) == 0 {
		return nil
	}
	_, jobs, err := c.Activate(GroupTop, tabs[0])
	if err != nil {
		c.logger.Printf("start: %v", err)
	}
	return jobs
}

// Activate switches tabs and returns the page-1 loads the newly visible view needs.
func (c *Controller) Activate(group, tab string) (Activation, []Job, error) {
	act, err := c.router.Activate(group, tab)
	if err != nil {
		return Activation{}, nil, err
	}
	return act, c.lazyLoads(), nil
}

// CycleView moves the active sheet's sub-tab by delta, skipping disabled tabs.
func (c *Controller) CycleView(delta int) (Activation, []Job, error) {
	sheet, ok := c.ActiveSheet()
	if !ok {
		return Activation{}, nil, nil
	}
	act, err := c.router.Cycle(string(sheet), delta)
	if err != nil {
		return Activation{}, nil, err
	}
	return act, c.lazyLoads(), nil
}

func (c *Controller) lazyLoads() []Job {
	sheet, ok := c.ActiveSheet()
	if !ok {
		return nil
	}
	view := c.ActiveView(sheet)
	if !c.store.NeedsLoad(sheet, view) {
		return nil
	}
	job, err := c.orch.Begin(sheet, view, 1)
	if err != nil {
		c.logger.Printf("lazy load %s/%s: %v", sheet, view, err)
		return nil
	}
	return []Job{job}
}

// LoadPage issues a fetch of page for the view. Out-of-range pages and disabled
// views are rejected before any I/O.
func (c *Controller) LoadPage(sheet dataset.SheetID, view dataset.View, page int) (Job, error) {
	return c.orch.Begin(sheet, view, page)
}

// Step moves the active view by delta pages. Steps past either end are ignored.
func (c *Controller) Step(delta int) (Job, bool, error) {
	sheet, ok := c.ActiveSheet()
	if !ok {
		return Job{}, false, nil
	}
	view := c.ActiveView(sheet)
	st := c.store.Get(sheet, view)
	target := st.CurrentPage + delta
	if target < 1 || target > st.TotalPages || target == st.CurrentPage {
		return Job{}, false, nil
	}
	job, err := c.LoadPage(sheet, view, target)
	if err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

// Jump loads the first (page <= 1) or last page of the active view.
func (c *Controller) Jump(last bool) (Job, bool, error) {
	sheet, ok := c.ActiveSheet()
	if !ok {
		return Job{}, false, nil
	}
	view := c.ActiveView(sheet)
	st := c.store.Get(sheet, view)
	target := 1
	if last {
		target = st.TotalPages
	}
	if target == st.CurrentPage && st.Loaded {
		return Job{}, false, nil
	}
	job, err := c.LoadPage(sheet, view, target)
	if err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

// Reload re-fetches the current page of the active view.
func (c *Controller) Reload() (Job, bool, error) {
	sheet, ok := c.ActiveSheet()
	if !ok {
		return Job{}, false, nil
	}
	view := c.ActiveView(sheet)
	job, err := c.LoadPage(sheet, view, c.store.Get(sheet, view).CurrentPage)
	if err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

func (c *Controller) Complete(res Result) Outcome {
	return c.orch.Complete(res)
}

// Render prepares the table for a view from its committed snapshot.
func (c *Controller) Render(sheet dataset.SheetID, view dataset.View) Table {
	snap := c.store.Snapshot(sheet, view)
	cols := snap.Columns
	if len(cols) == 0 {
		cols = dataset.Columns(view)
	}
	return RenderTable(RenderInput{
		Sheet:        sheet,
		View:         view,
		Rows:         snap.Rows,
		Columns:      cols,
		Labels:       c.labels,
		CurrentPage:  snap.CurrentPage,
		TotalPages:   snap.TotalPages,
		TotalRecords: snap.TotalRecords,
		MaxButtons:   c.maxButtons,
		Load:         c.LoadPage,
	})
}

func (c *Controller) Status(sheet dataset.SheetID) (dataset.SheetStatus, bool) {
	st, ok := c.statuses[sheet]
	return st, ok
}

// Busy reports the action running for sheet, if any.
func (c *Controller) Busy(sheet dataset.SheetID) (ActionKind, bool) {
	k, ok := c.busy[sheet]
	return k, ok
}

// IsPolicyError reports whether err was a local rejection that never reached the
// network.
func IsPolicyError(err error) bool {
	for _, target := range []error{ErrUnknownView, ErrUnknownTab, ErrTabDisabled, ErrPageOutOfRange, ErrActionBusy} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (c *Controller) knownSheet(sheet dataset.SheetID) error {
	if _, ok := c.Sheet(sheet); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownView, sheet)
	}
	return nil
}
