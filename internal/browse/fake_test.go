package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"sheet-dash/internal/dataset"
)

// fakeBackend serves synthetic rows. Totals are per sheet and view.
type fakeBackend struct {
	mu        sync.Mutex
	totals    map[dataset.SheetID]map[dataset.View]int
	persisted map[dataset.SheetID]bool
	probeErr  error
	fetchErr  error
	loadRows  int
	loadErr   error
	clean     dataset.CleanResult
	cleanErr  error
	analytics dataset.Analytics
	status    map[dataset.SheetID]dataset.SheetStatus

	probes         int
	persistedReads int
	liveReads      int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		totals:    map[dataset.SheetID]map[dataset.View]int{},
		persisted: map[dataset.SheetID]bool{},
		status:    map[dataset.SheetID]dataset.SheetStatus{},
	}
}

func (f *fakeBackend) setTotal(sheet dataset.SheetID, view dataset.View, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totals[sheet] == nil {
		f.totals[sheet] = map[dataset.View]int{}
	}
	f.totals[sheet][view] = n
}

func (f *fakeBackend) page(sheet dataset.SheetID, view dataset.View, page, size int) dataset.Page {
	f.mu.Lock()
	total := f.totals[sheet][view]
	f.mu.Unlock()
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	var rows []dataset.Row
	for i := start; i < end; i++ {
		rows = append(rows, dataset.Row{"row_id": fmt.Sprint(i + 1), "name": fmt.Sprintf("name-%d", i+1)})
	}
	return dataset.Page{Rows: rows, TotalRecords: total}
}

func (f *fakeBackend) OriginalExists(_ context.Context, sheet dataset.SheetID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.persisted[sheet], nil
}

func (f *fakeBackend) FetchPersistedOriginal(_ context.Context, sheet dataset.SheetID, page, size int) (dataset.Page, error) {
	f.mu.Lock()
	f.persistedReads++
	err := f.fetchErr
	f.mu.Unlock()
	if err != nil {
		return dataset.Page{}, err
	}
	return f.page(sheet, dataset.ViewOriginal, page, size), nil
}

func (f *fakeBackend) FetchLiveOriginal(_ context.Context, sheet dataset.SheetID, page, size int) (dataset.Page, error) {
	f.mu.Lock()
	f.liveReads++
	f.mu.Unlock()
	return f.page(sheet, dataset.ViewOriginal, page, size), nil
}

func (f *fakeBackend) LoadSheet(_ context.Context, _ dataset.SheetID) (int, error) {
	return f.loadRows, f.loadErr
}

func (f *fakeBackend) CleanSheet(_ context.Context, _ dataset.SheetID) (dataset.CleanResult, error) {
	return f.clean, f.cleanErr
}

func (f *fakeBackend) FetchCleaned(_ context.Context, sheet dataset.SheetID, view dataset.View, page, size int) (dataset.Page, error) {
	if f.fetchErr != nil {
		return dataset.Page{}, f.fetchErr
	}
	return f.page(sheet, view, page, size), nil
}

func (f *fakeBackend) FetchAnalytics(_ context.Context, _ dataset.SheetID) (dataset.Analytics, error) {
	return f.analytics, nil
}

func (f *fakeBackend) CleaningStatus(_ context.Context, sheet dataset.SheetID) (dataset.SheetStatus, error) {
	st, ok := f.status[sheet]
	if !ok {
		return dataset.SheetStatus{}, errors.New("no status")
	}
	return st, nil
}

var testSheets = []dataset.Sheet{
	{ID: "sheet1", Identifier: "jan", DisplayName: "01_jan (January Data)"},
	{ID: "sheet2", Identifier: "apr", DisplayName: "04_apr (April Data)"},
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestController(be *fakeBackend) *Controller {
	return New(be, Options{Sheets: testSheets, Logger: quietLogger()})
}

func runAll(c *Controller, jobs []Job) []Outcome {
	out := make([]Outcome, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, c.Complete(j.Run(context.Background())))
	}
	return out
}
