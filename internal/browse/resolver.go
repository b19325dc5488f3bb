package browse

import (
	"context"
	"fmt"

	"sheet-dash/internal/dataset"
)

// OriginalSource says where a sheet's original rows are read from.
type OriginalSource int

const (
	SourceUnknown OriginalSource = iota
	// SourcePersisted is the store the cleaning run writes to.
	SourcePersisted
	// SourceLive is the external spreadsheet, always available once a sheet loaded.
	SourceLive
)

func (s OriginalSource) String() string {
	switch s {
	case SourcePersisted:
		return "persisted"
	case SourceLive:
		return "live"
	default:
		return "unknown"
	}
}

// Prober is the persisted-store existence check.
type Prober interface {
	OriginalExists(ctx context.Context, sheet dataset.SheetID) (bool, error)
}

// Resolver caches one source decision per sheet for the session. Cache reads and
// writes happen on the UI goroutine; probes may run elsewhere.
type Resolver struct {
	prober Prober
	cache  map[dataset.SheetID]OriginalSource
	gen    map[dataset.SheetID]uint64
}

func NewResolver(p Prober) *Resolver {
	return &Resolver{
		prober: p,
		cache:  map[dataset.SheetID]OriginalSource{},
		gen:    map[dataset.SheetID]uint64{},
	}
}

// Generation counts Invalidate calls for sheet.
func (r *Resolver) Generation(sheet dataset.SheetID) uint64 {
	return r.gen[sheet]
}

func (r *Resolver) Cached(sheet dataset.SheetID) (OriginalSource, bool) {
	src, ok := r.cache[sheet]
	return src, ok
}

func (r *Resolver) Remember(sheet dataset.SheetID, src OriginalSource) {
	if src == SourceUnknown {
		return
	}
	r.cache[sheet] = src
}

// RememberAt caches src only if no Invalidate happened since gen was read.
func (r *Resolver) RememberAt(sheet dataset.SheetID, gen uint64, src OriginalSource) bool {
	if r.gen[sheet] != gen {
		return false
	}
	r.Remember(sheet, src)
	return true
}

func (r *Resolver) Invalidate(sheet dataset.SheetID) {
	delete(r.cache, sheet)
	r.gen[sheet]++
}

// Resolve returns the cached decision or probes and caches it. A failed probe
// yields SourceLive together with the probe error, which callers treat as a warning.
func (r *Resolver) Resolve(ctx context.Context, sheet dataset.SheetID) (OriginalSource, error) {
	if src, ok := r.Cached(sheet); ok {
		return src, nil
	}
	src, err := probeOriginal(ctx, r.prober, sheet)
	if err == nil {
		r.Remember(sheet, src)
	}
	return src, err
}

func probeOriginal(ctx context.Context, p Prober, sheet dataset.SheetID) (OriginalSource, error) {
	if p == nil {
		return SourceLive, nil
	}
	exists, err := p.OriginalExists(ctx, sheet)
	if err != nil {
		return SourceLive, fmt.Errorf("probe persisted original for %s: %w", sheet, err)
	}
	if exists {
		return SourcePersisted, nil
	}
	return SourceLive, nil
}
