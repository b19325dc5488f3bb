package backend

import (
	"context"

	"sheet-dash/internal/dataset"
)

// PersistedReader reads persisted original rows directly from storage.
type PersistedReader interface {
	OriginalExists(ctx context.Context, sheet dataset.SheetID) (bool, error)
	FetchPersistedOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error)
}

// Composite serves persisted original rows from a PersistedReader and everything
// else from the HTTP client.
type Composite struct {
	Client
	Persisted PersistedReader
}

func (c Composite) OriginalExists(ctx context.Context, sheet dataset.SheetID) (bool, error) {
	if c.Persisted == nil {
		return c.Client.OriginalExists(ctx, sheet)
	}
	return c.Persisted.OriginalExists(ctx, sheet)
}

func (c Composite) FetchPersistedOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error) {
	if c.Persisted == nil {
		return c.Client.FetchPersistedOriginal(ctx, sheet, page, pageSize)
	}
	return c.Persisted.FetchPersistedOriginal(ctx, sheet, page, pageSize)
}
