package doctor

import (
	"context"
	"fmt"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Check verifies the backend answers and, when database is non-nil, that the
// persisted-row store accepts connections.
func Check(ctx context.Context, backend Pinger, database Pinger) error {
	if err := backend.Ping(ctx); err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	if database == nil {
		return nil
	}
	if err := database.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
