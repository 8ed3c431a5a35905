package port

import (
	"context"
	"time"

	"expenso/internal/domain"
)

// ResultStore is the correlation store: a key-value store mapping a job
// correlation key to a terminal result. It is populated by the callback
// receiver (and, best-effort, by the recognition client) and read by the
// result poller. Writes must be idempotent; a late duplicate write is
// harmless. Implementations must be safe for concurrent use.
type ResultStore interface {
	Put(ctx context.Context, correlationKey string, result *domain.StoredResult, ttl time.Duration) error
	// Get returns (nil, false, nil) when no entry exists yet. Absence means
	// not-ready, not an error.
	Get(ctx context.Context, correlationKey string) (*domain.StoredResult, bool, error)
	Delete(ctx context.Context, correlationKey string) error
	Ping(ctx context.Context) error
}
