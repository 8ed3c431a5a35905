package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"expenso/internal/domain"
	"expenso/internal/port"
)

// PollOutcome is the single terminal outcome of a bounded poll. Callers
// never touch timer handles; interval and deadline live inside Poll.
type PollOutcome struct {
	State      domain.JobState // Completed, Failed, TimedOut or Cancelled
	Result     *domain.RecognitionResult
	Err        error
	Superseded bool // another delivery path consumed the key first
}

// ResultPoller repeatedly queries the correlation store for a correlation
// key until a terminal result appears or the hard deadline elapses.
type ResultPoller struct {
	store    port.ResultStore
	interval time.Duration
	deadline time.Duration
}

// NewResultPoller creates a poller with a fixed tick interval and a hard
// per-job deadline.
func NewResultPoller(store port.ResultStore, interval, deadline time.Duration) *ResultPoller {
	return &ResultPoller{store: store, interval: interval, deadline: deadline}
}

// Poll blocks until the correlation key resolves, the deadline elapses, the
// guard reports the key consumed elsewhere, or ctx is cancelled. The
// deadline is a hard boundary: a TimedOut outcome is surfaced as a failure
// and never triggers a resubmission. Both timers are stopped before Poll
// returns, so no late tick or deadline can fire against a resolved job.
func (p *ResultPoller) Poll(ctx context.Context, correlationKey string, guard *DedupGuard) PollOutcome {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.deadline)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return PollOutcome{State: domain.JobStateCancelled, Err: ctx.Err()}

		case <-deadline.C:
			return PollOutcome{State: domain.JobStateTimedOut}

		case <-ticker.C:
			// The synchronous path may have won while we slept.
			if guard.Consumed(correlationKey) {
				return PollOutcome{State: domain.JobStateCancelled, Superseded: true}
			}

			stored, found, err := p.store.Get(ctx, correlationKey)
			if err != nil {
				// Transient store errors do not burn the job; the deadline
				// bounds how long we keep trying.
				log.Printf("resultPoller: store query for key %s failed: %v", correlationKey, err)
				continue
			}
			if !found {
				continue
			}

			// Re-check before acting on the fetched result to close the race
			// between near-simultaneous delivery paths.
			if guard.Consumed(correlationKey) {
				return PollOutcome{State: domain.JobStateCancelled, Superseded: true}
			}

			switch stored.Status {
			case domain.StoredResultCompleted:
				return PollOutcome{State: domain.JobStateCompleted, Result: stored.Data}
			case domain.StoredResultError:
				return PollOutcome{State: domain.JobStateFailed, Err: fmt.Errorf("recognition service error: %s", stored.Error)}
			default:
				log.Printf("resultPoller: unknown stored status %q for key %s", stored.Status, correlationKey)
			}
		}
	}
}
