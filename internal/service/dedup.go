package service

import (
	"sync"

	"github.com/google/uuid"
)

// DedupGuard makes the union of result delivery paths (synchronous response,
// callback store, polling) behave as exactly-once from the materializer's
// point of view. It tracks, per batch, the consumed correlation keys and the
// document ids already materialized.
type DedupGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
	docs map[uuid.UUID]struct{}
}

// NewDedupGuard creates an empty guard.
func NewDedupGuard() *DedupGuard {
	g := &DedupGuard{}
	g.Reset()
	return g
}

// Reset clears all consumed state. Called at batch start.
func (g *DedupGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = make(map[string]struct{})
	g.docs = make(map[uuid.UUID]struct{})
}

// TryConsume atomically marks both the correlation key and the document as
// consumed iff neither was previously marked. A false return is not an
// error; the caller must discard the result silently.
func (g *DedupGuard) TryConsume(correlationKey string, documentID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, seen := g.keys[correlationKey]; seen {
		return false
	}
	if _, seen := g.docs[documentID]; seen {
		return false
	}

	g.keys[correlationKey] = struct{}{}
	g.docs[documentID] = struct{}{}
	return true
}

// Consumed reports whether a correlation key has already been consumed by
// some delivery path. The poller checks this on every tick so it can stop
// immediately once another path has won.
func (g *DedupGuard) Consumed(correlationKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, seen := g.keys[correlationKey]
	return seen
}
