package service_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"expenso/internal/service"
)

func TestDedupGuard_FirstConsumeWins(t *testing.T) {
	g := service.NewDedupGuard()
	docID := uuid.New()

	assert.True(t, g.TryConsume("key-1", docID))
	assert.False(t, g.TryConsume("key-1", docID))
	assert.True(t, g.Consumed("key-1"))
}

func TestDedupGuard_SameDocumentDifferentKeys(t *testing.T) {
	g := service.NewDedupGuard()
	docID := uuid.New()

	// A second submission attempt for the same document must lose even
	// though its correlation key is fresh.
	assert.True(t, g.TryConsume("key-1", docID))
	assert.False(t, g.TryConsume("key-2", docID))
	assert.False(t, g.Consumed("key-2"))
}

func TestDedupGuard_IndependentDocuments(t *testing.T) {
	g := service.NewDedupGuard()

	assert.True(t, g.TryConsume("key-1", uuid.New()))
	assert.True(t, g.TryConsume("key-2", uuid.New()))
}

func TestDedupGuard_Reset(t *testing.T) {
	g := service.NewDedupGuard()
	docID := uuid.New()

	assert.True(t, g.TryConsume("key-1", docID))
	g.Reset()
	assert.False(t, g.Consumed("key-1"))
	assert.True(t, g.TryConsume("key-1", docID))
}

func TestDedupGuard_ConcurrentRace(t *testing.T) {
	g := service.NewDedupGuard()
	docID := uuid.New()

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryConsume("key-1", docID) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one racer may win")
}
