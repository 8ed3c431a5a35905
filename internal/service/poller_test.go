package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"expenso/internal/domain"
	"expenso/internal/service"
	"expenso/mocks"
)

const (
	testPollInterval = 5 * time.Millisecond
	testPollDeadline = 250 * time.Millisecond
)

func TestResultPoller_CompletedAfterSomeTicks(t *testing.T) {
	store := new(mocks.MockResultStore)
	result := &domain.RecognitionResult{Success: true, Confidence: 0.9}

	// Not ready twice, then completed.
	store.On("Get", mock.Anything, "key-1").Return(nil, false, nil).Twice()
	store.On("Get", mock.Anything, "key-1").
		Return(&domain.StoredResult{Status: domain.StoredResultCompleted, Data: result}, true, nil)

	p := service.NewResultPoller(store, testPollInterval, testPollDeadline)
	outcome := p.Poll(context.Background(), "key-1", service.NewDedupGuard())

	assert.Equal(t, domain.JobStateCompleted, outcome.State)
	assert.Equal(t, result, outcome.Result)
	assert.False(t, outcome.Superseded)
}

func TestResultPoller_ErrorResult(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Get", mock.Anything, "key-1").
		Return(&domain.StoredResult{Status: domain.StoredResultError, Error: "unreadable scan"}, true, nil)

	p := service.NewResultPoller(store, testPollInterval, testPollDeadline)
	outcome := p.Poll(context.Background(), "key-1", service.NewDedupGuard())

	assert.Equal(t, domain.JobStateFailed, outcome.State)
	assert.ErrorContains(t, outcome.Err, "unreadable scan")
}

func TestResultPoller_DeadlineElapsed(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Get", mock.Anything, "key-1").Return(nil, false, nil)

	p := service.NewResultPoller(store, testPollInterval, 30*time.Millisecond)
	outcome := p.Poll(context.Background(), "key-1", service.NewDedupGuard())

	assert.Equal(t, domain.JobStateTimedOut, outcome.State)
	assert.Nil(t, outcome.Result)
}

func TestResultPoller_TransientStoreErrorsDoNotBurnTheJob(t *testing.T) {
	store := new(mocks.MockResultStore)
	result := &domain.RecognitionResult{Success: true}

	store.On("Get", mock.Anything, "key-1").Return(nil, false, assert.AnError).Twice()
	store.On("Get", mock.Anything, "key-1").
		Return(&domain.StoredResult{Status: domain.StoredResultCompleted, Data: result}, true, nil)

	p := service.NewResultPoller(store, testPollInterval, testPollDeadline)
	outcome := p.Poll(context.Background(), "key-1", service.NewDedupGuard())

	assert.Equal(t, domain.JobStateCompleted, outcome.State)
}

func TestResultPoller_CancelledContext(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Get", mock.Anything, "key-1").Return(nil, false, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(2 * testPollInterval)
		cancel()
	}()

	p := service.NewResultPoller(store, testPollInterval, testPollDeadline)
	outcome := p.Poll(ctx, "key-1", service.NewDedupGuard())

	assert.Equal(t, domain.JobStateCancelled, outcome.State)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
}

func TestResultPoller_SupersededByOtherPath(t *testing.T) {
	store := new(mocks.MockResultStore)
	store.On("Get", mock.Anything, "key-1").Return(nil, false, nil).Maybe()

	guard := service.NewDedupGuard()
	guard.TryConsume("key-1", uuid.New())

	p := service.NewResultPoller(store, testPollInterval, testPollDeadline)
	outcome := p.Poll(context.Background(), "key-1", guard)

	assert.True(t, outcome.Superseded)
	assert.Nil(t, outcome.Result)
}
