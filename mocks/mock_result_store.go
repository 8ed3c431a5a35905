package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"expenso/internal/domain"
)

// MockResultStore is a mock implementation of port.ResultStore.
type MockResultStore struct {
	mock.Mock
}

func (m *MockResultStore) Put(ctx context.Context, correlationKey string, result *domain.StoredResult, ttl time.Duration) error {
	args := m.Called(ctx, correlationKey, result, ttl)
	return args.Error(0)
}

func (m *MockResultStore) Get(ctx context.Context, correlationKey string) (*domain.StoredResult, bool, error) {
	args := m.Called(ctx, correlationKey)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.StoredResult), args.Bool(1), args.Error(2)
}

func (m *MockResultStore) Delete(ctx context.Context, correlationKey string) error {
	args := m.Called(ctx, correlationKey)
	return args.Error(0)
}

func (m *MockResultStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
