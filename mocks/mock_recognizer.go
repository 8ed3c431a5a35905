package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"expenso/internal/port"
)

// MockRecognizer is a mock implementation of port.Recognizer.
type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Submit(ctx context.Context, input port.SubmitInput) (*port.SubmitOutcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.SubmitOutcome), args.Error(1)
}
