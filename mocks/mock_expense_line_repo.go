package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"expenso/internal/domain"
)

// MockExpenseLineRepo is a mock implementation of port.ExpenseLineRepository.
type MockExpenseLineRepo struct {
	mock.Mock
}

func (m *MockExpenseLineRepo) CreateBatch(ctx context.Context, lines []domain.ExpenseLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *MockExpenseLineRepo) GetDraft(ctx context.Context, reportID, documentID uuid.UUID) (*domain.ExpenseLine, error) {
	args := m.Called(ctx, reportID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpenseLine), args.Error(1)
}

func (m *MockExpenseLineRepo) ReplaceDraft(ctx context.Context, line *domain.ExpenseLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockExpenseLineRepo) ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.ExpenseLine, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExpenseLine), args.Error(1)
}

func (m *MockExpenseLineRepo) MaxSeq(ctx context.Context, reportID uuid.UUID) (int, error) {
	args := m.Called(ctx, reportID)
	return args.Int(0), args.Error(1)
}

func (m *MockExpenseLineRepo) Renumber(ctx context.Context, reportID uuid.UUID, orderedIDs []uuid.UUID) error {
	args := m.Called(ctx, reportID, orderedIDs)
	return args.Error(0)
}

func (m *MockExpenseLineRepo) Delete(ctx context.Context, reportID, lineID uuid.UUID) error {
	args := m.Called(ctx, reportID, lineID)
	return args.Error(0)
}
