package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"expenso/internal/domain"
)

// MockCategoryRepo is a mock implementation of port.CategoryRepository.
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) List(ctx context.Context) ([]domain.ExpenseCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExpenseCategory), args.Error(1)
}

// MockTaxCodeRepo is a mock implementation of port.TaxCodeRepository.
type MockTaxCodeRepo struct {
	mock.Mock
}

func (m *MockTaxCodeRepo) ListByCountry(ctx context.Context, country string) ([]domain.TaxCode, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaxCode), args.Error(1)
}

// MockCurrencyRepo is a mock implementation of port.CurrencyRepository.
type MockCurrencyRepo struct {
	mock.Mock
}

func (m *MockCurrencyRepo) List(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}
