package service

import (
	"context"

	"expenso/internal/domain"
	"expenso/internal/port"
)

// CatalogService exposes the read-only matching catalogs.
type CatalogService interface {
	Categories(ctx context.Context) ([]domain.ExpenseCategory, error)
	TaxCodes(ctx context.Context, country string) ([]domain.TaxCode, error)
	Currencies(ctx context.Context) ([]domain.Currency, error)
}

type catalogService struct {
	categoryRepo port.CategoryRepository
	taxCodeRepo  port.TaxCodeRepository
	currencyRepo port.CurrencyRepository
}

// NewCatalogService creates a new CatalogService implementation.
func NewCatalogService(
	categoryRepo port.CategoryRepository,
	taxCodeRepo port.TaxCodeRepository,
	currencyRepo port.CurrencyRepository,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		taxCodeRepo:  taxCodeRepo,
		currencyRepo: currencyRepo,
	}
}

func (s *catalogService) Categories(ctx context.Context) ([]domain.ExpenseCategory, error) {
	return s.categoryRepo.List(ctx)
}

func (s *catalogService) TaxCodes(ctx context.Context, country string) ([]domain.TaxCode, error) {
	return s.taxCodeRepo.ListByCountry(ctx, country)
}

func (s *catalogService) Currencies(ctx context.Context) ([]domain.Currency, error) {
	return s.currencyRepo.List(ctx)
}
