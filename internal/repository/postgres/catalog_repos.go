package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"expenso/internal/domain"
	"expenso/internal/port"
)

type categoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo creates a new PostgreSQL-backed CategoryRepository.
func NewCategoryRepo(db *sqlx.DB) port.CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) List(ctx context.Context) ([]domain.ExpenseCategory, error) {
	var categories []domain.ExpenseCategory
	err := r.db.SelectContext(ctx, &categories,
		"SELECT * FROM expense_categories ORDER BY external_id")
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.List: %w", err)
	}
	return categories, nil
}

type taxCodeRepo struct {
	db *sqlx.DB
}

// NewTaxCodeRepo creates a new PostgreSQL-backed TaxCodeRepository.
func NewTaxCodeRepo(db *sqlx.DB) port.TaxCodeRepository {
	return &taxCodeRepo{db: db}
}

func (r *taxCodeRepo) ListByCountry(ctx context.Context, country string) ([]domain.TaxCode, error) {
	var codes []domain.TaxCode
	err := r.db.SelectContext(ctx, &codes,
		"SELECT * FROM tax_codes WHERE country = $1 ORDER BY name", country)
	if err != nil {
		return nil, fmt.Errorf("taxCodeRepo.ListByCountry: %w", err)
	}
	return codes, nil
}

type currencyRepo struct {
	db *sqlx.DB
}

// NewCurrencyRepo creates a new PostgreSQL-backed CurrencyRepository.
func NewCurrencyRepo(db *sqlx.DB) port.CurrencyRepository {
	return &currencyRepo{db: db}
}

func (r *currencyRepo) List(ctx context.Context) ([]domain.Currency, error) {
	var currencies []domain.Currency
	err := r.db.SelectContext(ctx, &currencies,
		"SELECT * FROM currencies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("currencyRepo.List: %w", err)
	}
	return currencies, nil
}
