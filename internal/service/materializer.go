package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"expenso/internal/domain"
	"expenso/internal/matcher"
	"expenso/internal/port"
)

// MaterializeInput carries the batch-level context a line needs beyond the
// recognition result itself.
type MaterializeInput struct {
	ReportID       uuid.UUID
	DocumentID     uuid.UUID
	Result         *domain.RecognitionResult
	SubmissionDate time.Time
	Country        string
}

// LineMaterializer replaces a draft placeholder line with the finalized line
// built from a recognition result. It must only be called with results that
// already passed the dedup guard; the guard guarantees at-most-once
// execution per document, so the materializer needs no locking of its own.
type LineMaterializer struct {
	lineRepo     port.ExpenseLineRepository
	categoryRepo port.CategoryRepository
	taxCodeRepo  port.TaxCodeRepository
	currencyRepo port.CurrencyRepository
}

// NewLineMaterializer creates a LineMaterializer.
func NewLineMaterializer(
	lineRepo port.ExpenseLineRepository,
	categoryRepo port.CategoryRepository,
	taxCodeRepo port.TaxCodeRepository,
	currencyRepo port.CurrencyRepository,
) *LineMaterializer {
	return &LineMaterializer{
		lineRepo:     lineRepo,
		categoryRepo: categoryRepo,
		taxCodeRepo:  taxCodeRepo,
		currencyRepo: currencyRepo,
	}
}

// Materialize locates the draft for the document and replaces it in place,
// keeping its id and sequence number. A missing draft (removed by a user
// edit mid-flight) is not an error: the guard has already marked the
// document consumed, so the result is discarded and no duplicate line can
// ever appear.
func (m *LineMaterializer) Materialize(ctx context.Context, input MaterializeInput) error {
	draft, err := m.lineRepo.GetDraft(ctx, input.ReportID, input.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrLineNotFound) {
			log.Printf("lineMaterializer: draft for document %s gone, discarding result", input.DocumentID)
			return nil
		}
		return fmt.Errorf("locating draft line: %w", err)
	}

	line, err := m.buildLine(ctx, draft, input)
	if err != nil {
		return err
	}

	if err := m.lineRepo.ReplaceDraft(ctx, line); err != nil {
		return fmt.Errorf("replacing draft line: %w", err)
	}

	log.Printf("lineMaterializer: materialized line %s (seq %d) for document %s",
		line.ID, line.Seq, input.DocumentID)
	return nil
}

// buildLine maps the recognition output onto catalog identifiers and
// normalized fields. Malformed fields are never fatal; the matcher
// substitutes safe defaults and the line is still materialized.
func (m *LineMaterializer) buildLine(ctx context.Context, draft *domain.ExpenseLine, input MaterializeInput) (*domain.ExpenseLine, error) {
	result := input.Result

	categories, err := m.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category catalog: %w", err)
	}
	currencies, err := m.currencyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading currency catalog: %w", err)
	}

	line := *draft
	line.Status = domain.LineStatusMaterialized
	line.SellerName = result.Field(domain.FieldSellerName)
	line.InvoiceNumber = result.Field(domain.FieldInvoiceNumber)
	line.Description = result.Field(domain.FieldSellerName)
	line.ExpenseDate = matcher.NormalizeDate(result.Field(domain.FieldInvoiceDate), input.SubmissionDate)
	line.NetAmount = matcher.ParseAmount(result.Field(domain.FieldNetAmount))
	line.TaxAmount = matcher.ParseAmount(result.Field(domain.FieldTaxAmount))
	line.GrossAmount = matcher.ParseAmount(result.Field(domain.FieldGrossAmount))
	line.Confidence = result.Confidence
	line.QualityGrade = result.QualityGrade

	if cat := matcher.MatchCategory(result.Field(domain.FieldExpenseType), categories); cat != nil {
		line.CategoryID = &cat.ID
	}

	if line.TaxAmount > 0 {
		taxCodes, err := m.taxCodeRepo.ListByCountry(ctx, input.Country)
		if err != nil {
			return nil, fmt.Errorf("loading tax code catalog: %w", err)
		}
		if code := matcher.MatchTaxCode(line.TaxAmount, taxCodes); code != nil {
			line.TaxCodeID = &code.ID
			if code.Rate != nil {
				rate := *code.Rate
				line.TaxRate = &rate
			}
		}
	}

	if cur := matcher.MatchCurrency(result.Field(domain.FieldCurrency), currencies); cur != nil {
		line.CurrencyID = &cur.ID
	}

	// Keep the original payload on the line for audit and manual editing.
	if raw, err := json.Marshal(result); err == nil {
		line.RawResult = raw
	}

	return &line, nil
}
