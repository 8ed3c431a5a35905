package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"expenso/internal/domain"
	"expenso/internal/port"
)

// LineService exposes read and edit operations on expense lines outside the
// ingestion pipeline: listing, explicit reordering, and deletion.
type LineService interface {
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.ExpenseLine, error)
	// Reorder reassigns contiguous sequence numbers following the given
	// order. This is the only operation that ever changes a line's seq.
	Reorder(ctx context.Context, reportID uuid.UUID, orderedIDs []uuid.UUID) error
	Delete(ctx context.Context, reportID, lineID uuid.UUID) error
}

type lineService struct {
	lineRepo port.ExpenseLineRepository
}

// NewLineService creates a new LineService implementation.
func NewLineService(lineRepo port.ExpenseLineRepository) LineService {
	return &lineService{lineRepo: lineRepo}
}

func (s *lineService) ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.ExpenseLine, error) {
	return s.lineRepo.ListByReport(ctx, reportID)
}

func (s *lineService) Reorder(ctx context.Context, reportID uuid.UUID, orderedIDs []uuid.UUID) error {
	log.Printf("lineService.Reorder: renumbering %d lines for report %s", len(orderedIDs), reportID)
	return s.lineRepo.Renumber(ctx, reportID, orderedIDs)
}

func (s *lineService) Delete(ctx context.Context, reportID, lineID uuid.UUID) error {
	log.Printf("lineService.Delete: deleting line %s from report %s", lineID, reportID)
	return s.lineRepo.Delete(ctx, reportID, lineID)
}
