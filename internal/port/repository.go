package port

import (
	"context"

	"github.com/google/uuid"

	"expenso/internal/domain"
)

// CategoryRepository provides read-only access to the expense category
// catalog. The pipeline never mutates catalog entries.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.ExpenseCategory, error)
}

// TaxCodeRepository provides read-only access to the tax code catalog.
type TaxCodeRepository interface {
	ListByCountry(ctx context.Context, country string) ([]domain.TaxCode, error)
}

// CurrencyRepository provides read-only access to the currency catalog.
type CurrencyRepository interface {
	List(ctx context.Context) ([]domain.Currency, error)
}

// FileMetaRepository defines the contract for file metadata persistence.
type FileMetaRepository interface {
	Create(ctx context.Context, meta *domain.FileMeta) error
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.FileMeta, error)
	List(ctx context.Context, offset, limit int) ([]domain.FileMeta, int, error)
	UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus) error
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// ExpenseLineRepository defines the contract for expense line persistence.
// It is the downstream CRUD collaborator of the ingestion pipeline: drafts
// are created at batch start and replaced in place on materialization.
type ExpenseLineRepository interface {
	CreateBatch(ctx context.Context, lines []domain.ExpenseLine) error
	// GetDraft locates the draft placeholder for a batch document. Returns
	// domain.ErrLineNotFound when the draft was removed mid-flight.
	GetDraft(ctx context.Context, reportID, documentID uuid.UUID) (*domain.ExpenseLine, error)
	// ReplaceDraft overwrites a draft row in place, keeping id and seq.
	ReplaceDraft(ctx context.Context, line *domain.ExpenseLine) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.ExpenseLine, error)
	// MaxSeq returns the highest sequence number currently used in a report,
	// or 0 for an empty report.
	MaxSeq(ctx context.Context, reportID uuid.UUID) (int, error)
	// Renumber reassigns contiguous sequence numbers following the given
	// order. Only explicit user reordering goes through here.
	Renumber(ctx context.Context, reportID uuid.UUID, orderedIDs []uuid.UUID) error
	Delete(ctx context.Context, reportID, lineID uuid.UUID) error
}
