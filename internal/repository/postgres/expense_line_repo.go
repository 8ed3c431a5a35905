package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"expenso/internal/domain"
	"expenso/internal/port"
)

type expenseLineRepo struct {
	db *sqlx.DB
}

// NewExpenseLineRepo creates a new PostgreSQL-backed ExpenseLineRepository.
func NewExpenseLineRepo(db *sqlx.DB) port.ExpenseLineRepository {
	return &expenseLineRepo{db: db}
}

func (r *expenseLineRepo) CreateBatch(ctx context.Context, lines []domain.ExpenseLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("expenseLineRepo.CreateBatch begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO expense_lines
		(id, report_id, document_id, seq, status, description, seller_name,
		 invoice_number, expense_date, category_id, tax_code_id, tax_rate,
		 currency_id, net_amount, tax_amount, gross_amount, confidence,
		 quality_grade, raw_result, created_at, updated_at)
		VALUES (:id, :report_id, :document_id, :seq, :status, :description,
		 :seller_name, :invoice_number, :expense_date, :category_id,
		 :tax_code_id, :tax_rate, :currency_id, :net_amount, :tax_amount,
		 :gross_amount, :confidence, :quality_grade, :raw_result,
		 :created_at, :updated_at)`

	now := time.Now().UTC()
	for i := range lines {
		lines[i].CreatedAt = now
		lines[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, lines[i]); err != nil {
			return fmt.Errorf("expenseLineRepo.CreateBatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("expenseLineRepo.CreateBatch commit: %w", err)
	}
	return nil
}

func (r *expenseLineRepo) GetDraft(ctx context.Context, reportID, documentID uuid.UUID) (*domain.ExpenseLine, error) {
	var line domain.ExpenseLine
	err := r.db.GetContext(ctx, &line,
		"SELECT * FROM expense_lines WHERE report_id = $1 AND document_id = $2 AND status = $3",
		reportID, documentID, domain.LineStatusDraft)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, fmt.Errorf("expenseLineRepo.GetDraft: %w", err)
	}
	return &line, nil
}

func (r *expenseLineRepo) ReplaceDraft(ctx context.Context, line *domain.ExpenseLine) error {
	line.UpdatedAt = time.Now().UTC()

	// The status predicate keeps a concurrent user edit from being clobbered
	// by a late result; id and seq are never touched.
	query := `UPDATE expense_lines SET
		status = :status, description = :description, seller_name = :seller_name,
		invoice_number = :invoice_number, expense_date = :expense_date,
		category_id = :category_id, tax_code_id = :tax_code_id,
		tax_rate = :tax_rate, currency_id = :currency_id,
		net_amount = :net_amount, tax_amount = :tax_amount,
		gross_amount = :gross_amount, confidence = :confidence,
		quality_grade = :quality_grade, raw_result = :raw_result,
		updated_at = :updated_at
		WHERE id = :id AND status = 'draft'`

	result, err := r.db.NamedExecContext(ctx, query, line)
	if err != nil {
		return fmt.Errorf("expenseLineRepo.ReplaceDraft: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *expenseLineRepo) ListByReport(ctx context.Context, reportID uuid.UUID) ([]domain.ExpenseLine, error) {
	var lines []domain.ExpenseLine
	err := r.db.SelectContext(ctx, &lines,
		"SELECT * FROM expense_lines WHERE report_id = $1 ORDER BY seq", reportID)
	if err != nil {
		return nil, fmt.Errorf("expenseLineRepo.ListByReport: %w", err)
	}
	return lines, nil
}

func (r *expenseLineRepo) MaxSeq(ctx context.Context, reportID uuid.UUID) (int, error) {
	var maxSeq int
	err := r.db.GetContext(ctx, &maxSeq,
		"SELECT COALESCE(MAX(seq), 0) FROM expense_lines WHERE report_id = $1", reportID)
	if err != nil {
		return 0, fmt.Errorf("expenseLineRepo.MaxSeq: %w", err)
	}
	return maxSeq, nil
}

func (r *expenseLineRepo) Renumber(ctx context.Context, reportID uuid.UUID, orderedIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("expenseLineRepo.Renumber begin: %w", err)
	}
	defer tx.Rollback()

	// Two-phase update so the unique (report_id, seq) constraint never
	// trips mid-shuffle.
	for i, id := range orderedIDs {
		_, err := tx.ExecContext(ctx,
			"UPDATE expense_lines SET seq = $1 WHERE id = $2 AND report_id = $3",
			-(i + 1), id, reportID)
		if err != nil {
			return fmt.Errorf("expenseLineRepo.Renumber stage: %w", err)
		}
	}
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		result, err := tx.ExecContext(ctx,
			"UPDATE expense_lines SET seq = $1, updated_at = $2 WHERE id = $3 AND report_id = $4",
			i+1, now, id, reportID)
		if err != nil {
			return fmt.Errorf("expenseLineRepo.Renumber: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrLineNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("expenseLineRepo.Renumber commit: %w", err)
	}
	return nil
}

func (r *expenseLineRepo) Delete(ctx context.Context, reportID, lineID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM expense_lines WHERE id = $1 AND report_id = $2", lineID, reportID)
	if err != nil {
		return fmt.Errorf("expenseLineRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}
