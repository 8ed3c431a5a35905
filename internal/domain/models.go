package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FileMeta represents an uploaded document payload stored in object storage.
type FileMeta struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FileName     string     `db:"file_name" json:"file_name"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FileType     FileType   `db:"file_type" json:"file_type"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	S3Bucket     string     `db:"s3_bucket" json:"-"`
	S3Key        string     `db:"s3_key" json:"-"`
	ContentType  string     `db:"content_type" json:"content_type"`
	Status       FileStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// BatchDocument is one document inside a batch run. Its identity is generated
// at batch start and carried through the Job and the draft line, so a result
// never has to be located by array position.
type BatchDocument struct {
	ID       uuid.UUID
	FileID   uuid.UUID
	Position int
}

// Job tracks one submission attempt for one batch document. The correlation
// key is minted fresh per attempt and never reused.
type Job struct {
	CorrelationKey string
	DocumentID     uuid.UUID
	FileID         uuid.UUID
	State          JobState
	Result         *RecognitionResult
	Error          string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Transition moves the job to a new state. Transitions out of a terminal
// state are rejected so a late timer or duplicate delivery can never
// resurrect a finished job.
func (j *Job) Transition(to JobState) bool {
	if j.State.Terminal() {
		return false
	}
	j.State = to
	if to.Terminal() {
		now := time.Now().UTC()
		j.FinishedAt = &now
	}
	return true
}

// RecognitionResult is the structured output of the external recognition
// service for one document. Output is a free-form field map; the metadata
// fields mirror the service's envelope. Confidence is always stored in the
// [0,1] range.
type RecognitionResult struct {
	Success      bool              `json:"success"`
	Confidence   float64           `json:"confidence"`
	DocumentType string            `json:"documentType"`
	Errors       []string          `json:"errors,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	ErrorCount   int               `json:"errorCount"`
	WarningCount int               `json:"warningCount"`
	QualityGrade string            `json:"qualityGrade"`
	FileName     string            `json:"fileName"`
	FileID       string            `json:"fileId"`
	WebViewLink  string            `json:"webViewLink"`
	ProcessedAt  string            `json:"processedAt"`
	Output       map[string]string `json:"output"`
}

// Field returns a named field from the recognition output map, or "" when
// the field is absent.
func (r *RecognitionResult) Field(name string) string {
	if r.Output == nil {
		return ""
	}
	return r.Output[name]
}

// Recognition output field names produced by the external service.
const (
	FieldSellerName    = "sellerName"
	FieldInvoiceNumber = "invoiceNumber"
	FieldInvoiceDate   = "invoiceDate"
	FieldExpenseType   = "expenseType"
	FieldNetAmount     = "netAmount"
	FieldTaxAmount     = "taxAmount"
	FieldGrossAmount   = "grossAmount"
	FieldCurrency      = "currency"
)

// StoredResult is the envelope held by the correlation store for one
// correlation key. Status is "completed" or "error"; absence of an entry
// means not-ready.
type StoredResult struct {
	Status StoredResultStatus `json:"status"`
	Data   *RecognitionResult `json:"data,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// ExpenseCategory is a read-only catalog entry keyed by both a numeric
// external identifier and a display name.
type ExpenseCategory struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID int       `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
}

// TaxCode is a read-only catalog entry. Rate is optional.
type TaxCode struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	Rate    *float64  `db:"rate" json:"rate,omitempty"`
	Country string    `db:"country" json:"country"`
}

// Currency is a read-only catalog entry.
type Currency struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Symbol string    `db:"symbol" json:"symbol"`
}

// ExpenseLine is one row of an expense report. A line starts life as a draft
// placeholder holding a reserved sequence number while its document is in
// flight, and is replaced in place (same id, same seq) on materialization.
// Seq is only ever reassigned by explicit user reordering.
type ExpenseLine struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ReportID      uuid.UUID       `db:"report_id" json:"report_id"`
	DocumentID    *uuid.UUID      `db:"document_id" json:"document_id,omitempty"`
	Seq           int             `db:"seq" json:"seq"`
	Status        LineStatus      `db:"status" json:"status"`
	Description   string          `db:"description" json:"description"`
	SellerName    string          `db:"seller_name" json:"seller_name"`
	InvoiceNumber string          `db:"invoice_number" json:"invoice_number"`
	ExpenseDate   time.Time       `db:"expense_date" json:"expense_date"`
	CategoryID    *uuid.UUID      `db:"category_id" json:"category_id,omitempty"`
	TaxCodeID     *uuid.UUID      `db:"tax_code_id" json:"tax_code_id,omitempty"`
	TaxRate       *float64        `db:"tax_rate" json:"tax_rate,omitempty"`
	CurrencyID    *uuid.UUID      `db:"currency_id" json:"currency_id,omitempty"`
	NetAmount     float64         `db:"net_amount" json:"net_amount"`
	TaxAmount     float64         `db:"tax_amount" json:"tax_amount"`
	GrossAmount   float64         `db:"gross_amount" json:"gross_amount"`
	Confidence    float64         `db:"confidence" json:"confidence"`
	QualityGrade  string          `db:"quality_grade" json:"quality_grade"`
	RawResult     json.RawMessage `db:"raw_result" json:"raw_result,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// BatchSummary aggregates the per-document outcomes of a finished batch.
// Cancelled batches never produce one.
type BatchSummary struct {
	BatchID   uuid.UUID `json:"batch_id"`
	ReportID  uuid.UUID `json:"report_id"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	TimedOut  int       `json:"timed_out"`
}
