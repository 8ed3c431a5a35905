package noop

import (
	"context"
	"log"

	"expenso/internal/domain"
	"expenso/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs batch summaries to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendBatchSummary(_ context.Context, toEmail string, summary *domain.BatchSummary) error {
	log.Printf("[NOOP EMAIL] Batch summary for %s: batch %s report %s: %d total, %d completed, %d failed, %d timed out",
		toEmail, summary.BatchID, summary.ReportID,
		summary.Total, summary.Completed, summary.Failed, summary.TimedOut)
	return nil
}
