package noop

import (
	"context"
	"log"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs summaries to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendBatchSummary(_ context.Context, toEmail string, summary *domain.BatchSummary) error {
	log.Printf("[NOOP EMAIL] Batch summary for %s: run=%s scope=%s total=%d fetched=%d analyzed=%d failed=%d",
		toEmail, summary.RunID, summary.Scope, summary.Total, summary.Fetched, summary.Analyzed, len(summary.Failed))
	return nil
}
