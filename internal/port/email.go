package port

import (
	"context"

	"docrisk/internal/domain"
)

// EmailSender defines the contract for sending notification emails.
type EmailSender interface {
	SendBatchSummary(ctx context.Context, toEmail string, summary *domain.BatchSummary) error
}
