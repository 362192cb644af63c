package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"docrisk/internal/domain"
	"docrisk/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendBatchSummary(ctx context.Context, toEmail string, summary *domain.BatchSummary) error {
	subject := fmt.Sprintf("Risk assessment run %s: %d/%d documents analyzed",
		summary.RunID, summary.Analyzed, summary.Total)
	htmlBody := buildBatchSummaryHTML(summary)
	textBody := buildBatchSummaryText(summary)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildBatchSummaryText(summary *domain.BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk assessment run %s (scope %s) finished at %s.\n\n",
		summary.RunID, summary.Scope, summary.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total documents: %d\n", summary.Total)
	fmt.Fprintf(&b, "Fetched: %d\n", summary.Fetched)
	fmt.Fprintf(&b, "Analyzed: %d\n", summary.Analyzed)
	fmt.Fprintf(&b, "Failed: %d\n", len(summary.Failed))
	if len(summary.Failed) > 0 {
		b.WriteString("\nFailed document IDs:\n")
		for _, id := range summary.Failed {
			fmt.Fprintf(&b, "  - %s\n", id)
		}
	}
	return b.String()
}

func buildBatchSummaryHTML(summary *domain.BatchSummary) string {
	var failures string
	if len(summary.Failed) > 0 {
		var items strings.Builder
		for _, id := range summary.Failed {
			fmt.Fprintf(&items, "<li>%s</li>", id)
		}
		failures = fmt.Sprintf(`<h3 style="color: #B91C1C;">Failed documents</h3><ul>%s</ul>`, items.String())
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Risk assessment run %s</h2>
  <p>Scope: <strong>%s</strong> &middot; finished %s</p>
  <table style="border-collapse: collapse; width: 100%%;">
    <tr><td style="padding: 6px; border-bottom: 1px solid #eee;">Total documents</td><td style="padding: 6px; border-bottom: 1px solid #eee; text-align: right;">%d</td></tr>
    <tr><td style="padding: 6px; border-bottom: 1px solid #eee;">Fetched</td><td style="padding: 6px; border-bottom: 1px solid #eee; text-align: right;">%d</td></tr>
    <tr><td style="padding: 6px; border-bottom: 1px solid #eee;">Analyzed</td><td style="padding: 6px; border-bottom: 1px solid #eee; text-align: right;">%d</td></tr>
    <tr><td style="padding: 6px; border-bottom: 1px solid #eee;">Failed</td><td style="padding: 6px; border-bottom: 1px solid #eee; text-align: right;">%d</td></tr>
  </table>
  %s
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">DocRisk - Document Risk Assessment</p>
</body>
</html>`,
		summary.RunID, summary.Scope, summary.FinishedAt.Format("2006-01-02 15:04:05"),
		summary.Total, summary.Fetched, summary.Analyzed, len(summary.Failed), failures)
}
