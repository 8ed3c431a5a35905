package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"expenso/internal/domain"
	"expenso/internal/port"
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
	subject := fmt.Sprintf("EXPENSO: document batch finished (%d of %d completed)",
		summary.Completed, summary.Total)
	htmlBody := buildSummaryHTML(summary)
	textBody := fmt.Sprintf(
		"Your document batch for report %s has finished.\n\nTotal documents: %d\nCompleted: %d\nFailed: %d\nTimed out: %d\n\nEXPENSO",
		summary.ReportID, summary.Total, summary.Completed, summary.Failed, summary.TimedOut)

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

func buildSummaryHTML(summary *domain.BatchSummary) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Document batch finished</h2>
  <p>Your document batch for report %s has finished processing.</p>
  <table style="border-collapse: collapse; margin: 20px 0;">
    <tr><td style="padding: 4px 12px;">Total documents</td><td style="padding: 4px 12px;"><strong>%d</strong></td></tr>
    <tr><td style="padding: 4px 12px;">Completed</td><td style="padding: 4px 12px;"><strong>%d</strong></td></tr>
    <tr><td style="padding: 4px 12px;">Failed</td><td style="padding: 4px 12px;"><strong>%d</strong></td></tr>
    <tr><td style="padding: 4px 12px;">Timed out</td><td style="padding: 4px 12px;"><strong>%d</strong></td></tr>
  </table>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">EXPENSO - Expense Reporting</p>
</body>
</html>`, summary.ReportID, summary.Total, summary.Completed, summary.Failed, summary.TimedOut)
}
