package ses

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"agridocs/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	alertTo     string
}

// NewSESSender creates a new SES-backed AlertSender.
func NewSESSender(region, fromAddress, fromName, alertTo string) (port.AlertSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		alertTo:     alertTo,
	}, nil
}

func (s *sesSender) SendExtractionFailureAlert(ctx context.Context, documentID, fileName, reason string) error {
	if s.alertTo == "" {
		return nil
	}

	subject := fmt.Sprintf("Extraction failed for document %s", documentID)
	htmlBody := buildFailureAlertHTML(documentID, fileName, reason)
	textBody := fmt.Sprintf(
		"Extraction failed.\n\nDocument ID: %s\nFile: %s\nReason: %s\nTime: %s\n\nAgridocs",
		documentID, fileName, reason, time.Now().UTC().Format(time.RFC3339))

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.alertTo},
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

func buildFailureAlertHTML(documentID, fileName, reason string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Document extraction failed</h2>
  <table style="border-collapse: collapse; width: 100%%;">
    <tr><td style="padding: 6px 12px; color: #666;">Document ID</td><td style="padding: 6px 12px;">%s</td></tr>
    <tr><td style="padding: 6px 12px; color: #666;">File</td><td style="padding: 6px 12px;">%s</td></tr>
    <tr><td style="padding: 6px 12px; color: #666;">Reason</td><td style="padding: 6px 12px;">%s</td></tr>
  </table>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Agridocs - Subsidy Document Extraction</p>
</body>
</html>`, documentID, fileName, reason)
}
