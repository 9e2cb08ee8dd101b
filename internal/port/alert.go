package port

import "context"

// AlertSender notifies operators about failed extractions.
// Sends are best-effort; failures are logged, never propagated.
type AlertSender interface {
	SendExtractionFailureAlert(ctx context.Context, documentID, fileName, reason string) error
}
