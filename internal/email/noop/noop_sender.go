package noop

import (
	"context"
	"log"

	"agridocs/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op AlertSender that logs alerts to stdout.
func NewNoopSender() port.AlertSender {
	return &noopSender{}
}

func (s *noopSender) SendExtractionFailureAlert(_ context.Context, documentID, fileName, reason string) error {
	log.Printf("[NOOP EMAIL] Extraction failure alert for document %s (%s): %s", documentID, fileName, reason)
	return nil
}
