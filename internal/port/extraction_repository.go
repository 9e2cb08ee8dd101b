package port

import (
	"context"

	"agridocs/internal/domain"
)

// ExtractionRecordRepository persists extraction attempts. The table
// is append-only: one insert per attempt, no updates.
type ExtractionRecordRepository interface {
	Create(ctx context.Context, rec *domain.ExtractionRecord) error
	GetLatestByDocumentID(ctx context.Context, documentID string) (*domain.ExtractionRecord, error)
	ListByDocumentID(ctx context.Context, documentID string, offset, limit int) ([]domain.ExtractionRecord, int, error)
}
