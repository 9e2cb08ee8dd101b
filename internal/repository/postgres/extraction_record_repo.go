package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"agridocs/internal/domain"
	"agridocs/internal/port"
)

type extractionRecordRepo struct {
	db *sqlx.DB
}

// NewExtractionRecordRepo creates a new PostgreSQL-backed ExtractionRecordRepository.
// The table is append-only; records are never updated or deleted.
func NewExtractionRecordRepo(db *sqlx.DB) port.ExtractionRecordRepository {
	return &extractionRecordRepo{db: db}
}

func (r *extractionRecordRepo) Create(ctx context.Context, record *domain.ExtractionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_records
		 (id, document_id, status, extracted_data, confidence_score, error_message, debug_info)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.DocumentID, record.Status, record.ExtractedData,
		record.ConfidenceScore, record.ErrorMessage, record.DebugInfo)
	if err != nil {
		return fmt.Errorf("extractionRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionRecordRepo) GetLatestByDocumentID(ctx context.Context, documentID string) (*domain.ExtractionRecord, error) {
	var record domain.ExtractionRecord
	err := r.db.GetContext(ctx, &record,
		`SELECT * FROM extraction_records
		 WHERE document_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("extractionRecordRepo.GetLatestByDocumentID: %w", err)
	}
	return &record, nil
}

func (r *extractionRecordRepo) ListByDocumentID(ctx context.Context, documentID string, offset, limit int) ([]domain.ExtractionRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM extraction_records WHERE document_id = $1`,
		documentID)
	if err != nil {
		return nil, 0, fmt.Errorf("extractionRecordRepo.ListByDocumentID count: %w", err)
	}

	var records []domain.ExtractionRecord
	err = r.db.SelectContext(ctx, &records,
		`SELECT * FROM extraction_records
		 WHERE document_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		documentID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("extractionRecordRepo.ListByDocumentID: %w", err)
	}
	return records, total, nil
}
