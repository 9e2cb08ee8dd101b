package port

import (
	"context"

	"agridocs/internal/domain"
)

// ParseResult is the raw output of a format parser before any table
// post-processing or OCR fallback.
type ParseResult struct {
	Text       string
	Chunks     []domain.TextChunk
	Tables     []domain.ExtractedTable
	Confidence float64
}

// FormatParser extracts text and tables from one document format.
type FormatParser interface {
	Parse(ctx context.Context, data []byte) (*ParseResult, error)
}
