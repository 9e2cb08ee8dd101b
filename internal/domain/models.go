package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TextChunk is one ordered piece of extracted document content.
// Chunks are immutable once produced by a parser.
type TextChunk struct {
	Content    string            `json:"content"`
	Type       ChunkType         `json:"type"`
	PageNumber int               `json:"page_number,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// TableMetadata carries format-specific context for an extracted table.
type TableMetadata struct {
	SheetName   string   `json:"sheet_name,omitempty"`
	Position    string   `json:"position,omitempty"`
	MergedCells []string `json:"merged_cells,omitempty"`
	PageRange   []int    `json:"page_range,omitempty"`
}

// ExtractedTable is a raw tabular region pulled out of a document.
// Rows may have inconsistent column counts; that is a quality issue
// reflected in Confidence, not a reason to reject the table.
type ExtractedTable struct {
	Headers      []string      `json:"headers"`
	Rows         [][]string    `json:"rows"`
	Confidence   float64       `json:"confidence"`
	PageNumber   int           `json:"page_number,omitempty"`
	TableIndex   int           `json:"table_index"`
	SourceFormat SourceFormat  `json:"source_format"`
	Metadata     TableMetadata `json:"metadata"`
}

// CellCount returns the total number of data cells in the table.
func (t *ExtractedTable) CellCount() int {
	n := 0
	for _, row := range t.Rows {
		n += len(row)
	}
	return n
}

// ProcessedValue is a single cell after AI type casting.
type ProcessedValue struct {
	OriginalValue  string      `json:"original_value"`
	ProcessedValue interface{} `json:"processed_value"`
	ValueType      ValueType   `json:"value_type"`
	Confidence     float64     `json:"confidence"`
	ConversionNote string      `json:"conversion_note,omitempty"`
}

// ProcessedRow pairs original cell values with their typed forms.
// len(ProcessedValues) always equals len(OriginalValues).
type ProcessedRow struct {
	OriginalValues  []string         `json:"original_values"`
	ProcessedValues []ProcessedValue `json:"processed_values"`
	RowConfidence   float64          `json:"row_confidence"`
}

// SubsidyMapping associates one original header with a canonical
// subsidy schema field. Several headers may map onto the same field.
type SubsidyMapping struct {
	OriginalHeader    string    `json:"original_header"`
	NormalizedHeader  string    `json:"normalized_header"`
	SubsidyField      string    `json:"subsidy_field"`
	MappingConfidence float64   `json:"mapping_confidence"`
	ValueType         ValueType `json:"value_type"`
}

// PhaseTimings records wall-clock duration per AI phase.
type PhaseTimings struct {
	HeaderNormalizationMs int64 `json:"header_normalization_ms"`
	ValueCastingMs        int64 `json:"value_casting_ms"`
	FieldMappingMs        int64 `json:"field_mapping_ms"`
}

// ProcessedTable wraps one ExtractedTable with the AI post-processing
// output. Created only by the post-processor and never mutated; a
// reprocessing run produces a new value.
type ProcessedTable struct {
	Source            ExtractedTable   `json:"source"`
	NormalizedHeaders []string         `json:"normalized_headers"`
	ProcessedRows     []ProcessedRow   `json:"processed_rows"`
	SubsidyFields     []SubsidyMapping `json:"subsidy_fields"`
	Confidence        float64          `json:"confidence"`
	Language          string           `json:"language"`
	TokensUsed        int              `json:"tokens_used,omitempty"`
	Timings           PhaseTimings     `json:"timings"`
}

// TruncationInfo records deterministic budget truncation applied
// before AI processing. Dropped work is recorded, never silent.
type TruncationInfo struct {
	TablesDropped int `json:"tables_dropped,omitempty"`
	RowsDropped   int `json:"rows_dropped,omitempty"`
	CellsDropped  int `json:"cells_dropped,omitempty"`
}

// DebugInfo is the per-request debug trail. It is an explicit
// accumulator owned by one extraction invocation.
type DebugInfo struct {
	ExtractionMethod string         `json:"extraction_method"`
	DetectedMIME     string         `json:"detected_mime"`
	DocumentType     string         `json:"document_type,omitempty"`
	ModelUsed        string         `json:"model_used,omitempty"`
	TokensUsed       int            `json:"tokens_used,omitempty"`
	Language         string         `json:"language,omitempty"`
	TextLength       int            `json:"text_length"`
	TableCount       int            `json:"table_count"`
	OCRAttempted     bool           `json:"ocr_attempted"`
	OCRReplaced      bool           `json:"ocr_replaced"`
	OCRConfidence    float64        `json:"ocr_confidence,omitempty"`
	Truncation       TruncationInfo `json:"truncation,omitempty"`
	ParseDurationMs  int64          `json:"parse_duration_ms"`
	TotalDurationMs  int64          `json:"total_duration_ms"`
	ArtifactKey      string         `json:"artifact_key,omitempty"`
	Warnings         []string       `json:"warnings,omitempty"`
}

// Warn appends a warning to the trail.
func (d *DebugInfo) Warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

// ExtractionPayload is the structured result persisted and returned
// for a completed extraction.
type ExtractionPayload struct {
	Text            string           `json:"text"`
	Chunks          []TextChunk      `json:"chunks"`
	Tables          []ExtractedTable `json:"tables"`
	ProcessedTables []ProcessedTable `json:"processed_tables"`
}

// ExtractionRecord is one persisted extraction attempt. Records are
// append-only; a document accumulates one row per attempt and the
// latest row is authoritative for display.
type ExtractionRecord struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	DocumentID      string           `db:"document_id" json:"document_id"`
	Status          ExtractionStatus `db:"status" json:"status"`
	ExtractedData   json.RawMessage  `db:"extracted_data" json:"extracted_data"`
	ConfidenceScore float64          `db:"confidence_score" json:"confidence_score"`
	ErrorMessage    string           `db:"error_message" json:"error_message"`
	DebugInfo       json.RawMessage  `db:"debug_info" json:"debug_info"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}
