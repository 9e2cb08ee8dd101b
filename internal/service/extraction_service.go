package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"agridocs/internal/ai"
	"agridocs/internal/config"
	"agridocs/internal/domain"
	"agridocs/internal/ocr"
	"agridocs/internal/parser"
	"agridocs/internal/port"
	"agridocs/internal/sniff"
)

// ExtractRequest is the DTO for one extraction invocation.
type ExtractRequest struct {
	DocumentID   string `json:"documentId"`
	FileURL      string `json:"fileUrl"`
	FileName     string `json:"fileName"`
	DocumentType string `json:"documentType"`
}

// ExtractSummary is the condensed result reported back to the caller.
type ExtractSummary struct {
	ExtractionMethod string  `json:"extractionMethod"`
	TextLength       int     `json:"textLength"`
	Confidence       float64 `json:"confidence"`
	FieldCount       int     `json:"fieldCount"`
}

// ExtractResponse is the full extraction response. Success false
// with an Error message means the pipeline ran but could not produce
// content; input validation problems are returned as errors instead.
type ExtractResponse struct {
	Success       bool                      `json:"success"`
	DocumentID    string                    `json:"documentId"`
	ExtractedData *domain.ExtractionPayload `json:"extractedData,omitempty"`
	Error         string                    `json:"error,omitempty"`
	Summary       *ExtractSummary           `json:"summary,omitempty"`
}

// ExtractionService defines the document extraction contract.
type ExtractionService interface {
	Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error)
	GetLatest(ctx context.Context, documentID string) (*domain.ExtractionRecord, error)
	History(ctx context.Context, documentID string, offset, limit int) ([]domain.ExtractionRecord, int, error)
}

type extractionService struct {
	repo      port.ExtractionRecordRepository
	fetcher   port.FileFetcher
	storage   port.ObjectStorage // optional: s3:// sources and artifact archival
	fallback  *ocr.Fallback
	processor *ai.Processor
	alerts    port.AlertSender
	budget    config.BudgetConfig

	artifactBucket string
}

// NewExtractionService creates a new ExtractionService implementation.
// storage may be nil when no S3 access is configured; alerts may be
// nil to disable failure emails.
func NewExtractionService(
	repo port.ExtractionRecordRepository,
	fetcher port.FileFetcher,
	storage port.ObjectStorage,
	fallback *ocr.Fallback,
	processor *ai.Processor,
	alerts port.AlertSender,
	budget config.BudgetConfig,
	artifactBucket string,
) ExtractionService {
	return &extractionService{
		repo:           repo,
		fetcher:        fetcher,
		storage:        storage,
		fallback:       fallback,
		processor:      processor,
		alerts:         alerts,
		budget:         budget,
		artifactBucket: artifactBucket,
	}
}

func (s *extractionService) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if req.DocumentID == "" {
		return nil, domain.ErrMissingDocumentID
	}
	if req.FileURL == "" {
		return nil, domain.ErrMissingFileURL
	}

	start := time.Now()
	debug := &domain.DebugInfo{DocumentType: req.DocumentType}

	data, err := s.download(ctx, req.FileURL)
	if err != nil {
		// Allow-list and URL-shape problems are the caller's fault.
		switch err {
		case domain.ErrInvalidFileURL, domain.ErrDisallowedURL, domain.ErrFileTooLarge:
			return nil, err
		}
		return s.fail(ctx, req, debug, start, fmt.Sprintf("download failed: %v", err)), nil
	}

	mimeType := sniff.DetectWithName(data, req.FileName)
	debug.DetectedMIME = mimeType

	supported := parser.Supported(mimeType)
	if !supported && !sniff.IsImage(mimeType) {
		return s.fail(ctx, req, debug, start, fmt.Sprintf("unsupported file type: %s", mimeType)), nil
	}

	result := s.parse(ctx, mimeType, data, debug)
	debug.ParseDurationMs = time.Since(start).Milliseconds()
	debug.ExtractionMethod = "parser"
	if !supported {
		debug.ExtractionMethod = "none"
	}

	s.runOCR(ctx, mimeType, data, result, debug)

	tables := s.applyBudgets(result.Tables, debug)

	language := ai.DetectLanguage(result.Text)
	debug.Language = language

	var processed []domain.ProcessedTable
	if s.processor != nil && len(tables) > 0 {
		debug.ModelUsed = s.processor.Model()
		aiCtx, cancel := context.WithTimeout(ctx, s.budget.ProcessingTimeout)
		processed = s.processor.ProcessTables(aiCtx, tables, language)
		cancel()
		for _, pt := range processed {
			debug.TokensUsed += pt.TokensUsed
		}
	}

	payload := &domain.ExtractionPayload{
		Text:            result.Text,
		Chunks:          result.Chunks,
		Tables:          tables,
		ProcessedTables: processed,
	}

	confidence := overallConfidence(result.Confidence, processed)
	debug.TextLength = len(result.Text)
	debug.TableCount = len(tables)
	debug.TotalDurationMs = time.Since(start).Milliseconds()

	record := s.persist(ctx, req.DocumentID, domain.ExtractionStatusCompleted, payload, confidence, "", debug)
	s.archive(ctx, req.DocumentID, record, payload, debug)

	return &ExtractResponse{
		Success:       true,
		DocumentID:    req.DocumentID,
		ExtractedData: payload,
		Summary: &ExtractSummary{
			ExtractionMethod: debug.ExtractionMethod,
			TextLength:       len(result.Text),
			Confidence:       confidence,
			FieldCount:       countMappedFields(processed),
		},
	}, nil
}

func (s *extractionService) GetLatest(ctx context.Context, documentID string) (*domain.ExtractionRecord, error) {
	return s.repo.GetLatestByDocumentID(ctx, documentID)
}

func (s *extractionService) History(ctx context.Context, documentID string, offset, limit int) ([]domain.ExtractionRecord, int, error) {
	return s.repo.ListByDocumentID(ctx, documentID, offset, limit)
}

// download routes by scheme: s3:// goes through object storage,
// everything else through the allow-listed HTTP fetcher.
func (s *extractionService) download(ctx context.Context, fileURL string) ([]byte, error) {
	if strings.HasPrefix(fileURL, "s3://") {
		if s.storage == nil {
			return nil, fmt.Errorf("s3 source requested but no object storage configured")
		}
		rest := strings.TrimPrefix(fileURL, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, domain.ErrInvalidFileURL
		}
		return s.storage.Download(ctx, bucket, key)
	}
	return s.fetcher.Fetch(ctx, fileURL)
}

// parse runs the format parser. Parser failure is recovered: the
// pipeline continues with an empty result so OCR may still salvage
// the document.
func (s *extractionService) parse(ctx context.Context, mimeType string, data []byte, debug *domain.DebugInfo) *port.ParseResult {
	p, err := parser.ForMIME(mimeType)
	if err != nil {
		return &port.ParseResult{}
	}

	result, err := p.Parse(ctx, data)
	if err != nil {
		log.Printf("extractionService.parse: parser failed for %s: %v", mimeType, err)
		debug.Warn(fmt.Sprintf("parser failed for %s: %v", mimeType, err))
		return &port.ParseResult{}
	}
	return result
}

func (s *extractionService) runOCR(ctx context.Context, mimeType string, data []byte, result *port.ParseResult, debug *domain.DebugInfo) {
	if s.fallback == nil {
		return
	}

	outcome, err := s.fallback.Run(ctx, mimeType, data, result.Text)
	if outcome != nil {
		debug.OCRAttempted = outcome.Attempted
		debug.OCRReplaced = outcome.Replaced
		debug.OCRConfidence = outcome.Confidence
	}
	if err != nil {
		log.Printf("extractionService.runOCR: %v", err)
		debug.Warn(fmt.Sprintf("ocr failed: %v", err))
		return
	}
	if outcome.Replaced {
		result.Text = outcome.Text
		result.Chunks = []domain.TextChunk{{Content: outcome.Text, Type: domain.ChunkTypeText}}
		result.Confidence = outcome.Confidence
		debug.ExtractionMethod = "ocr"
	}
}

// applyBudgets truncates tables deterministically: per-table row cap,
// then table count cap, then a cumulative cell cap. Earlier tables
// and rows always win; every drop is counted in the debug trail.
func (s *extractionService) applyBudgets(tables []domain.ExtractedTable, debug *domain.DebugInfo) []domain.ExtractedTable {
	if len(tables) == 0 {
		return nil
	}
	var trunc domain.TruncationInfo

	kept := make([]domain.ExtractedTable, 0, len(tables))
	for _, t := range tables {
		if s.budget.MaxRowsPerTable > 0 && len(t.Rows) > s.budget.MaxRowsPerTable {
			trunc.RowsDropped += len(t.Rows) - s.budget.MaxRowsPerTable
			t.Rows = t.Rows[:s.budget.MaxRowsPerTable]
		}
		kept = append(kept, t)
	}

	if s.budget.MaxTables > 0 && len(kept) > s.budget.MaxTables {
		trunc.TablesDropped = len(kept) - s.budget.MaxTables
		kept = kept[:s.budget.MaxTables]
	}

	if s.budget.MaxCells > 0 {
		cells := 0
		for i := range kept {
			remaining := s.budget.MaxCells - cells
			count := kept[i].CellCount()
			if count <= remaining {
				cells += count
				continue
			}

			// Trim this table to the remaining cell budget and drop
			// every table after it.
			cols := len(kept[i].Headers)
			if cols == 0 {
				cols = 1
			}
			keepRows := remaining / cols
			trunc.RowsDropped += len(kept[i].Rows) - keepRows
			trunc.CellsDropped += count - keepRows*cols
			kept[i].Rows = kept[i].Rows[:keepRows]

			for _, dropped := range kept[i+1:] {
				trunc.TablesDropped++
				trunc.CellsDropped += dropped.CellCount()
			}
			kept = kept[:i+1]
			break
		}
	}

	if trunc != (domain.TruncationInfo{}) {
		debug.Truncation = trunc
		debug.Warn(fmt.Sprintf("budget truncation: %d tables, %d rows, %d cells dropped",
			trunc.TablesDropped, trunc.RowsDropped, trunc.CellsDropped))
	}
	return kept
}

// fail persists a failed record, fires the alert, and reports the
// failure in the response body.
func (s *extractionService) fail(ctx context.Context, req *ExtractRequest, debug *domain.DebugInfo, start time.Time, reason string) *ExtractResponse {
	debug.TotalDurationMs = time.Since(start).Milliseconds()
	s.persist(ctx, req.DocumentID, domain.ExtractionStatusFailed, nil, 0, reason, debug)

	if s.alerts != nil {
		if err := s.alerts.SendExtractionFailureAlert(ctx, req.DocumentID, req.FileName, reason); err != nil {
			log.Printf("extractionService.fail: alert send failed: %v", err)
		}
	}

	return &ExtractResponse{
		Success:    false,
		DocumentID: req.DocumentID,
		Error:      reason,
	}
}

// persist inserts the append-only record. Persistence failures are
// logged and never propagated; the extraction result still reaches
// the caller.
func (s *extractionService) persist(
	ctx context.Context,
	documentID string,
	status domain.ExtractionStatus,
	payload *domain.ExtractionPayload,
	confidence float64,
	errorMessage string,
	debug *domain.DebugInfo,
) *domain.ExtractionRecord {
	record := &domain.ExtractionRecord{
		ID:              uuid.New(),
		DocumentID:      documentID,
		Status:          status,
		ConfidenceScore: confidence,
		ErrorMessage:    errorMessage,
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			record.ExtractedData = raw
		}
	}
	if raw, err := json.Marshal(debug); err == nil {
		record.DebugInfo = raw
	}

	if err := s.repo.Create(ctx, record); err != nil {
		log.Printf("extractionService.persist: create record failed for document %s: %v", documentID, err)
	}
	return record
}

// archive uploads the record payload as a debug artifact. Best
// effort: failures only log.
func (s *extractionService) archive(ctx context.Context, documentID string, record *domain.ExtractionRecord, payload *domain.ExtractionPayload, debug *domain.DebugInfo) {
	if s.storage == nil || s.artifactBucket == "" {
		return
	}

	artifact := struct {
		Payload *domain.ExtractionPayload `json:"payload"`
		Debug   *domain.DebugInfo         `json:"debug"`
	}{Payload: payload, Debug: debug}

	raw, err := json.Marshal(artifact)
	if err != nil {
		return
	}

	key := fmt.Sprintf("artifacts/%s/%s.json", documentID, record.ID)
	err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.artifactBucket,
		Key:         key,
		Body:        bytes.NewReader(raw),
		ContentType: "application/json",
	})
	if err != nil {
		log.Printf("extractionService.archive: upload failed for %s: %v", key, err)
		return
	}
	debug.ArtifactKey = key
}

func overallConfidence(parseConfidence float64, processed []domain.ProcessedTable) float64 {
	if len(processed) == 0 {
		return parseConfidence
	}
	var sum float64
	for _, p := range processed {
		sum += p.Confidence
	}
	return sum / float64(len(processed))
}

func countMappedFields(processed []domain.ProcessedTable) int {
	fields := make(map[string]struct{})
	for _, p := range processed {
		for _, m := range p.SubsidyFields {
			fields[m.SubsidyField] = struct{}{}
		}
	}
	return len(fields)
}
