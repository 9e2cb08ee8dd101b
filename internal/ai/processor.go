package ai

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"agridocs/internal/config"
	"agridocs/internal/domain"
	"agridocs/internal/port"
)

const completionTemperature = 0.1

// Processor runs the three-phase table post-processing: header
// normalization, value casting, subsidy field mapping. Every phase
// has a deterministic fallback, so processing never fails a table
// outright.
type Processor struct {
	client port.CompletionClient
	cfg    config.AIConfig
	retry  *retrier
	// delay pauses between row batches so bursts stay under provider
	// rate limits. Injected for tests.
	delay func(ctx context.Context) error
}

func NewProcessor(client port.CompletionClient, cfg config.AIConfig) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.TableConcurrency <= 0 {
		cfg.TableConcurrency = 2
	}
	p := &Processor{
		client: client,
		cfg:    cfg,
		retry:  newRetrier(cfg),
	}
	p.delay = p.randomPause
	return p
}

func (p *Processor) randomPause(ctx context.Context) error {
	min, max := p.cfg.BatchDelayMin, p.cfg.BatchDelayMax
	if max <= min {
		return sleepCtx(ctx, min)
	}
	d := min + time.Duration(rand.Int63n(int64(max-min)+1))
	return sleepCtx(ctx, d)
}

// Model reports the completion model name, for the debug trail.
func (p *Processor) Model() string {
	return p.client.Model()
}

// ProcessTables processes tables concurrently with a bounded worker
// pool, preserving input order in the output.
func (p *Processor) ProcessTables(ctx context.Context, tables []domain.ExtractedTable, language string) []domain.ProcessedTable {
	if len(tables) == 0 {
		return nil
	}

	results := make([]domain.ProcessedTable, len(tables))
	sem := make(chan struct{}, p.cfg.TableConcurrency)
	var wg sync.WaitGroup

	for i := range tables {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.ProcessTable(ctx, tables[i], language)
		}(i)
	}
	wg.Wait()
	return results
}

// ProcessTable runs all three phases on one table.
func (p *Processor) ProcessTable(ctx context.Context, table domain.ExtractedTable, language string) domain.ProcessedTable {
	out := domain.ProcessedTable{
		Source:   table,
		Language: language,
	}

	start := time.Now()
	out.NormalizedHeaders = p.normalizeHeaders(ctx, table.Headers, language, &out.TokensUsed)
	out.Timings.HeaderNormalizationMs = time.Since(start).Milliseconds()

	start = time.Now()
	out.ProcessedRows = p.castRows(ctx, out.NormalizedHeaders, table.Rows, language, &out.TokensUsed)
	out.Timings.ValueCastingMs = time.Since(start).Milliseconds()

	start = time.Now()
	out.SubsidyFields = p.mapFields(ctx, table.Headers, out.NormalizedHeaders, table.Rows, language, &out.TokensUsed)
	out.Timings.FieldMappingMs = time.Since(start).Milliseconds()

	out.Confidence = aggregateConfidence(table.Confidence, out.ProcessedRows, out.SubsidyFields)
	return out
}

// normalizeHeaders cleans header names. Any failure keeps the
// originals unchanged.
func (p *Processor) normalizeHeaders(ctx context.Context, headers []string, language string, used *int) []string {
	if len(headers) == 0 {
		return headers
	}

	content, err := p.complete(ctx, buildHeaderPrompt(headers, language), used)
	if err != nil {
		log.Printf("ai.Processor.normalizeHeaders: completion failed, keeping originals: %v", err)
		return headers
	}
	if err := validateAgainst(compiledHeaderList, []byte(content)); err != nil {
		log.Printf("ai.Processor.normalizeHeaders: invalid model output, keeping originals: %v", err)
		return headers
	}

	var parsed struct {
		Headers []string `json:"headers"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || len(parsed.Headers) != len(headers) {
		log.Printf("ai.Processor.normalizeHeaders: header count mismatch, keeping originals")
		return headers
	}
	return parsed.Headers
}

type castBatchResponse struct {
	Rows []struct {
		Values []struct {
			OriginalValue  string      `json:"original_value"`
			ProcessedValue interface{} `json:"processed_value"`
			ValueType      string      `json:"value_type"`
			Confidence     float64     `json:"confidence"`
			ConversionNote string      `json:"conversion_note"`
		} `json:"values"`
	} `json:"rows"`
}

// castRows types every cell, in batches. A failed or malformed batch
// degrades to text passthrough with confidence 0.5; either way every
// row keeps exactly one processed value per original cell.
func (p *Processor) castRows(ctx context.Context, headers []string, rows [][]string, language string, used *int) []domain.ProcessedRow {
	out := make([]domain.ProcessedRow, 0, len(rows))

	for start := 0; start < len(rows); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if start > 0 {
			if err := p.delay(ctx); err != nil {
				// Context gone; fall back for the remaining rows.
				for _, row := range rows[start:] {
					out = append(out, passthroughRow(row))
				}
				return out
			}
		}
		out = append(out, p.castBatch(ctx, headers, batch, language, used)...)
	}
	return out
}

func (p *Processor) castBatch(ctx context.Context, headers []string, batch [][]string, language string, used *int) []domain.ProcessedRow {
	fallback := func() []domain.ProcessedRow {
		rows := make([]domain.ProcessedRow, 0, len(batch))
		for _, row := range batch {
			rows = append(rows, passthroughRow(row))
		}
		return rows
	}

	content, err := p.complete(ctx, buildCastPrompt(headers, batch, language), used)
	if err != nil {
		log.Printf("ai.Processor.castBatch: completion failed, text passthrough: %v", err)
		return fallback()
	}
	if err := validateAgainst(compiledCastBatch, []byte(content)); err != nil {
		log.Printf("ai.Processor.castBatch: invalid model output, text passthrough: %v", err)
		return fallback()
	}

	var parsed castBatchResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || len(parsed.Rows) != len(batch) {
		log.Printf("ai.Processor.castBatch: row count mismatch, text passthrough")
		return fallback()
	}

	out := make([]domain.ProcessedRow, 0, len(batch))
	for i, row := range batch {
		modelRow := parsed.Rows[i]
		if len(row) == 0 || len(modelRow.Values) != len(row) {
			out = append(out, passthroughRow(row))
			continue
		}

		processed := domain.ProcessedRow{OriginalValues: row}
		var confSum float64
		for j, cell := range row {
			v := modelRow.Values[j]
			valueType := domain.ValueType(v.ValueType)
			if !domain.ValidValueTypes[valueType] {
				valueType = domain.ValueTypeText
			}
			processed.ProcessedValues = append(processed.ProcessedValues, domain.ProcessedValue{
				OriginalValue:  cell,
				ProcessedValue: v.ProcessedValue,
				ValueType:      valueType,
				Confidence:     v.Confidence,
				ConversionNote: v.ConversionNote,
			})
			confSum += v.Confidence
		}
		processed.RowConfidence = confSum / float64(len(row))
		out = append(out, processed)
	}
	return out
}

// passthroughRow keeps cells as text with neutral confidence.
func passthroughRow(row []string) domain.ProcessedRow {
	processed := domain.ProcessedRow{
		OriginalValues: row,
		RowConfidence:  0.5,
	}
	for _, cell := range row {
		processed.ProcessedValues = append(processed.ProcessedValues, domain.ProcessedValue{
			OriginalValue:  cell,
			ProcessedValue: cell,
			ValueType:      domain.ValueTypeText,
			Confidence:     0.5,
		})
	}
	return processed
}

type fieldMappingResponse struct {
	Mappings []struct {
		OriginalHeader string  `json:"original_header"`
		SubsidyField   string  `json:"subsidy_field"`
		Confidence     float64 `json:"confidence"`
		ValueType      string  `json:"value_type"`
	} `json:"mappings"`
}

// mapFields maps normalized headers onto the canonical subsidy
// vocabulary. The model sees the normalized labels; each accepted
// mapping is traced back to the pre-normalization header by position.
// Headers the model maps outside the vocabulary are dropped; failure
// means no mappings.
func (p *Processor) mapFields(ctx context.Context, originals, normalized []string, rows [][]string, language string, used *int) []domain.SubsidyMapping {
	if len(normalized) == 0 {
		return nil
	}

	samples := rows
	if len(samples) > 3 {
		samples = samples[:3]
	}

	content, err := p.complete(ctx, buildMappingPrompt(normalized, samples, language), used)
	if err != nil {
		log.Printf("ai.Processor.mapFields: completion failed, no mappings: %v", err)
		return nil
	}
	if err := validateAgainst(compiledFieldMapping, []byte(content)); err != nil {
		log.Printf("ai.Processor.mapFields: invalid model output, no mappings: %v", err)
		return nil
	}

	var parsed fieldMappingResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}

	index := make(map[string]int, len(normalized))
	for i, h := range normalized {
		index[h] = i
	}

	var out []domain.SubsidyMapping
	for _, m := range parsed.Mappings {
		i, known := index[m.OriginalHeader]
		if !domain.IsSubsidyField(m.SubsidyField) || !known {
			continue
		}
		original := m.OriginalHeader
		if i < len(originals) {
			original = originals[i]
		}
		valueType := domain.ValueType(m.ValueType)
		if !domain.ValidValueTypes[valueType] {
			valueType = domain.ValueTypeText
		}
		out = append(out, domain.SubsidyMapping{
			OriginalHeader:    original,
			NormalizedHeader:  normalized[i],
			SubsidyField:      m.SubsidyField,
			MappingConfidence: m.Confidence,
			ValueType:         valueType,
		})
	}
	return out
}

// complete runs one completion with retry, returning the raw content
// and accumulating token usage into used.
func (p *Processor) complete(ctx context.Context, userPrompt string, used *int) (string, error) {
	var content string
	err := p.retry.do(ctx, func(ctx context.Context) error {
		resp, err := p.client.Complete(ctx, port.CompletionRequest{
			System:      systemPrompt,
			User:        userPrompt,
			Temperature: completionTemperature,
		})
		if err != nil {
			return err
		}
		content = resp.Content
		*used += resp.PromptTokens + resp.CompletionTokens
		return nil
	})
	return content, err
}

// aggregateConfidence blends structural quality, casting quality and
// mapping success: 0.4 structural + 0.3 mean row confidence + 0.3
// when at least one subsidy field landed.
func aggregateConfidence(structural float64, rows []domain.ProcessedRow, mappings []domain.SubsidyMapping) float64 {
	score := 0.4 * structural

	if len(rows) > 0 {
		var sum float64
		for _, r := range rows {
			sum += r.RowConfidence
		}
		score += 0.3 * (sum / float64(len(rows)))
	}

	if len(mappings) > 0 {
		score += 0.3
	}
	return score
}
