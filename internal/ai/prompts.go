package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"agridocs/internal/domain"
)

const systemPrompt = `You are a data normalization assistant for agricultural subsidy documents. Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.`

// buildHeaderPrompt asks for cleaned header names in the original
// order and count.
func buildHeaderPrompt(headers []string, language string) string {
	encoded, _ := json.Marshal(headers)
	return fmt.Sprintf(`Normalize these table column headers from a subsidy document (document language: %s).

Headers: %s

Rules:
- Fix OCR artifacts, expand abbreviations, use title case.
- Keep the original language of each header.
- Return EXACTLY %d headers in the same order.

Return a JSON object: {"headers": ["...", "..."]}`, language, string(encoded), len(headers))
}

// buildCastPrompt asks for typed values for a batch of rows.
func buildCastPrompt(headers []string, rows [][]string, language string) string {
	encodedHeaders, _ := json.Marshal(headers)
	encodedRows, _ := json.Marshal(rows)
	return fmt.Sprintf(`Cast each table cell to a typed value (document language: %s).

Headers: %s
Rows: %s

Rules:
- value_type is one of: currency, percentage, date, number, boolean, text.
- Currency: numeric amount without symbol. Percentage: numeric 0-100. Date: ISO 8601 (YYYY-MM-DD). Boolean: true/false.
- Keep processed_value as the original string with value_type "text" when unsure, with lower confidence.
- Each row must return EXACTLY as many values as it has cells, in order.
- Add conversion_note only when the conversion was ambiguous.

Return a JSON object:
{"rows": [{"values": [{"original_value": "", "processed_value": null, "value_type": "text", "confidence": 0.0, "conversion_note": ""}]}]}`,
		language, string(encodedHeaders), string(encodedRows))
}

// buildMappingPrompt asks which canonical subsidy field each header
// feeds, if any.
func buildMappingPrompt(headers []string, sampleRows [][]string, language string) string {
	encodedHeaders, _ := json.Marshal(headers)
	encodedRows, _ := json.Marshal(sampleRows)
	return fmt.Sprintf(`Map these subsidy table headers onto a canonical schema (document language: %s).

Headers: %s
Sample rows: %s

Canonical fields: %s

Rules:
- Map each header to the best canonical field, or omit the header if none fits.
- Several headers may map to the same field.
- value_type is one of: currency, percentage, date, number, boolean, text.

Return a JSON object:
{"mappings": [{"original_header": "", "subsidy_field": "", "confidence": 0.0, "value_type": "text"}]}`,
		language, string(encodedHeaders), string(encodedRows), strings.Join(domain.SubsidyFields, ", "))
}
