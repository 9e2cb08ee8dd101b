// Package text parses plain text and CSV documents.
package text

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"agridocs/internal/domain"
	"agridocs/internal/parser"
	"agridocs/internal/port"
)

// previewRows is the number of data rows shown in the CSV text preview.
const previewRows = 5

func init() {
	parser.RegisterFormat(func() port.FormatParser { return &PlainParser{} }, domain.MIMEPlainText)
	parser.RegisterFormat(func() port.FormatParser { return &CSVParser{} }, domain.MIMECSV)
}

// PlainParser passes plain text through as a single chunk.
type PlainParser struct{}

func (p *PlainParser) Parse(_ context.Context, data []byte) (*port.ParseResult, error) {
	content := strings.TrimSpace(string(data))
	result := &port.ParseResult{
		Text:       content,
		Confidence: 1.0,
	}
	if content != "" {
		result.Chunks = []domain.TextChunk{{Content: content, Type: domain.ChunkTypeText}}
	}
	return result, nil
}

// CSVParser extracts a CSV file as one table. The textual view is a
// short preview so downstream text never balloons with large files;
// the table keeps every row.
type CSVParser struct{}

func (p *CSVParser) Parse(_ context.Context, data []byte) (*port.ParseResult, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("text.CSVParser.Parse: read csv: %w", err)
	}
	if len(records) == 0 {
		return &port.ParseResult{Confidence: 1.0}, nil
	}

	headers := records[0]
	rows := records[1:]

	table := domain.ExtractedTable{
		Headers:      headers,
		Rows:         rows,
		Confidence:   1.0,
		TableIndex:   0,
		SourceFormat: domain.SourceCSV,
	}

	preview := buildPreview(headers, rows)
	return &port.ParseResult{
		Text: preview,
		Chunks: []domain.TextChunk{{
			Content: preview,
			Type:    domain.ChunkTypeTable,
			Metadata: map[string]string{
				"rows": fmt.Sprintf("%d", len(rows)),
			},
		}},
		Tables:     []domain.ExtractedTable{table},
		Confidence: 1.0,
	}, nil
}

func buildPreview(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, " | "))
	for i, row := range rows {
		if i >= previewRows {
			break
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	if len(rows) > previewRows {
		fmt.Fprintf(&b, "\n(%d more rows)", len(rows)-previewRows)
	}
	return b.String()
}
