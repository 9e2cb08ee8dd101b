// Package xlsx parses spreadsheet workbooks into one table per
// non-empty sheet.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"agridocs/internal/domain"
	"agridocs/internal/parser"
	"agridocs/internal/port"
)

// sheetConfidence applies to structured spreadsheet extraction. The
// grid is explicit so only merged cells and sparse sheets introduce
// ambiguity.
const sheetConfidence = 0.95

func init() {
	parser.RegisterFormat(func() port.FormatParser { return &Parser{} }, domain.MIMEXLSX)
}

type Parser struct{}

func (p *Parser) Parse(_ context.Context, data []byte) (*port.ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx.Parser.Parse: open workbook: %w", err)
	}
	defer f.Close()

	result := &port.ParseResult{Confidence: sheetConfidence}
	var textParts []string

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("xlsx.Parser.Parse: read sheet %s: %w", sheet, err)
		}
		rows = dropEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}

		table := domain.ExtractedTable{
			Headers:      rows[0],
			Rows:         rows[1:],
			Confidence:   sheetConfidence,
			TableIndex:   len(result.Tables),
			SourceFormat: domain.SourceXLSX,
			Metadata:     domain.TableMetadata{SheetName: sheet},
		}
		if merged, err := f.GetMergeCells(sheet); err == nil {
			for _, m := range merged {
				table.Metadata.MergedCells = append(table.Metadata.MergedCells, m.GetStartAxis()+":"+m.GetEndAxis())
			}
		}
		result.Tables = append(result.Tables, table)

		sheetText := renderSheet(sheet, rows)
		textParts = append(textParts, sheetText)
		result.Chunks = append(result.Chunks, domain.TextChunk{
			Content:  sheetText,
			Type:     domain.ChunkTypeTable,
			Metadata: map[string]string{"sheet": sheet},
		})
	}

	result.Text = strings.Join(textParts, "\n\n")
	return result, nil
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}

func renderSheet(name string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", name)
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}
