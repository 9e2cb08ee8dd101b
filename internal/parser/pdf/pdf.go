// Package pdf extracts text and table regions from PDF documents
// using positioned glyphs.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"agridocs/internal/domain"
	"agridocs/internal/parser"
	"agridocs/internal/port"
	"agridocs/internal/tabular"
)

func init() {
	parser.RegisterFormat(func() port.FormatParser { return &Parser{} }, domain.MIMEPDF)
}

type Parser struct{}

func (p *Parser) Parse(_ context.Context, data []byte) (*port.ParseResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf.Parser.Parse: open reader: %w", err)
	}

	// The library panics on some malformed files, so page access is
	// wrapped in recover and a bad page degrades to an empty page.
	pageCount := 0
	func() {
		defer func() { _ = recover() }()
		pageCount = reader.NumPage()
	}()
	if pageCount <= 0 {
		return &port.ParseResult{}, nil
	}

	result := &port.ParseResult{}
	var textParts []string
	var regions []tabular.Region
	var regionPages []int

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		items := extractPageItems(reader, pageNum)
		if len(items) == 0 {
			continue
		}

		page := tabular.DetectPage(items)
		if page.FreeText != "" {
			textParts = append(textParts, page.FreeText)
			result.Chunks = append(result.Chunks, domain.TextChunk{
				Content:    page.FreeText,
				Type:       domain.ChunkTypeText,
				PageNumber: pageNum,
			})
		}
		for _, r := range page.Regions {
			regions = append(regions, r)
			regionPages = append(regionPages, pageNum)
		}
	}

	for _, merged := range tabular.MergeAcrossPages(regions, regionPages) {
		table := merged.ToExtractedTable(merged.Pages[0], len(result.Tables))
		if len(merged.Pages) > 1 {
			table.Metadata.PageRange = merged.Pages
		}
		result.Tables = append(result.Tables, table)
		result.Chunks = append(result.Chunks, domain.TextChunk{
			Content:    renderTable(table),
			Type:       domain.ChunkTypeTable,
			PageNumber: table.PageNumber,
		})
	}

	result.Text = strings.Join(textParts, "\n\n")
	result.Confidence = textConfidence(result.Text, len(data))
	return result, nil
}

// extractPageItems reads a page's glyphs and merges adjacent ones on
// the same baseline into words. Returns nil on malformed pages.
func extractPageItems(reader *pdf.Reader, pageNum int) (items []tabular.Item) {
	defer func() { _ = recover() }()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}

	var word *tabular.Item
	flush := func() {
		if word != nil && strings.TrimSpace(word.Text) != "" {
			word.Text = strings.TrimSpace(word.Text)
			items = append(items, *word)
		}
		word = nil
	}

	for _, glyph := range page.Content().Text {
		if word != nil && sameWord(*word, glyph) {
			word.Text += glyph.S
			word.W = glyph.X + glyph.W - word.X
			continue
		}
		flush()
		word = &tabular.Item{X: glyph.X, Y: glyph.Y, W: glyph.W, Text: glyph.S}
	}
	flush()
	return items
}

// sameWord reports whether a glyph continues the current word: same
// baseline and a horizontal gap small relative to the font size.
func sameWord(w tabular.Item, g pdf.Text) bool {
	if math.Abs(g.Y-w.Y) > 2.0 {
		return false
	}
	maxGap := g.FontSize * 0.3
	if maxGap < 1.0 {
		maxGap = 1.0
	}
	gap := g.X - (w.X + w.W)
	return gap <= maxGap
}

// textConfidence estimates extraction quality from text density and
// word shape. Sparse output from a large file usually means a scanned
// document, which the OCR fallback handles.
func textConfidence(text string, fileSize int) float64 {
	if text == "" {
		return 0
	}

	score := 0.5
	if fileSize > 0 && float64(len(text))/float64(fileSize) > 0.002 {
		score += 0.25
	}

	words := strings.Fields(text)
	if len(words) > 0 {
		total := 0
		for _, w := range words {
			total += len(w)
		}
		avg := float64(total) / float64(len(words))
		if avg >= 3 && avg <= 12 {
			score += 0.25
		}
	}
	return score
}

func renderTable(t domain.ExtractedTable) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Headers, " | "))
	for _, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}
