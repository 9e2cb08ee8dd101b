// Package docx parses Word documents by decoding word/document.xml
// directly. Paragraphs and tables are emitted in document order.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"agridocs/internal/domain"
	"agridocs/internal/parser"
	"agridocs/internal/port"
)

// tableConfidence applies to tables read from explicit w:tbl markup.
// Structure is declared rather than inferred, but merged cells and
// nested tables flatten lossily.
const tableConfidence = 0.9

func init() {
	parser.RegisterFormat(func() port.FormatParser { return &Parser{} }, domain.MIMEDOCX)
}

type Parser struct{}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Texts  []string   `xml:"t"`
	Tabs   []struct{} `xml:"tab"`
	Breaks []struct{} `xml:"br"`
}

type table struct {
	Rows []tableRow `xml:"tr"`
}

type tableRow struct {
	Cells []tableCell `xml:"tc"`
}

type tableCell struct {
	Paragraphs []paragraph `xml:"p"`
}

func (p *Parser) Parse(_ context.Context, data []byte) (*port.ParseResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx.Parser.Parse: open archive: %w", err)
	}

	docXML, err := readArchiveFile(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("docx.Parser.Parse: %w", err)
	}

	result := &port.ParseResult{Confidence: tableConfidence}
	var textParts []string

	// Walk body children with a token decoder so paragraphs and
	// tables keep their document order.
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docx.Parser.Parse: decode document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			// Body children sit at depth 2 (document > body > child).
			if depth == 2 && el.Name.Local == "p" {
				var para paragraph
				if err := dec.DecodeElement(&para, &el); err != nil {
					return nil, fmt.Errorf("docx.Parser.Parse: decode paragraph: %w", err)
				}
				if text := paragraphText(para); text != "" {
					textParts = append(textParts, text)
					result.Chunks = append(result.Chunks, domain.TextChunk{
						Content: text,
						Type:    domain.ChunkTypeText,
					})
				}
				continue
			}
			if depth == 2 && el.Name.Local == "tbl" {
				var tbl table
				if err := dec.DecodeElement(&tbl, &el); err != nil {
					return nil, fmt.Errorf("docx.Parser.Parse: decode table: %w", err)
				}
				if extracted, ok := buildTable(tbl, len(result.Tables)); ok {
					result.Tables = append(result.Tables, extracted)
					rendered := renderTable(extracted)
					textParts = append(textParts, rendered)
					result.Chunks = append(result.Chunks, domain.TextChunk{
						Content: rendered,
						Type:    domain.ChunkTypeTable,
					})
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	result.Text = strings.Join(textParts, "\n\n")
	return result, nil
}

func readArchiveFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

func paragraphText(p paragraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		for range r.Breaks {
			b.WriteString("\n")
		}
		for range r.Tabs {
			b.WriteString("\t")
		}
		for _, t := range r.Texts {
			b.WriteString(t)
		}
	}
	return strings.TrimSpace(b.String())
}

func buildTable(tbl table, index int) (domain.ExtractedTable, bool) {
	var grid [][]string
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if text := paragraphText(para); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		grid = append(grid, cells)
	}
	if len(grid) == 0 {
		return domain.ExtractedTable{}, false
	}

	return domain.ExtractedTable{
		Headers:      grid[0],
		Rows:         grid[1:],
		Confidence:   tableConfidence,
		TableIndex:   index,
		SourceFormat: domain.SourceDOCX,
	}, true
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
