package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridocs/internal/domain"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Subsidy announcement</w:t></w:r></w:p>
    <w:p><w:r><w:t>Applications open in </w:t></w:r><w:r><w:t>spring</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Program</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Amount</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Eco Scheme</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>4500</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Contact your regional office.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestParse(t *testing.T) {
	p := &Parser{}

	result, err := p.Parse(context.Background(), buildDocx(t, sampleDocument))
	require.NoError(t, err)

	require.Len(t, result.Tables, 1)
	table := result.Tables[0]
	assert.Equal(t, []string{"Program", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"Eco Scheme", "4500"}, table.Rows[0])
	assert.Equal(t, domain.SourceDOCX, table.SourceFormat)

	// Chunks preserve document order: text, text, table, text.
	require.Len(t, result.Chunks, 4)
	assert.Equal(t, domain.ChunkTypeText, result.Chunks[0].Type)
	assert.Equal(t, "Subsidy announcement", result.Chunks[0].Content)
	assert.Equal(t, "Applications open in spring", result.Chunks[1].Content)
	assert.Equal(t, domain.ChunkTypeTable, result.Chunks[2].Type)
	assert.Equal(t, "Contact your regional office.", result.Chunks[3].Content)

	assert.Contains(t, result.Text, "Program | Amount")
}

func TestParseNoDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := &Parser{}
	_, err = p.Parse(context.Background(), buf.Bytes())
	assert.Error(t, err)
}

func TestParseNotAZip(t *testing.T) {
	p := &Parser{}
	_, err := p.Parse(context.Background(), []byte("plain bytes"))
	assert.Error(t, err)
}

func TestParseEmptyTableSkipped(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:tbl></w:tbl>
    <w:p><w:r><w:t>only text</w:t></w:r></w:p>
  </w:body>
</w:document>`

	p := &Parser{}
	result, err := p.Parse(context.Background(), buildDocx(t, doc))
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	assert.Equal(t, "only text", result.Text)
}
