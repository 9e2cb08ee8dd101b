package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridocs/internal/domain"
)

func TestPlainParser(t *testing.T) {
	p := &PlainParser{}

	result, err := p.Parse(context.Background(), []byte("  Subsidy program overview.\nApply by June.  \n"))
	require.NoError(t, err)

	assert.Equal(t, "Subsidy program overview.\nApply by June.", result.Text)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, domain.ChunkTypeText, result.Chunks[0].Type)
	assert.Empty(t, result.Tables)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestPlainParserEmpty(t *testing.T) {
	p := &PlainParser{}

	result, err := p.Parse(context.Background(), []byte("   \n"))
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Empty(t, result.Chunks)
}

func TestCSVParser(t *testing.T) {
	p := &CSVParser{}
	data := []byte("Program,Amount,Deadline\nEco Scheme,4500,2025-06-30\nYoung Farmer,25000,2025-09-15\n")

	result, err := p.Parse(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, result.Tables, 1)
	table := result.Tables[0]
	assert.Equal(t, []string{"Program", "Amount", "Deadline"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, domain.SourceCSV, table.SourceFormat)
	assert.Equal(t, 1.0, table.Confidence)

	require.Len(t, result.Chunks, 1)
	assert.Equal(t, domain.ChunkTypeTable, result.Chunks[0].Type)
	assert.Equal(t, "2", result.Chunks[0].Metadata["rows"])
	assert.Contains(t, result.Text, "Program | Amount | Deadline")
	assert.Contains(t, result.Text, "Eco Scheme | 4500 | 2025-06-30")
}

func TestCSVParserPreviewTruncates(t *testing.T) {
	p := &CSVParser{}
	data := "h1,h2\n"
	for i := 0; i < 8; i++ {
		data += "a,b\n"
	}

	result, err := p.Parse(context.Background(), []byte(data))
	require.NoError(t, err)

	// Table keeps every row; the text preview shows only the first 5.
	assert.Len(t, result.Tables[0].Rows, 8)
	assert.Contains(t, result.Text, "(3 more rows)")
}

func TestCSVParserRaggedRows(t *testing.T) {
	p := &CSVParser{}
	data := []byte("a,b,c\n1,2\n3,4,5,6\n")

	result, err := p.Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	assert.Len(t, result.Tables[0].Rows, 2)
}

func TestCSVParserEmpty(t *testing.T) {
	p := &CSVParser{}

	result, err := p.Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
}
