package xlsx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agridocs/internal/domain"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Programs"))
	require.NoError(t, f.SetSheetRow("Programs", "A1", &[]interface{}{"Program", "Amount", "Deadline"}))
	require.NoError(t, f.SetSheetRow("Programs", "A2", &[]interface{}{"Eco Scheme", 4500, "2025-06-30"}))
	require.NoError(t, f.SetSheetRow("Programs", "A3", &[]interface{}{"Young Farmer", 25000, "2025-09-15"}))

	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "Region"))
	require.NoError(t, f.SetCellValue("Notes", "B1", "Office"))
	require.NoError(t, f.SetCellValue("Notes", "A2", "Bavaria"))
	require.NoError(t, f.SetCellValue("Notes", "B2", "Munich"))
	require.NoError(t, f.MergeCell("Notes", "A3", "B3"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	p := &Parser{}

	result, err := p.Parse(context.Background(), buildWorkbook(t))
	require.NoError(t, err)

	require.Len(t, result.Tables, 2)

	programs := result.Tables[0]
	assert.Equal(t, "Programs", programs.Metadata.SheetName)
	assert.Equal(t, []string{"Program", "Amount", "Deadline"}, programs.Headers)
	require.Len(t, programs.Rows, 2)
	assert.Equal(t, []string{"Eco Scheme", "4500", "2025-06-30"}, programs.Rows[0])
	assert.Equal(t, domain.SourceXLSX, programs.SourceFormat)
	assert.Equal(t, 0.95, programs.Confidence)
	assert.Equal(t, 0, programs.TableIndex)

	notes := result.Tables[1]
	assert.Equal(t, "Notes", notes.Metadata.SheetName)
	assert.Equal(t, 1, notes.TableIndex)
	assert.Equal(t, []string{"A3:B3"}, notes.Metadata.MergedCells)

	assert.Contains(t, result.Text, "[Programs]")
	assert.Contains(t, result.Text, "Eco Scheme | 4500 | 2025-06-30")
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, domain.ChunkTypeTable, result.Chunks[0].Type)
	assert.Equal(t, "Programs", result.Chunks[0].Metadata["sheet"])
}

func TestParseEmptySheetSkipped(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "only"))
	_, err := f.NewSheet("Empty")
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	p := &Parser{}
	result, perr := p.Parse(context.Background(), buf.Bytes())
	require.NoError(t, perr)
	assert.Len(t, result.Tables, 1)
}

func TestParseInvalidData(t *testing.T) {
	p := &Parser{}
	_, err := p.Parse(context.Background(), []byte("not a workbook"))
	assert.Error(t, err)
}
