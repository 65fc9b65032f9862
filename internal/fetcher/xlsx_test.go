package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_HeaderAndRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Client Name", "Phone", "Monthly Payment"},
			{"Jane Roe", "5551110000", "1200"},
			{"John Doe", "5552220000", ""},
		},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Client Name", "Phone", "Monthly Payment"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Jane Roe", "5551110000", "1200"}, rows[0])
}

func TestReadXLSX_HeaderRowOffset(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Q1 Lead Export"},
			{"Client Name", "Phone"},
			{"Jane Roe", "5551110000"},
		},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{HeaderRow: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Client Name", "Phone"}, header)
	require.Len(t, rows, 1)
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Summary": {{"nothing"}},
		"Leads": {
			{"Client Name"},
			{"Jane Roe"},
		},
	})

	header, rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Leads"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Client Name"}, header)
	assert.Len(t, rows, 1)
}

func TestReadXLSX_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, _, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)

	_, _, err = ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	assert.Error(t, err)
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, _, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
