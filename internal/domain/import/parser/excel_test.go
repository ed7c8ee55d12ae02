package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestParseExcel(t *testing.T) {
	t.Run("reads headers and rows", func(t *testing.T) {
		r := buildWorkbook(t, "Expenses", [][]any{
			{"Date", "Amount", "Description"},
			{"2024-03-15", "42.50", "Coffee Shop"},
			{"2024-03-16", "9.99", "Lunch"},
		})

		doc, err := ParseExcel(r)
		require.NoError(t, err)
		assert.Equal(t, []string{"Date", "Amount", "Description"}, doc.Headers)
		require.Len(t, doc.Rows, 2)
		assert.Equal(t, "Coffee Shop", doc.Rows[0]["Description"])
	})

	t.Run("leading blank rows skipped", func(t *testing.T) {
		r := buildWorkbook(t, "Sheet1", [][]any{
			{""},
			{"Date", "Amount"},
			{"2024-03-15", "1.00"},
		})

		doc, err := ParseExcel(r)
		require.NoError(t, err)
		assert.Equal(t, []string{"Date", "Amount"}, doc.Headers)
		require.Len(t, doc.Rows, 1)
	})

	t.Run("blank data rows discarded", func(t *testing.T) {
		r := buildWorkbook(t, "Sheet1", [][]any{
			{"Date", "Amount"},
			{"2024-03-15", "1.00"},
			{"", ""},
			{"2024-03-16", "2.00"},
		})

		doc, err := ParseExcel(r)
		require.NoError(t, err)
		assert.Len(t, doc.Rows, 2)
	})

	t.Run("headers only", func(t *testing.T) {
		r := buildWorkbook(t, "Sheet1", [][]any{{"Date", "Amount"}})

		_, err := ParseExcel(r)
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("not an excel file", func(t *testing.T) {
		_, err := ParseExcel(bytes.NewReader([]byte("Date,Amount\n1,2\n")))
		assert.Error(t, err)
	})
}
