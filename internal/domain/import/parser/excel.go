package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// preferredSheetNames are checked before falling back to the first sheet.
var preferredSheetNames = []string{"Expenses", "Transactions", "Sheet1"}

// ParseExcel reads an .xlsx upload into the same Document shape as ParseCSV.
// The first non-blank row of the chosen sheet becomes the header row.
func ParseExcel(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f)
	if sheet == "" {
		return nil, ErrNoHeaders
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	headerIdx := -1
	for i, row := range rows {
		if !allCellsBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, 0, len(rows[headerIdx]))
	for _, h := range rows[headerIdx] {
		headers = append(headers, strings.TrimSpace(h))
	}

	out := make([]RawRow, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		if allCellsBlank(row) {
			continue
		}
		raw := make(RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				raw[h] = row[i]
			}
		}
		out = append(out, raw)
	}
	if len(out) == 0 {
		return nil, ErrNoDataRows
	}

	return &Document{Headers: headers, Rows: out, Delimiter: ','}, nil
}

func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, want := range preferredSheetNames {
		for _, s := range sheets {
			if strings.EqualFold(s, want) {
				return s
			}
		}
	}
	return sheets[0]
}

func allCellsBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
