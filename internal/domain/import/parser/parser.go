// Package parser turns uploaded statement files into a header list plus raw
// rows keyed by header. It sniffs the delimiter, strips BOMs, tolerates
// latin-1 exports and discards fully blank rows before mapping ever sees
// the data.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
)

// gocsv configures its reader through a package global, so the
// SetCSVReader/CSVToMaps pair has to run under a lock or concurrent
// uploads with different delimiters corrupt each other.
var csvMu sync.Mutex

// RawRow maps a column header to the cell value of one data row. Keys are
// the file's first-row headers; missing cells are absent keys.
type RawRow map[string]string

// Document is a parsed upload: ordered headers and the non-blank data rows.
type Document struct {
	Headers   []string
	Rows      []RawRow
	Delimiter rune
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeaders        = errors.New("could not read a header row")
	ErrNoDataRows       = errors.New("file has no data rows")
	ErrInvalidDelimiter = errors.New("could not detect a valid delimiter")
)

// ParseCSV parses CSV/TSV bytes into a Document.
func ParseCSV(data []byte) (*Document, error) {
	data = normalizeBytes(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	headerLine, ok := firstNonBlankLine(data)
	if !ok {
		return nil, ErrNoHeaders
	}
	delimiter := detectDelimiter(headerLine)
	if delimiter == 0 {
		return nil, ErrInvalidDelimiter
	}

	headers, err := readHeaders(headerLine, delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse header row: %w", err)
	}

	maps, err := csvToMaps(data, delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}

	rows := make([]RawRow, 0, len(maps))
	for _, m := range maps {
		row := make(RawRow, len(m))
		for k, v := range m {
			row[strings.TrimSpace(k)] = v
		}
		if isBlank(row) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	return &Document{Headers: headers, Rows: rows, Delimiter: delimiter}, nil
}

func csvToMaps(data []byte, delimiter rune) ([]map[string]string, error) {
	csvMu.Lock()
	defer csvMu.Unlock()
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = delimiter
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1
		return r
	})
	return gocsv.CSVToMaps(bytes.NewReader(data))
}

func readHeaders(headerLine string, delimiter rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(headerLine))
	r.Comma = delimiter
	r.LazyQuotes = true
	headers, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	return headers, nil
}

func firstNonBlankLine(data []byte) (string, bool) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}

func detectDelimiter(line string) rune {
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			best, bestCount = d, count
		}
	}
	if best == 0 {
		// Single-column file; comma keeps the csv reader happy.
		return ','
	}
	return best
}

func isBlank(row RawRow) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeBytes strips a UTF-8 BOM and transcodes latin-1 exports so the
// csv reader only ever sees valid UTF-8.
func normalizeBytes(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return data
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}
