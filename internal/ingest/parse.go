package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is the columnar intermediate representation produced by parsing. Cells
// are kept as trimmed strings in column-major order; the empty string is the
// null marker. The inferencer and loader operate purely on this shape.
type Table struct {
	Headers []string
	Columns [][]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0])
}

// Row materializes row r in header order.
func (t *Table) Row(r int) []string {
	out := make([]string, len(t.Columns))
	for c := range t.Columns {
		out[c] = t.Columns[c][r]
	}
	return out
}

// ParseCSV parses raw CSV bytes into a Table.
//
// Parsing rules:
//   - the first record is the header row; header cells are trimmed
//   - records with the wrong field count are skipped
//   - a file with no header or no surviving data rows is a parse failure
func ParseCSV(data []byte) (*Table, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // validated manually
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("header row has no columns")
	}

	columns := make([][]string, len(headers))
	rows := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		if len(rec) != len(headers) {
			continue
		}
		for i := range rec {
			columns[i] = append(columns[i], strings.TrimSpace(rec[i]))
		}
		rows++
	}

	if rows == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	return &Table{Headers: headers, Columns: columns}, nil
}
