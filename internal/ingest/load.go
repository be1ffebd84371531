package ingest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RowStore is the capability the loader and schema steps need from the
// relational store: parameterized statement execution with an affected-row
// count. The pgx-backed implementation lives in internal/storage.
type RowStore interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// BuildInsertSQL constructs a single multi-row INSERT statement and its
// argument list using numbered placeholders.
//
// It is pure and deterministic so placeholder numbering can be unit tested
// without a database. Column order must exactly match the order used when the
// table was created; every row must have len(columns) values.
func BuildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(QuoteIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(QuoteIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	b.WriteString(";")

	return b.String(), args
}

// ConvertRows turns the columnar string table into row-major typed values
// matching the inferred column types. Blank cells become nil.
func ConvertRows(t *Table, types []LogicalType) ([][]any, error) {
	rows := make([][]any, t.RowCount())
	for r := range rows {
		row := make([]any, len(t.Columns))
		for c := range t.Columns {
			v, err := convertCell(t.Columns[c][r], types[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r+1, t.Headers[c], err)
			}
			row[c] = v
		}
		rows[r] = row
	}
	return rows, nil
}

func convertCell(raw string, typ LogicalType) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	switch typ {
	case TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		// Inference accepts whole-valued floats like "2.0" as INTEGER.
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return nil, fmt.Errorf("value %q is not an integer", s)
		}
		// int64(f) on an out-of-range float is implementation-defined; the
		// cell must fail the load, not be narrowed to a wrong value.
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("value %q overflows a 64-bit integer", s)
		}
		return int64(f), nil
	case TypeDecimal:
		if f, err := strconv.ParseFloat(s, 64); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("value %q is not numeric", s)
		}
		// Passed through as text so Postgres parses the NUMERIC without
		// float64 precision loss.
		return s, nil
	case TypeDate:
		ts, ok := parseTemporal(s)
		if !ok {
			return nil, fmt.Errorf("value %q is not a date", s)
		}
		return ts, nil
	case TypeBoolean:
		v, ok := parseBool(s)
		if !ok {
			return nil, fmt.Errorf("value %q is not a boolean", s)
		}
		return v, nil
	default:
		return s, nil
	}
}

// Load writes every parsed row into the created table with one batched
// multi-row insert. Either all rows are written or the underlying error is
// surfaced; zero rows affected on a non-empty table is reported as an error
// rather than success.
func Load(ctx context.Context, store RowStore, table string, columns []string, t *Table, types []LogicalType) (int64, error) {
	rows, err := ConvertRows(t, types)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no rows to load")
	}

	sql, args := BuildInsertSQL(table, columns, rows)
	n, err := store.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("insert affected zero rows")
	}
	return n, nil
}
