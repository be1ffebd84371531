package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// LogicalType is the inferred semantic category of a column, independent of
// the storage representation used when creating the destination table.
type LogicalType string

const (
	TypeInteger LogicalType = "INTEGER"
	TypeDecimal LogicalType = "DECIMAL"
	TypeDate    LogicalType = "DATE"
	TypeBoolean LogicalType = "BOOLEAN"
	TypeText    LogicalType = "TEXT"
)

// StorageType maps a logical type to the Postgres column type used in DDL.
func (t LogicalType) StorageType() string {
	switch t {
	case TypeInteger:
		return "BIGINT"
	case TypeDecimal:
		return "NUMERIC"
	case TypeDate:
		return "TIMESTAMPTZ"
	case TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// InferColumn classifies one column of raw cell values. Blank cells are
// treated as nulls and dropped before classification. The result is
// deterministic and total: classification never fails, it falls back to TEXT.
//
// Precedence, first match wins:
//  1. all-null column -> TEXT
//  2. all values finite numeric -> INTEGER when no value has a fractional
//     part, DECIMAL otherwise (Inf and NaN do not count as numeric)
//  3. all values parse as a date or timestamp -> DATE
//  4. lowercased distinct values form a subset of {true,false,1,0,yes,no} -> BOOLEAN
//  5. TEXT
//
// Numeric classification runs before the boolean subset test, so a column of
// only "1"/"0" is INTEGER, not BOOLEAN. That is intentional precedence, not
// an ambiguity.
func InferColumn(values []string) LogicalType {
	nonNull := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			nonNull = append(nonNull, strings.TrimSpace(v))
		}
	}
	if len(nonNull) == 0 {
		return TypeText
	}

	allNumeric := true
	allWhole := true
	for _, v := range nonNull {
		f, err := strconv.ParseFloat(v, 64)
		// Inf and NaN parse as floats but have no storable numeric value;
		// columns containing them fall through to TEXT.
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			allNumeric = false
			break
		}
		if f != math.Trunc(f) {
			allWhole = false
		}
	}
	if allNumeric {
		if allWhole {
			return TypeInteger
		}
		return TypeDecimal
	}

	allDates := true
	for _, v := range nonNull {
		if _, ok := parseTemporal(v); !ok {
			allDates = false
			break
		}
	}
	if allDates {
		return TypeDate
	}

	if isBooleanSet(nonNull) {
		return TypeBoolean
	}

	return TypeText
}

// InferTypes classifies every column of a parsed table.
func InferTypes(t *Table) []LogicalType {
	out := make([]LogicalType, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = InferColumn(col)
	}
	return out
}

func isBooleanSet(values []string) bool {
	allowed := map[string]bool{
		"true": true, "false": true,
		"1": true, "0": true,
		"yes": true, "no": true,
	}
	for _, v := range values {
		if !allowed[strings.ToLower(v)] {
			return false
		}
	}
	return true
}

// parseBool maps a cell already classified as BOOLEAN to its value.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// Layout order matters: day-first slash layouts precede month-first, so an
// ambiguous value like 03/04/2024 resolves day-first.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

// parseTemporal tries the known date and timestamp layouts in order.
func parseTemporal(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
