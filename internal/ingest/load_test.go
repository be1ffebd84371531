package ingest

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestBuildInsertSQL verifies placeholder numbering across rows; placeholders
// must be globally numbered for a single multi-row statement.
func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	sql, args := BuildInsertSQL("ds_t_1_ab", []string{"a", "b"}, [][]any{
		{int64(1), "x"},
		{int64(2), "y"},
	})

	want := `INSERT INTO "ds_t_1_ab" ("a", "b") VALUES ($1, $2), ($3, $4);`
	if sql != want {
		t.Fatalf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{int64(1), "x", int64(2), "y"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestConvertRows(t *testing.T) {
	t.Parallel()

	table := &Table{
		Headers: []string{"n", "price", "when", "ok", "note"},
		Columns: [][]string{
			{"1", "", "2.0"},
			{"9.99", "10", ""},
			{"2024-01-02", "", "2024-03-04 05:06:07"},
			{"yes", "false", "1"},
			{"hello", "", "world"},
		},
	}
	types := []LogicalType{TypeInteger, TypeDecimal, TypeDate, TypeBoolean, TypeText}

	rows, err := ConvertRows(table, types)
	if err != nil {
		t.Fatalf("ConvertRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	if rows[0][0] != int64(1) {
		t.Fatalf("integer cell = %#v", rows[0][0])
	}
	if rows[1][0] != nil {
		t.Fatalf("blank integer cell should be nil, got %#v", rows[1][0])
	}
	if rows[2][0] != int64(2) {
		t.Fatalf("whole-valued float should convert to int64, got %#v", rows[2][0])
	}
	// Decimals pass through as text for lossless NUMERIC parsing.
	if rows[0][1] != "9.99" {
		t.Fatalf("decimal cell = %#v", rows[0][1])
	}
	if _, ok := rows[0][2].(time.Time); !ok {
		t.Fatalf("date cell = %#v, want time.Time", rows[0][2])
	}
	if rows[0][3] != true || rows[1][3] != false || rows[2][3] != true {
		t.Fatalf("boolean column = %v %v %v", rows[0][3], rows[1][3], rows[2][3])
	}
	if rows[2][4] != "world" {
		t.Fatalf("text cell = %#v", rows[2][4])
	}
}

func TestConvertRowsRejectsMistypedCell(t *testing.T) {
	t.Parallel()

	table := &Table{
		Headers: []string{"n"},
		Columns: [][]string{{"not-a-number"}},
	}
	_, err := ConvertRows(table, []LogicalType{TypeInteger})
	if err == nil || !strings.Contains(err.Error(), `column "n"`) {
		t.Fatalf("expected cell conversion error naming the column, got %v", err)
	}
}

// TestConvertRowsRejectsOverflowingInteger verifies that a whole number
// outside int64 range fails the conversion instead of being narrowed to a
// wrong stored value. The rows must never reach the insert.
func TestConvertRowsRejectsOverflowingInteger(t *testing.T) {
	t.Parallel()

	for _, cell := range []string{"9999999999999999999999", "-1e300", "Inf"} {
		table := &Table{
			Headers: []string{"n"},
			Columns: [][]string{{cell}},
		}
		_, err := ConvertRows(table, []LogicalType{TypeInteger})
		if err == nil {
			t.Fatalf("ConvertRows accepted out-of-range cell %q", cell)
		}
		if !strings.Contains(err.Error(), "overflows") {
			t.Fatalf("error for %q does not report the overflow: %v", cell, err)
		}
	}
}

type fakeRowStore struct {
	execSQL  []string
	execArgs [][]any
	affected int64
	err      error
}

func (f *fakeRowStore) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	if f.err != nil {
		return 0, f.err
	}
	if strings.HasPrefix(sql, "INSERT") {
		return f.affected, nil
	}
	return 0, nil
}

// TestLoad verifies the all-or-nothing contract: a reported zero-row write is
// surfaced as an error, never as success.
func TestLoad(t *testing.T) {
	t.Parallel()

	table := &Table{
		Headers: []string{"a"},
		Columns: [][]string{{"1", "2"}},
	}
	types := []LogicalType{TypeInteger}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		store := &fakeRowStore{affected: 2}
		n, err := Load(context.Background(), store, "ds_x_1_ab", []string{"a"}, table, types)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if n != 2 {
			t.Fatalf("rows written = %d, want 2", n)
		}
		if len(store.execSQL) != 1 {
			t.Fatalf("expected one batched statement, got %d", len(store.execSQL))
		}
	})

	t.Run("zero rows written is an error", func(t *testing.T) {
		t.Parallel()
		store := &fakeRowStore{affected: 0}
		if _, err := Load(context.Background(), store, "ds_x_1_ab", []string{"a"}, table, types); err == nil {
			t.Fatal("expected error when insert affects zero rows")
		}
	})

	t.Run("exec error propagates", func(t *testing.T) {
		t.Parallel()
		store := &fakeRowStore{err: errors.New("connection reset")}
		if _, err := Load(context.Background(), store, "ds_x_1_ab", []string{"a"}, table, types); err == nil {
			t.Fatal("expected exec error to propagate")
		}
	})
}
