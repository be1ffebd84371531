package ingest

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestSanitizeColumnName verifies identifier sanitization. The output is
// interpolated into DDL, so the character set is restricted to [a-z0-9_].
func TestSanitizeColumnName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "order_id", "order_id"},
		{"uppercase", "OrderID", "orderid"},
		{"spaces", "First Name", "first_name"},
		{"hyphens", "unit-price", "unit_price"},
		{"mixed separators", "a b-c.d", "a_b_c_d"},
		{"special characters", "total ($)", "total"},
		{"leading and trailing junk", "  __name__  ", "name"},
		{"collapsed underscores", "a  -  b", "a_b"},
		{"unicode dropped", "prix (€)", "prix"},
		{"empty", "", ""},
		{"only junk", "($)!", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeColumnName(tt.in)
			if got != tt.want {
				t.Fatalf("SanitizeColumnName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Idempotence: sanitizing a sanitized name is a no-op.
			if again := SanitizeColumnName(got); again != got {
				t.Fatalf("not idempotent: SanitizeColumnName(%q) = %q", got, again)
			}
		})
	}
}

func TestSanitizeColumnNameLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 100)
	if got := SanitizeColumnName(long); len(got) != maxIdentLen {
		t.Fatalf("expected %d-byte identifier, got %d", maxIdentLen, len(got))
	}
}

// TestSanitizeColumnNames verifies collision handling: distinct originals
// that sanitize to the same identifier must come out distinct.
func TestSanitizeColumnNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers []string
		want    []string
	}{
		{
			"no conflicts",
			[]string{"id", "name", "price"},
			[]string{"id", "name", "price"},
		},
		{
			"case conflict",
			[]string{"Name", "name"},
			[]string{"name", "name_2"},
		},
		{
			"triple conflict",
			[]string{"a b", "A-B", "a_b"},
			[]string{"a_b", "a_b_2", "a_b_3"},
		},
		{
			"empty headers get positional names",
			[]string{"", "($)", "ok"},
			[]string{"column_1", "column_2", "ok"},
		},
		{
			"disambiguator collides with later header",
			[]string{"a", "a_2", "a"},
			[]string{"a", "a_2", "a_3"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SanitizeColumnNames(tt.headers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SanitizeColumnNames(%v) = %v, want %v", tt.headers, got, tt.want)
			}
		})
	}
}

// TestTableNameFor verifies determinism and collision resistance of table
// naming: the same seed reproduces the same name, while different upload
// times or entropy produce distinct names for identical user input.
func TestTableNameFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	a := TableNameFor("sales report.csv", now, "deadbeefcafe")
	b := TableNameFor("sales report.csv", now, "deadbeefcafe")
	if a != b {
		t.Fatalf("expected deterministic name, got %q and %q", a, b)
	}

	later := TableNameFor("sales report.csv", now.Add(time.Second), "deadbeefcafe")
	if a == later {
		t.Fatalf("same file at different times must not collide: %q", a)
	}

	other := TableNameFor("sales report.csv", now, "0123456789ab")
	if a == other {
		t.Fatalf("different entropy must not collide: %q", a)
	}

	if !strings.HasPrefix(a, "ds_sales_report_") {
		t.Fatalf("expected slugged prefix, got %q", a)
	}
	if SanitizeColumnName(a) != a {
		t.Fatalf("table name %q is not a clean identifier", a)
	}
	if len(a) > maxIdentLen {
		t.Fatalf("table name %q exceeds %d bytes", a, maxIdentLen)
	}
}

func TestTableNameForHostileFileName(t *testing.T) {
	t.Parallel()

	now := time.Unix(1717243200, 0)
	got := TableNameFor(`"; DROP TABLE datasets; --.csv`, now, "deadbeef")
	if SanitizeColumnName(got) != got {
		t.Fatalf("hostile file name leaked into identifier: %q", got)
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	sql := BuildCreateTableSQL("ds_orders_1_abc", []ColumnDef{
		{Name: "order_id", Storage: "BIGINT"},
		{Name: "amount", Storage: "NUMERIC"},
	})

	for _, want := range []string{
		`CREATE TABLE "ds_orders_1_abc"`,
		"id BIGSERIAL PRIMARY KEY",
		`"order_id" BIGINT`,
		`"amount" NUMERIC`,
		"created_at TIMESTAMPTZ NOT NULL DEFAULT now()",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("DDL missing %q: %s", want, sql)
		}
	}

	// Surrogate key first, creation timestamp last.
	if strings.Index(sql, "id BIGSERIAL") > strings.Index(sql, `"order_id"`) {
		t.Fatalf("surrogate key is not the first column: %s", sql)
	}
	if strings.Index(sql, "created_at") < strings.Index(sql, `"amount"`) {
		t.Fatalf("creation timestamp is not the last column: %s", sql)
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := QuoteIdent(`weird"name`); got != `"weird""name"` {
		t.Fatalf("QuoteIdent = %q", got)
	}
}
