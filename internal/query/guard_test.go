package query

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/daolmedo/chartistry/internal/entity"
)

type fakeFinder struct {
	dataset *entity.Dataset
}

func (f *fakeFinder) Get(ctx context.Context, id uuid.UUID) (*entity.Dataset, error) {
	if f.dataset == nil || f.dataset.ID != id {
		return nil, errors.New("record not found")
	}
	return f.dataset, nil
}

type fakeRows struct {
	columns    []string
	rowsToGive int

	queryErr      error
	introspectErr error

	lastSQL string
}

func (f *fakeRows) Query(ctx context.Context, sql string, args ...any) ([]string, []map[string]any, error) {
	f.lastSQL = sql
	if f.queryErr != nil {
		return nil, nil, f.queryErr
	}
	visible := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if !hiddenColumns[c] {
			visible = append(visible, c)
		}
	}
	rows := make([]map[string]any, f.rowsToGive)
	for i := range rows {
		record := make(map[string]any, len(visible))
		for _, c := range visible {
			record[c] = fmt.Sprintf("%s-%d", c, i)
		}
		rows[i] = record
	}
	return visible, rows, nil
}

func (f *fakeRows) IntrospectColumns(ctx context.Context, table string) ([]string, error) {
	if f.introspectErr != nil {
		return nil, f.introspectErr
	}
	return f.columns, nil
}

func completedDataset(table string) *entity.Dataset {
	return &entity.Dataset{
		ID:        uuid.New(),
		UserID:    "user-1",
		FileName:  "cities.csv",
		TableName: table,
		Status:    entity.StatusCompleted,
	}
}

func newTestGuard(ds *entity.Dataset, rows *fakeRows) *Guard {
	return &Guard{
		Datasets:     &fakeFinder{dataset: ds},
		Rows:         rows,
		DefaultLimit: 1000,
	}
}

// TestFetchExcludesInternalColumns verifies fetch mode selects only data
// columns: the surrogate key and creation timestamp stay hidden even though
// introspection reports them.
func TestFetchExcludesInternalColumns(t *testing.T) {
	t.Parallel()

	ds := completedDataset("ds_cities_1_ab")
	rows := &fakeRows{columns: []string{"id", "name", "pop", "created_at"}, rowsToGive: 2}

	result, err := newTestGuard(ds, rows).Fetch(context.Background(), ds.ID, ds.TableName, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !reflect.DeepEqual(result.Columns, []string{"name", "pop"}) {
		t.Fatalf("columns = %v", result.Columns)
	}
	for _, banned := range []string{`"id"`, `"created_at"`} {
		if strings.Contains(rows.lastSQL, banned) {
			t.Fatalf("fetch SQL selects internal column %s: %q", banned, rows.lastSQL)
		}
	}
	if !strings.Contains(rows.lastSQL, "LIMIT 1000") {
		t.Fatalf("fetch SQL missing default limit: %q", rows.lastSQL)
	}
}

// TestGuardNotFound verifies the resolution contract: wrong id, wrong table
// name, or a dataset that has not completed all reject with not_found.
func TestGuardNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dataset *entity.Dataset
		lookup  func(ds *entity.Dataset) (uuid.UUID, string)
	}{
		{
			name:    "unknown dataset id",
			dataset: completedDataset("ds_t_1_ab"),
			lookup:  func(ds *entity.Dataset) (uuid.UUID, string) { return uuid.New(), ds.TableName },
		},
		{
			name:    "table name mismatch",
			dataset: completedDataset("ds_t_1_ab"),
			lookup:  func(ds *entity.Dataset) (uuid.UUID, string) { return ds.ID, "ds_other_2_cd" },
		},
		{
			name: "dataset still pending",
			dataset: &entity.Dataset{
				ID: uuid.New(), TableName: "ds_t_1_ab", Status: entity.StatusPending,
			},
			lookup: func(ds *entity.Dataset) (uuid.UUID, string) { return ds.ID, ds.TableName },
		},
		{
			name: "dataset failed",
			dataset: &entity.Dataset{
				ID: uuid.New(), TableName: "ds_t_1_ab", Status: entity.StatusFailed,
			},
			lookup: func(ds *entity.Dataset) (uuid.UUID, string) { return ds.ID, ds.TableName },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			guard := newTestGuard(tt.dataset, &fakeRows{columns: []string{"a"}})
			id, table := tt.lookup(tt.dataset)

			if _, err := guard.Fetch(context.Background(), id, table, 0); KindOf(err) != KindNotFound {
				t.Fatalf("Fetch kind = %v, want not_found", KindOf(err))
			}
			if _, err := guard.Execute(context.Background(), id, table, "SELECT 1", 0); KindOf(err) != KindNotFound {
				t.Fatalf("Execute kind = %v, want not_found", KindOf(err))
			}
		})
	}
}

func TestExecuteRejectsForbiddenSQL(t *testing.T) {
	t.Parallel()

	ds := completedDataset("ds_t_1_ab")
	guard := newTestGuard(ds, &fakeRows{columns: []string{"a"}})

	for _, sql := range []string{"DROP TABLE x", "UPDATE x SET y=1"} {
		_, err := guard.Execute(context.Background(), ds.ID, ds.TableName, sql, 0)
		if KindOf(err) != KindForbidden {
			t.Fatalf("Execute(%q) kind = %v, want forbidden", sql, KindOf(err))
		}
	}
}

func TestExecuteAppendsDefaultLimit(t *testing.T) {
	t.Parallel()

	ds := completedDataset("ds_t_1_ab")
	rows := &fakeRows{columns: []string{"a"}, rowsToGive: 1}

	if _, err := newTestGuard(ds, rows).Execute(context.Background(), ds.ID, ds.TableName, "SELECT a FROM ds_t_1_ab", 0); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasSuffix(rows.lastSQL, "LIMIT 1000") {
		t.Fatalf("limit not appended: %q", rows.lastSQL)
	}
}

// TestRowCapHolds verifies the output guarantee: the guard never returns more
// rows than the effective limit, even when the underlying query produces
// more (for example via a caller-supplied larger LIMIT clause).
func TestRowCapHolds(t *testing.T) {
	t.Parallel()

	ds := completedDataset("ds_t_1_ab")
	rows := &fakeRows{columns: []string{"a"}, rowsToGive: 50}
	guard := newTestGuard(ds, rows)

	result, err := guard.Execute(context.Background(), ds.ID, ds.TableName, "SELECT a FROM ds_t_1_ab LIMIT 9999", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 10 {
		t.Fatalf("got %d rows, want 10", len(result.Rows))
	}

	result, err = guard.Fetch(context.Background(), ds.ID, ds.TableName, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Rows) != 10 {
		t.Fatalf("fetch returned %d rows, want 10", len(result.Rows))
	}
}

func TestGuardStoreErrors(t *testing.T) {
	t.Parallel()

	ds := completedDataset("ds_t_1_ab")

	t.Run("introspection failure", func(t *testing.T) {
		t.Parallel()
		rows := &fakeRows{introspectErr: errors.New("catalog unavailable")}
		_, err := newTestGuard(ds, rows).Fetch(context.Background(), ds.ID, ds.TableName, 0)
		if KindOf(err) != KindStore {
			t.Fatalf("kind = %v, want store_error", KindOf(err))
		}
	})

	t.Run("query failure", func(t *testing.T) {
		t.Parallel()
		rows := &fakeRows{columns: []string{"a"}, queryErr: errors.New("syntax error")}
		_, err := newTestGuard(ds, rows).Execute(context.Background(), ds.ID, ds.TableName, "SELECT nope", 0)
		if KindOf(err) != KindStore {
			t.Fatalf("kind = %v, want store_error", KindOf(err))
		}
	})
}
