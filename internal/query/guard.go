package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/daolmedo/chartistry/internal/entity"
	"github.com/daolmedo/chartistry/internal/ingest"
)

// Columns excluded from fetch-mode results: the surrogate key and the
// server-side creation timestamp added by the schema builder.
var hiddenColumns = map[string]bool{
	"id":         true,
	"created_at": true,
}

// RowStore is the read capability the guard needs: query execution returning
// ordered column names plus transport-safe row maps, and schema-catalog
// introspection for a table's column list.
type RowStore interface {
	Query(ctx context.Context, sql string, args ...any) ([]string, []map[string]any, error)
	IntrospectColumns(ctx context.Context, table string) ([]string, error)
}

// DatasetFinder resolves a dataset id to its metadata record.
type DatasetFinder interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Dataset, error)
}

// Result is the transport-neutral tabular shape returned to callers.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Guard validates and executes bounded read-only queries over ingested
// tables.
type Guard struct {
	Datasets     DatasetFinder
	Rows         RowStore
	DefaultLimit int
}

func (g *Guard) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	if g.DefaultLimit > 0 {
		return g.DefaultLimit
	}
	return DefaultLimit
}

// resolve rejects with not_found unless a dataset exists with the given id
// and table name and has completed ingestion.
func (g *Guard) resolve(ctx context.Context, datasetID uuid.UUID, tableName string) (*entity.Dataset, error) {
	ds, err := g.Datasets.Get(ctx, datasetID)
	if err != nil {
		return nil, newError(KindNotFound, "dataset not found", err)
	}
	if ds.TableName != tableName || ds.Status != entity.StatusCompleted {
		return nil, newError(KindNotFound, "dataset not found or not yet completed", nil)
	}
	return ds, nil
}

// Fetch returns up to limit rows of the dataset's table, restricted to the
// data columns. The column list is introspected from the store's schema
// catalog, never hard-coded.
func (g *Guard) Fetch(ctx context.Context, datasetID uuid.UUID, tableName string, limit int) (*Result, error) {
	if _, err := g.resolve(ctx, datasetID, tableName); err != nil {
		return nil, err
	}

	all, err := g.Rows.IntrospectColumns(ctx, tableName)
	if err != nil {
		return nil, newError(KindStore, fmt.Sprintf("introspect table %q", tableName), err)
	}

	selected := make([]string, 0, len(all))
	for _, c := range all {
		if !hiddenColumns[c] {
			selected = append(selected, ingest.QuoteIdent(c))
		}
	}
	if len(selected) == 0 {
		return nil, newError(KindStore, fmt.Sprintf("table %q has no data columns", tableName), nil)
	}

	effective := g.limit(limit)
	sql := fmt.Sprintf("SELECT %s FROM %s LIMIT %d",
		strings.Join(selected, ", "), ingest.QuoteIdent(tableName), effective)

	return g.run(ctx, sql, effective)
}

// Execute validates caller SQL, bounds it with the effective limit and runs
// it. Statements that are not plain SELECTs are rejected with forbidden.
func (g *Guard) Execute(ctx context.Context, datasetID uuid.UUID, tableName, sql string, limit int) (*Result, error) {
	if _, err := g.resolve(ctx, datasetID, tableName); err != nil {
		return nil, err
	}
	if err := ValidateReadOnly(sql); err != nil {
		return nil, err
	}

	effective := g.limit(limit)
	return g.run(ctx, EnsureLimit(sql, effective), effective)
}

func (g *Guard) run(ctx context.Context, sql string, limit int) (*Result, error) {
	cols, rows, err := g.Rows.Query(ctx, sql)
	if err != nil {
		return nil, newError(KindStore, "query execution failed", err)
	}
	// The statement carries its own LIMIT, but a pre-existing caller clause
	// may be larger than the effective limit; the cap holds regardless.
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return &Result{Columns: cols, Rows: rows}, nil
}
