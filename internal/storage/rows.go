package storage

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRowStore executes statements against the data plane: the
// dynamically created per-upload tables. Metadata records go through gorm;
// DDL, bulk inserts and guarded reads go through pgx directly.
//
// It satisfies both ingest.RowStore and query.RowStore.
type PostgresRowStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresRowStore opens a pgx pool against the given DSN.
func NewPostgresRowStore(ctx context.Context, dsn string) (*PostgresRowStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	return &PostgresRowStore{Pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresRowStore) Close() {
	s.Pool.Close()
}

// Exec runs a parameterized statement and returns the affected row count.
func (s *PostgresRowStore) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	cmd, err := s.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Query runs a read statement and maps every row to a column-name keyed map
// with transport-safe values.
func (s *PostgresRowStore) Query(ctx context.Context, sql string, args ...any) ([]string, []map[string]any, error) {
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		record := make(map[string]any, len(columns))
		for i, c := range columns {
			record[c] = transportSafe(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, out, nil
}

// IntrospectColumns returns the table's column names in ordinal position
// order, from the information schema.
func (s *PostgresRowStore) IntrospectColumns(ctx context.Context, table string) ([]string, error) {
	const q = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = 'public'
		ORDER BY ordinal_position`

	rows, err := s.Pool.Query(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found in schema catalog", table)
	}

	return columns, nil
}

// transportSafe converts driver values a generic JSON encoder cannot handle:
// temporal values become RFC3339 strings, arbitrary-precision numerics become
// plain number strings and raw byte slices become strings.
func transportSafe(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		if s, err := numericString(val); err == nil {
			return s
		}
		return nil
	case *big.Int:
		return val.String()
	case []byte:
		return string(val)
	default:
		return v
	}
}

func numericString(n pgtype.Numeric) (string, error) {
	driverValue, err := n.Value()
	if err != nil {
		return "", err
	}
	s, ok := driverValue.(string)
	if !ok {
		return fmt.Sprint(driverValue), nil
	}
	return s, nil
}
