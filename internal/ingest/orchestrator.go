package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daolmedo/chartistry/internal/entity"
)

// BlobStore is the capability needed to pull uploaded file bytes.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// DatasetStore is the metadata capability the orchestrator needs: dataset
// lookup, terminal failure marking and transactional finalization (dataset
// summary update plus all column descriptors as a unit).
type DatasetStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Dataset, error)
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	Finalize(ctx context.Context, ds *entity.Dataset, cols []entity.Column) error
}

// Result reports a completed ingestion.
type Result struct {
	TableName   string `json:"table_name"`
	RowCount    int64  `json:"row_count"`
	ColumnCount int    `json:"column_count"`
}

// Orchestrator sequences one ingestion request: fetch, parse, infer, create
// table, load, record metadata. All collaborators are injected; there is no
// shared state between requests and no retry logic. Any failure is terminal
// for the request.
type Orchestrator struct {
	Blobs    BlobStore
	Rows     RowStore
	Datasets DatasetStore
	Logger   *zap.Logger
}

// Ingest runs the full pipeline for one dataset. Once the attempt has
// started, the dataset never remains pending: every exit path either
// finalizes it as completed or marks it failed with the captured error text,
// including panics from lower layers.
//
// A table created before a later stage fails is left in place; orphaned
// tables are a documented limitation, not rolled back.
func (o *Orchestrator) Ingest(ctx context.Context, datasetID uuid.UUID) (res *Result, err error) {
	ds, err := o.Datasets.Get(ctx, datasetID)
	if err != nil {
		return nil, newError(KindStore, "dataset lookup failed", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = newError(KindStore, fmt.Sprintf("ingestion panicked: %v", r), nil)
		}
		if err == nil {
			return
		}
		if markErr := o.Datasets.MarkFailed(context.WithoutCancel(ctx), ds.ID, err.Error()); markErr != nil {
			o.Logger.Error("failed to mark dataset as failed",
				zap.String("dataset_id", ds.ID.String()), zap.Error(markErr))
		}
	}()

	raw, err := o.Blobs.Get(ctx, ds.StorageKey)
	if err != nil {
		return nil, newError(KindFetch, fmt.Sprintf("fetch object %q", ds.StorageKey), err)
	}

	table, err := ParseCSV(raw)
	if err != nil {
		return nil, newError(KindParse, "parse csv", err)
	}

	types := InferTypes(table)
	sanitized := SanitizeColumnNames(table.Headers)

	tableName := TableNameFor(ds.FileName, time.Now(), uuid.NewString())
	cols := make([]ColumnDef, len(sanitized))
	for i, name := range sanitized {
		cols[i] = ColumnDef{Name: name, Storage: types[i].StorageType()}
	}
	if _, err = o.Rows.Exec(ctx, BuildCreateTableSQL(tableName, cols)); err != nil {
		return nil, newError(KindSchema, fmt.Sprintf("create table %q", tableName), err)
	}

	rowCount, err := Load(ctx, o.Rows, tableName, sanitized, table, types)
	if err != nil {
		return nil, newError(KindLoad, fmt.Sprintf("load rows into %q", tableName), err)
	}

	now := time.Now().UTC()
	ds.TableName = tableName
	ds.RowCount = rowCount
	ds.ColumnCount = len(table.Headers)
	ds.Status = entity.StatusCompleted
	ds.ErrorMessage = ""
	ds.IngestedAt = &now

	descriptors := BuildColumnDescriptors(ds.ID, table, types, sanitized)
	if err = o.Datasets.Finalize(ctx, ds, descriptors); err != nil {
		err = newError(KindMetadata, "record dataset metadata", err)
		return nil, err
	}

	o.Logger.Info("dataset ingested",
		zap.String("dataset_id", ds.ID.String()),
		zap.String("table", tableName),
		zap.Int64("rows", rowCount),
		zap.Int("columns", len(table.Headers)))

	return &Result{TableName: tableName, RowCount: rowCount, ColumnCount: len(table.Headers)}, nil
}
