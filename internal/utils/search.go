package utils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/daolmedo/chartistry/internal/appcontext"
	"github.com/daolmedo/chartistry/internal/entity"
)

func DatasetToDocument(ds *entity.Dataset) map[string]interface{} {
	return map[string]interface{}{
		"id":         ds.ID.String(),
		"type":       "dataset",
		"name":       ds.FileName,
		"file_name":  ds.FileName,
		"table_name": ds.TableName,
		"user_id":    ds.UserID,
		"dataset_id": ds.ID.String(),
		"row_count":  ds.RowCount,
	}
}

func ColumnToDocument(ds *entity.Dataset, col *entity.Column) map[string]interface{} {
	return map[string]interface{}{
		"id":          col.ID.String(),
		"type":        "column",
		"name":        col.Name,
		"column_type": col.LogicalType,
		"user_id":     ds.UserID,
		"dataset_id":  ds.ID.String(),
		"table_name":  ds.TableName,
	}
}

// IndexDataset pushes a completed dataset and its column descriptors into the
// search index. Indexing is best-effort bookkeeping after the ingestion has
// already been finalized; the caller decides whether a failure is fatal.
func IndexDataset(ctx *appcontext.Context, ds *entity.Dataset, cols []entity.Column) error {
	documents := make([]map[string]interface{}, 0, len(cols)+1)
	documents = append(documents, DatasetToDocument(ds))
	for i := range cols {
		documents = append(documents, ColumnToDocument(ds, &cols[i]))
	}

	if _, err := ctx.MeilisearchClient.Index("datasets").AddDocuments(documents); err != nil {
		return fmt.Errorf("failed to index dataset documents: %w", err)
	}

	ctx.Logger.Info("dataset indexed for search",
		zap.String("dataset_id", ds.ID.String()),
		zap.Int("documents", len(documents)))
	return nil
}
