package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daolmedo/chartistry/internal/appcontext"
	"github.com/daolmedo/chartistry/internal/ingest"
	"github.com/daolmedo/chartistry/internal/storage"
	"github.com/daolmedo/chartistry/internal/utils"
)

// IngestDataset runs the full ingestion pipeline for an uploaded dataset and
// reports the destination table plus row/column counts.
func IngestDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		datasetID, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		datasets := &storage.GormDatasetStore{DB: ctx.DB}
		orchestrator := &ingest.Orchestrator{
			Blobs:    &storage.GCSBlobStore{Client: ctx.GCSClient, Bucket: ctx.GCSBucketName},
			Rows:     &storage.PostgresRowStore{Pool: ctx.RowPool},
			Datasets: datasets,
			Logger:   ctx.Logger,
		}

		result, err := orchestrator.Ingest(c.Request.Context(), datasetID)
		if err != nil {
			kind := ingest.KindOf(err)
			ctx.Logger.Error("Ingestion failed",
				zap.String("dataset_id", datasetID.String()),
				zap.String("kind", string(kind)),
				zap.Error(err))
			c.JSON(ingestStatusCode(kind), gin.H{"error": err.Error(), "kind": kind})
			return
		}

		// Search indexing is bookkeeping on top of a finalized ingestion;
		// its failure does not fail the request.
		ds, dsErr := datasets.Get(c.Request.Context(), datasetID)
		if dsErr == nil {
			cols, colErr := datasets.ListColumns(c.Request.Context(), datasetID)
			if colErr == nil {
				if idxErr := utils.IndexDataset(ctx, ds, cols); idxErr != nil {
					ctx.Logger.Warn("Failed to index dataset for search", zap.Error(idxErr))
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     "Dataset ingested successfully",
			"tableName":   result.TableName,
			"rowCount":    result.RowCount,
			"columnCount": result.ColumnCount,
		})
	}
}

func ingestStatusCode(kind ingest.Kind) int {
	switch kind {
	case ingest.KindFetch:
		return http.StatusNotFound
	case ingest.KindParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
