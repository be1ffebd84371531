package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daolmedo/chartistry/internal/appcontext"
	"github.com/daolmedo/chartistry/internal/query"
	"github.com/daolmedo/chartistry/internal/storage"
)

func newGuard(ctx *appcontext.Context) *query.Guard {
	return &query.Guard{
		Datasets:     &storage.GormDatasetStore{DB: ctx.DB},
		Rows:         &storage.PostgresRowStore{Pool: ctx.RowPool},
		DefaultLimit: ctx.DefaultQueryLimit,
	}
}

// GetDatasetData returns up to limit rows of an ingested table, restricted to
// its data columns (fetch mode).
func GetDatasetData(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		datasetID, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		tableName := c.Query("tableName")
		if tableName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing tableName parameter"})
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
				return
			}
		}

		result, err := newGuard(ctx).Fetch(c.Request.Context(), datasetID, tableName, limit)
		if err != nil {
			respondQueryError(c, ctx, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"columns": result.Columns, "rows": result.Rows})
	}
}

type executeRequest struct {
	TableName string `json:"tableName" binding:"required"`
	SQL       string `json:"sql" binding:"required"`
	Limit     int    `json:"limit"`
}

// ExecuteDatasetQuery validates caller SQL and runs it bounded (execute mode).
func ExecuteDatasetQuery(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		datasetID, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		var req executeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: tableName and sql"})
			return
		}
		if req.Limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}

		result, err := newGuard(ctx).Execute(c.Request.Context(), datasetID, req.TableName, req.SQL, req.Limit)
		if err != nil {
			respondQueryError(c, ctx, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"columns": result.Columns, "rows": result.Rows})
	}
}

func respondQueryError(c *gin.Context, ctx *appcontext.Context, err error) {
	kind := query.KindOf(err)
	switch kind {
	case query.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found or not yet completed", "kind": kind})
	case query.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "kind": kind})
	default:
		ctx.Logger.Error("Query execution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Query execution failed", "kind": kind})
	}
}
