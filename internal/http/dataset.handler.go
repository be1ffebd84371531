package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daolmedo/chartistry/internal/appcontext"
	"github.com/daolmedo/chartistry/internal/entity"
	"github.com/daolmedo/chartistry/internal/storage"
)

type uploadRequest struct {
	UserID   string `json:"userId" binding:"required"`
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType"`
}

// UploadDataset issues an upload slot: it registers a pending dataset and
// returns a signed URL the browser PUTs the CSV bytes to directly.
func UploadDataset(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: userId and fileName"})
			return
		}

		if req.FileType == "" {
			req.FileType = "text/csv"
		}
		if !isCSVUpload(req.FileName, req.FileType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only CSV files are allowed"})
			return
		}

		fileID := uuid.New()
		safeName := strings.NewReplacer(" ", "_", "/", "_").Replace(req.FileName)
		storageKey := fmt.Sprintf("%s/%s_%s", req.UserID, fileID, safeName)

		blobs := &storage.GCSBlobStore{Client: ctx.GCSClient, Bucket: ctx.GCSBucketName}
		uploadURL, err := blobs.SignedUploadURL(storageKey, req.FileType, ctx.UploadURLTTL)
		if err != nil {
			ctx.Logger.Error("Failed to sign upload URL", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
			return
		}

		dataset := entity.Dataset{
			UserID:     req.UserID,
			FileName:   req.FileName,
			StorageKey: storageKey,
			Status:     entity.StatusPending,
		}
		datasets := &storage.GormDatasetStore{DB: ctx.DB}
		if err := datasets.Create(c.Request.Context(), &dataset); err != nil {
			ctx.Logger.Error("Failed to create dataset record", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create dataset record"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"uploadUrl":  uploadURL,
			"datasetId":  dataset.ID,
			"storageKey": storageKey,
			"expiresIn":  int(ctx.UploadURLTTL.Seconds()),
		})
	}
}

// ListDatasets returns a user's dataset summaries.
func ListDatasets(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId parameter"})
			return
		}

		datasets := &storage.GormDatasetStore{DB: ctx.DB}
		out, err := datasets.ListByUser(c.Request.Context(), userID)
		if err != nil {
			ctx.Logger.Error("Failed to list datasets", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list datasets"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"datasets": out})
	}
}

// GetDatasetColumns returns the column descriptors recorded at ingestion.
func GetDatasetColumns(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		datasetID, err := uuid.Parse(c.Param("datasetID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset ID"})
			return
		}

		datasets := &storage.GormDatasetStore{DB: ctx.DB}
		if _, err := datasets.Get(c.Request.Context(), datasetID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
			return
		}

		columns, err := datasets.ListColumns(c.Request.Context(), datasetID)
		if err != nil {
			ctx.Logger.Error("Failed to fetch columns", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch columns"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"columns": columns})
	}
}

// GetDatasetStats returns per-user aggregates for the dashboard: dataset and
// row totals plus the logical-type distribution across ingested columns.
func GetDatasetStats(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId parameter"})
			return
		}

		var totalDatasetCount int64
		ctx.DB.Model(&entity.Dataset{}).Where("user_id = ?", userID).Count(&totalDatasetCount)

		var completedDatasetCount int64
		ctx.DB.Model(&entity.Dataset{}).Where("user_id = ? AND status = ?", userID, entity.StatusCompleted).Count(&completedDatasetCount)

		var totalRowCount int64
		ctx.DB.Model(&entity.Dataset{}).Select("COALESCE(SUM(row_count), 0)").
			Where("user_id = ? AND status = ?", userID, entity.StatusCompleted).Scan(&totalRowCount)

		var typeDistributionRaw []struct {
			LogicalType string
			Count       int64
		}
		ctx.DB.Table("columns").
			Select("columns.logical_type, COUNT(*) as count").
			Joins("JOIN datasets ON datasets.id = columns.dataset_id").
			Where("datasets.user_id = ? AND datasets.status = ?", userID, entity.StatusCompleted).
			Group("columns.logical_type").
			Scan(&typeDistributionRaw)

		typeDistribution := gin.H{}
		for _, item := range typeDistributionRaw {
			typeDistribution[item.LogicalType] = item.Count
		}

		c.JSON(http.StatusOK, gin.H{
			"totalDatasetCount":      totalDatasetCount,
			"completedDatasetCount":  completedDatasetCount,
			"totalRowCount":          totalRowCount,
			"columnTypeDistribution": typeDistribution,
		})
	}
}

func isCSVUpload(fileName, fileType string) bool {
	if strings.HasPrefix(fileType, "text/csv") {
		return true
	}
	return strings.ToLower(filepath.Ext(fileName)) == ".csv"
}
