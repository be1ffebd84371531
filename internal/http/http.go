package http

import (
	"github.com/gin-gonic/gin"

	"github.com/daolmedo/chartistry/internal/appcontext"
	"github.com/daolmedo/chartistry/internal/http/middleware"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	v1 := h.engine.Group("/api/v1")
	h.setupDatasetRoutes(v1)
	h.setupSearchRoutes(v1)
}

func (h *APIService) setupDatasetRoutes(group *gin.RouterGroup) {
	datasets := group.Group("/datasets")

	datasets.POST("/upload", UploadDataset(h.context))
	datasets.GET("", ListDatasets(h.context))
	datasets.GET("/stats", GetDatasetStats(h.context))
	datasets.POST("/:datasetID/ingest", IngestDataset(h.context))
	datasets.GET("/:datasetID/columns", GetDatasetColumns(h.context))
	datasets.GET("/:datasetID/data", GetDatasetData(h.context))
	datasets.POST("/:datasetID/query", ExecuteDatasetQuery(h.context))
}

func (h *APIService) setupSearchRoutes(group *gin.RouterGroup) {
	group.GET("/search", SearchDatasets(h.context))
}
