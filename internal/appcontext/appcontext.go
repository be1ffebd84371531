package appcontext

import (
	"time"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	// RowPool is the data-plane connection pool used for the dynamically
	// created per-upload tables; DB (gorm) owns only the metadata records.
	RowPool *pgxpool.Pool

	GCSClient     *storage.Client
	GCSBucketName string
	UploadURLTTL  time.Duration

	MeilisearchClient *meilisearch.Client

	DefaultQueryLimit int
}
