package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/daolmedo/chartistry/internal/appcontext"
	"github.com/daolmedo/chartistry/internal/entity"
)

const defaultUploadURLTTL = time.Hour

func InitContext() (*appcontext.Context, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Warn("No .env file found, using environment variables")
	}

	logger, err := InitLogger()
	if err != nil {
		return nil, err
	}

	db, err := InitDB()
	if err != nil {
		return nil, err
	}

	rowPool, err := InitRowPool()
	if err != nil {
		return nil, err
	}

	gcsClient, err := InitGCSClient()
	if err != nil {
		return nil, err
	}

	meilisearchClient, err := InitMeilisearch()
	if err != nil {
		return nil, err
	}

	ctx := &appcontext.Context{
		DB:     db,
		Logger: logger,

		RowPool: rowPool,

		GCSClient:     gcsClient,
		GCSBucketName: os.Getenv("GCS_BUCKET_NAME"),
		UploadURLTTL:  defaultUploadURLTTL,

		MeilisearchClient: meilisearchClient,

		DefaultQueryLimit: 1000,
	}

	return ctx, nil
}

func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
	if err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	err = db.AutoMigrate(&entity.Dataset{}, &entity.Column{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// InitRowPool opens the pgx pool used for per-upload data tables. It shares
// the metadata database but bypasses gorm: DDL and bulk inserts against
// dynamic tables have no model to bind to.
func InitRowPool() (*pgxpool.Pool, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pgx pool: %w", err)
	}
	return pool, nil
}

func InitLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func InitGCSClient() (*storage.Client, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
	}
	return client, nil
}

func InitMeilisearch() (*meilisearch.Client, error) {
	host := os.Getenv("MEILISEARCH_HOST")
	if host == "" {
		host = "http://localhost:7700"
	}

	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: os.Getenv("MEILISEARCH_API_KEY"),
	})

	_, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        "datasets",
		PrimaryKey: "id",
	})
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	task, err := client.Index("datasets").UpdateFilterableAttributes(&[]string{
		"user_id",
		"type",
		"dataset_id",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update filterable attributes: %w", err)
	}
	if _, err = client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for filterable attributes update: %w", err)
	}

	task, err = client.Index("datasets").UpdateSearchableAttributes(&[]string{
		"name",
		"file_name",
		"table_name",
		"column_type",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update searchable attributes: %w", err)
	}
	if _, err = client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for searchable attributes update: %w", err)
	}

	return client, nil
}
