package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daolmedo/chartistry/internal/entity"
)

// GormDatasetStore persists dataset and column-descriptor metadata. It
// satisfies ingest.DatasetStore and query.DatasetFinder.
type GormDatasetStore struct {
	DB *gorm.DB
}

func (s *GormDatasetStore) Get(ctx context.Context, id uuid.UUID) (*entity.Dataset, error) {
	var ds entity.Dataset
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&ds).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

// Create registers a new pending dataset for an issued upload slot.
func (s *GormDatasetStore) Create(ctx context.Context, ds *entity.Dataset) error {
	return s.DB.WithContext(ctx).Create(ds).Error
}

// ListByUser returns a user's dataset summaries, newest first.
func (s *GormDatasetStore) ListByUser(ctx context.Context, userID string) ([]entity.Dataset, error) {
	var out []entity.Dataset
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&out).Error
	return out, err
}

// ListColumns returns a dataset's column descriptors in column order.
func (s *GormDatasetStore) ListColumns(ctx context.Context, datasetID uuid.UUID) ([]entity.Column, error) {
	var out []entity.Column
	err := s.DB.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("column_index ASC").
		Find(&out).Error
	return out, err
}

// MarkFailed records a terminal ingestion failure.
func (s *GormDatasetStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	now := time.Now().UTC()
	return s.DB.WithContext(ctx).Model(&entity.Dataset{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        entity.StatusFailed,
			"error_message": message,
			"ingested_at":   &now,
		}).Error
}

// Finalize writes the dataset summary update and every column descriptor as
// one transaction. The dataset only becomes completed if all descriptor
// inserts succeed.
func (s *GormDatasetStore) Finalize(ctx context.Context, ds *entity.Dataset, cols []entity.Column) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ds).Error; err != nil {
			return err
		}
		if len(cols) > 0 {
			if err := tx.Create(&cols).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
