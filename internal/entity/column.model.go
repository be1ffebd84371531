package entity

import (
	"github.com/google/uuid"
)

// Column is the descriptive record written for every ingested column. It is
// created alongside dataset finalization and never mutated afterwards.
type Column struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	DatasetID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_column_dataset_index" json:"dataset_id"`
	ColumnIndex   int       `gorm:"type:integer;not null;uniqueIndex:idx_column_dataset_index" json:"column_index"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	SanitizedName string    `gorm:"type:varchar(255);not null" json:"sanitized_name"`
	LogicalType   string    `gorm:"type:varchar(20);not null" json:"logical_type"`
	StorageType   string    `gorm:"type:varchar(40);not null" json:"storage_type"`
	Nullable      bool      `gorm:"type:boolean" json:"nullable"`
	SampleValues  string    `gorm:"type:jsonb" json:"sample_values"`
	DistinctCount int64     `gorm:"type:bigint" json:"distinct_count"`
}
