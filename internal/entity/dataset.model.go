package entity

import (
	"time"

	"github.com/google/uuid"
)

// Ingestion statuses. A dataset is created as pending when an upload slot is
// issued and moves to exactly one terminal status per ingestion attempt.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Dataset struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	UserID       string     `gorm:"type:varchar(255);not null;index" json:"user_id"`
	FileName     string     `gorm:"type:varchar(255);not null" json:"file_name"`
	StorageKey   string     `gorm:"type:text;not null" json:"storage_key"`
	TableName    string     `gorm:"type:varchar(255)" json:"table_name"`
	RowCount     int64      `gorm:"type:bigint" json:"row_count"`
	ColumnCount  int        `gorm:"type:integer" json:"column_count"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	UploadedAt   time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	IngestedAt   *time.Time `json:"ingested_at"`
	Columns      []Column   `gorm:"foreignKey:DatasetID" json:"columns,omitempty"`
}
