package entities

import (
	"time"

	"github.com/google/uuid"
)

type TransferStatus string

const (
	TransferStatusInProgress TransferStatus = "in_progress"
	TransferStatusCompleted  TransferStatus = "completed"
	TransferStatusFailed     TransferStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed
}

// Transfer is the durable record of a bulk transfer between two collections.
type Transfer struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SourceCollectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"source_collection_id"`
	TargetCollectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"target_collection_id"`
	Status             TransferStatus `gorm:"size:20;index" json:"status"`
	TotalCompanies     int            `gorm:"not null" json:"total_companies"`
	CompletedCompanies int            `gorm:"not null;default:0" json:"completed_companies"`
	Error              string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
}

func (Transfer) TableName() string {
	return "transfers"
}
