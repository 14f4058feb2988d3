package entities

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CompanyName string    `gorm:"size:255;index" json:"company_name"`
	CreatedAt   time.Time `json:"-"`
}

func (Company) TableName() string {
	return "companies"
}

// CompanyWithLiked is a company row decorated with its membership in the
// liked collection.
type CompanyWithLiked struct {
	ID          int    `json:"id"`
	CompanyName string `json:"company_name"`
	Liked       bool   `json:"liked"`
}

type Collection struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CollectionName string    `gorm:"size:255;index" json:"collection_name"`
	CreatedAt      time.Time `json:"-"`
}

func (Collection) TableName() string {
	return "company_collections"
}

// Association is a membership edge between a company and a collection.
// At most one row exists per (company, collection) pair.
type Association struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	CompanyID    int       `gorm:"not null;uniqueIndex:idx_company_collection" json:"company_id"`
	CollectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_collection;index" json:"collection_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Association) TableName() string {
	return "company_collection_associations"
}

// Reserved collection names
const (
	CollectionNameLiked  = "Liked Companies List"
	CollectionNameMyList = "My List"
	CollectionNameIgnore = "Companies to Ignore List"
)
