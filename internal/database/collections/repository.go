// Package collections provides database operations for the collection registry.
//
// # Usage
//
//	repo := collections.NewRepository(db)
//	collection, err := repo.GetCollectionByID(id)
//	ids, total, err := repo.GetCollectionCompanyIDs(id, 0, 10)
package collections

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/collections/internal/entities"
)

// ErrNotFound is returned when a collection id does not exist.
var ErrNotFound = errors.New("collection not found")

// Repository handles all collection database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new collections repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListCollections returns every collection in creation order.
func (r *Repository) ListCollections() ([]entities.Collection, error) {
	var collections []entities.Collection
	err := r.db.Order("created_at ASC, collection_name ASC").Find(&collections).Error
	return collections, err
}

// GetCollectionByID returns the collection or ErrNotFound.
func (r *Repository) GetCollectionByID(id uuid.UUID) (*entities.Collection, error) {
	var collection entities.Collection
	err := r.db.Where("id = ?", id).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// FindCollectionByName returns the first collection with the given name,
// or nil without an error when there is none.
func (r *Repository) FindCollectionByName(name string) (*entities.Collection, error) {
	var collection entities.Collection
	err := r.db.Where("collection_name = ?", name).Order("created_at ASC").First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetCollectionCompanyIDs returns a page of company ids that belong to the
// collection, together with the total membership count.
func (r *Repository) GetCollectionCompanyIDs(id uuid.UUID, offset, limit int) ([]int, int64, error) {
	var total int64
	query := r.db.Model(&entities.Association{}).
		Joins("JOIN companies ON companies.id = company_collection_associations.company_id").
		Where("company_collection_associations.collection_id = ?", id).
		Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset < 0 {
		offset = 0
	}

	var ids []int
	err := query.
		Order("company_collection_associations.id ASC").
		Offset(offset).
		Limit(limit).
		Pluck("company_collection_associations.company_id", &ids).Error
	return ids, total, err
}
