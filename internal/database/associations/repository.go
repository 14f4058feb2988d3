// Package associations provides database operations for company/collection
// membership edges.
//
// # Usage
//
//	repo := associations.NewRepository(db)
//	assoc, err := repo.Find(companyID, collectionID)
//
//	err = db.Transaction(func(tx *gorm.DB) error {
//	    return repo.WithTx(tx).Delete(assoc)
//	})
package associations

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/collections/internal/entities"
)

// Repository handles all association database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new associations repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Find returns the association for the pair, or nil without an error if absent.
func (r *Repository) Find(companyID int, collectionID uuid.UUID) (*entities.Association, error) {
	var assoc entities.Association
	err := r.db.Where("company_id = ? AND collection_id = ?", companyID, collectionID).First(&assoc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assoc, nil
}

// Exists reports whether the company belongs to the collection.
func (r *Repository) Exists(companyID int, collectionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Association{}).
		Where("company_id = ? AND collection_id = ?", companyID, collectionID).
		Count(&count).Error
	return count > 0, err
}

// Create adds the company to the collection.
func (r *Repository) Create(companyID int, collectionID uuid.UUID) (*entities.Association, error) {
	assoc := &entities.Association{CompanyID: companyID, CollectionID: collectionID}
	if err := r.db.Create(assoc).Error; err != nil {
		return nil, err
	}
	return assoc, nil
}

// Delete removes a single association row.
func (r *Repository) Delete(assoc *entities.Association) error {
	return r.db.Delete(&entities.Association{}, assoc.ID).Error
}

// ExistingCompanyIDs filters companyIDs down to those already in the collection,
// preserving input order and dropping duplicates.
func (r *Repository) ExistingCompanyIDs(collectionID uuid.UUID, companyIDs []int) ([]int, error) {
	if len(companyIDs) == 0 {
		return []int{}, nil
	}

	var found []int
	err := r.db.Model(&entities.Association{}).
		Where("collection_id = ? AND company_id IN ?", collectionID, companyIDs).
		Pluck("company_id", &found).Error
	if err != nil {
		return nil, err
	}

	present := make(map[int]bool, len(found))
	for _, id := range found {
		present[id] = true
	}

	result := make([]int, 0, len(found))
	for _, id := range companyIDs {
		if present[id] {
			result = append(result, id)
			delete(present, id)
		}
	}
	return result, nil
}

// AddCompanies bulk-inserts memberships, skipping pairs that already exist.
func (r *Repository) AddCompanies(collectionID uuid.UUID, companyIDs []int) error {
	if len(companyIDs) == 0 {
		return nil
	}
	rows := make([]entities.Association, 0, len(companyIDs))
	for _, id := range companyIDs {
		rows = append(rows, entities.Association{CompanyID: id, CollectionID: collectionID})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 500).Error
}

// CountInCollection returns the number of companies in the collection.
func (r *Repository) CountInCollection(collectionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Association{}).Where("collection_id = ?", collectionID).Count(&count).Error
	return count, err
}
