// Package companies provides read access to company rows for collection pages.
package companies

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/collections/internal/entities"
)

// Repository handles company database operations.
type Repository struct {
	db        *gorm.DB
	likedName string
}

// NewRepository creates a companies repository. likedName is the name of the
// collection whose members are reported as liked.
func NewRepository(db *gorm.DB, likedName string) *Repository {
	return &Repository{db: db, likedName: likedName}
}

// FetchCompaniesWithLiked loads the companies with the given ids in input order,
// flagging those that belong to the liked collection. Unknown ids are omitted.
func (r *Repository) FetchCompaniesWithLiked(ids []int) ([]entities.CompanyWithLiked, error) {
	if len(ids) == 0 {
		return []entities.CompanyWithLiked{}, nil
	}

	var rows []entities.Company
	if err := r.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	var likedIDs []int
	err := r.db.Model(&entities.Association{}).
		Joins("JOIN company_collections ON company_collections.id = company_collection_associations.collection_id").
		Where("company_collections.collection_name = ? AND company_collection_associations.company_id IN ?", r.likedName, ids).
		Pluck("company_collection_associations.company_id", &likedIDs).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int]entities.Company, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	liked := make(map[int]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}

	result := make([]entities.CompanyWithLiked, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		result = append(result, entities.CompanyWithLiked{
			ID:          c.ID,
			CompanyName: c.CompanyName,
			Liked:       liked[id],
		})
	}
	return result, nil
}

// UpsertCompanies inserts companies, updating names of ids that already exist.
func (r *Repository) UpsertCompanies(companies []entities.Company) error {
	if len(companies) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_name"}),
	}).CreateInBatches(companies, 500).Error
}

// Count returns the number of companies.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Company{}).Count(&count).Error
	return count, err
}
