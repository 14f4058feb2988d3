package http

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/entities"
)

// CollectionResponse is a collection page with its decorated companies.
type CollectionResponse struct {
	ID             uuid.UUID                   `json:"id"`
	CollectionName string                      `json:"collection_name"`
	Companies      []entities.CompanyWithLiked `json:"companies"`
	Total          int64                       `json:"total"`
}

// ExistingCompaniesResponse lists companies already present in a target collection.
type ExistingCompaniesResponse struct {
	ExistingCompanyIDs []int `json:"existingCompanyIds"`
}

type CollectionsController struct {
	collections  CollectionStore
	companies    CompanyFetcher
	associations MembershipChecker
	logger       *log.Logger
}

func NewCollectionsController(collections CollectionStore, companies CompanyFetcher, associations MembershipChecker, logger *log.Logger) *CollectionsController {
	return &CollectionsController{
		collections:  collections,
		companies:    companies,
		associations: associations,
		logger:       logger,
	}
}

// ListCollections handles GET /collections
func (cc *CollectionsController) ListCollections(c *gin.Context) {
	list, err := cc.collections.ListCollections()
	if err != nil {
		respondInternalError(c, cc.logger, err, "list collections")
		return
	}
	if list == nil {
		list = []entities.Collection{}
	}
	c.JSON(http.StatusOK, list)
}

// GetCollection handles GET /collections/:id?offset=0&limit=10
func (cc *CollectionsController) GetCollection(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	offset, limit, ok := parsePagination(c)
	if !ok {
		return
	}

	collection, err := cc.collections.GetCollectionByID(id)
	if errors.Is(err, collections.ErrNotFound) {
		respondNotFound(c, "collection")
		return
	}
	if err != nil {
		respondInternalError(c, cc.logger, err, "get collection")
		return
	}

	ids, total, err := cc.collections.GetCollectionCompanyIDs(id, offset, limit)
	if err != nil {
		respondInternalError(c, cc.logger, err, "list collection companies")
		return
	}

	companies, err := cc.companies.FetchCompaniesWithLiked(ids)
	if err != nil {
		respondInternalError(c, cc.logger, err, "fetch companies")
		return
	}
	if companies == nil {
		companies = []entities.CompanyWithLiked{}
	}

	c.JSON(http.StatusOK, CollectionResponse{
		ID:             collection.ID,
		CollectionName: collection.CollectionName,
		Companies:      companies,
		Total:          total,
	})
}

// CheckExisting handles GET /collections/check-existing/:sourceId/:targetId/:companyId
// Reports whether the company is already in the target collection, so that a
// client can warn before a transfer.
func (cc *CollectionsController) CheckExisting(c *gin.Context) {
	sourceID, ok := parseUUIDParam(c, "sourceId")
	if !ok {
		return
	}
	targetID, ok := parseUUIDParam(c, "targetId")
	if !ok {
		return
	}
	companyID, ok := parseIntParam(c, "companyId")
	if !ok {
		return
	}

	for _, id := range []uuid.UUID{sourceID, targetID} {
		_, err := cc.collections.GetCollectionByID(id)
		if errors.Is(err, collections.ErrNotFound) {
			respondNotFound(c, "collection")
			return
		}
		if err != nil {
			respondInternalError(c, cc.logger, err, "get collection")
			return
		}
	}

	existing, err := cc.associations.ExistingCompanyIDs(targetID, []int{companyID})
	if err != nil {
		respondInternalError(c, cc.logger, err, "check existing companies")
		return
	}

	c.JSON(http.StatusOK, ExistingCompaniesResponse{ExistingCompanyIDs: existing})
}
