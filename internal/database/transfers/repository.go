// Package transfers provides database operations for durable transfer records.
//
// Status transitions are guarded in SQL so that a record never leaves a
// terminal status once it has reached one.
package transfers

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/collections/internal/entities"
)

// ErrNotFound is returned when a transfer id does not exist.
var ErrNotFound = errors.New("transfer not found")

// Repository handles all transfer record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new transfers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new transfer record in the in_progress status.
func (r *Repository) Create(transfer *entities.Transfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	transfer.Status = entities.TransferStatusInProgress
	transfer.CompletedCompanies = 0
	return r.db.Create(transfer).Error
}

// GetByID returns the transfer or ErrNotFound.
func (r *Repository) GetByID(id uuid.UUID) (*entities.Transfer, error) {
	var transfer entities.Transfer
	err := r.db.Where("id = ?", id).First(&transfer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

// IncrementCompleted adds one to completed_companies, capped at total_companies.
func (r *Repository) IncrementCompleted(id uuid.UUID) error {
	return r.db.Model(&entities.Transfer{}).
		Where("id = ? AND completed_companies < total_companies", id).
		Updates(map[string]any{
			"completed_companies": gorm.Expr("completed_companies + 1"),
			"updated_at":          time.Now(),
		}).Error
}

// Touch records activity on an in-progress transfer without changing its
// counters.
func (r *Repository) Touch(id uuid.UUID) error {
	return r.db.Model(&entities.Transfer{}).
		Where("id = ? AND status = ?", id, entities.TransferStatusInProgress).
		Update("updated_at", time.Now()).Error
}

// Finish moves an in-progress transfer to a terminal status. It returns false
// when the transfer was already terminal (or does not exist).
func (r *Repository) Finish(id uuid.UUID, status entities.TransferStatus, errorMsg string) (bool, error) {
	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	result := r.db.Model(&entities.Transfer{}).
		Where("id = ? AND status = ?", id, entities.TransferStatusInProgress).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

// FindStale returns in-progress transfers not updated since before.
func (r *Repository) FindStale(before time.Time) ([]entities.Transfer, error) {
	var stale []entities.Transfer
	err := r.db.Where("status = ? AND updated_at < ?", entities.TransferStatusInProgress, before).
		Order("updated_at ASC").
		Find(&stale).Error
	return stale, err
}
