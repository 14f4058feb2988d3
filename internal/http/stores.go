package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/progress"
	"github.com/mrlokans/collections/internal/transfer"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the methods it calls.

// CollectionStore provides read access to collections and their members.
type CollectionStore interface {
	ListCollections() ([]entities.Collection, error)
	GetCollectionByID(id uuid.UUID) (*entities.Collection, error)
	GetCollectionCompanyIDs(id uuid.UUID, offset, limit int) ([]int, int64, error)
	FindCollectionByName(name string) (*entities.Collection, error)
}

// CompanyFetcher decorates company ids with names and liked state.
type CompanyFetcher interface {
	FetchCompaniesWithLiked(ids []int) ([]entities.CompanyWithLiked, error)
}

// MembershipChecker reports which companies already belong to a collection.
type MembershipChecker interface {
	ExistingCompanyIDs(collectionID uuid.UUID, companyIDs []int) ([]int, error)
}

// TransferEngine starts and runs transfers.
type TransferEngine interface {
	Start(ctx context.Context, req transfer.Request) (*transfer.Handle, error)
	Process(ctx context.Context, job transfer.Job) (transfer.Result, error)
	Abort(job transfer.Job, cause error) transfer.Result
}

// TransferRecordReader reads durable transfer records.
type TransferRecordReader interface {
	GetByID(id uuid.UUID) (*entities.Transfer, error)
}

// ProgressReader reads in-memory transfer progress.
type ProgressReader interface {
	Get(id uuid.UUID) (progress.Entry, error)
	Len() int
}

// TaskQueue enqueues background tasks.
type TaskQueue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// AuditReader lists recorded transfer events.
type AuditReader interface {
	GetTransferEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
}
