package http

import (
	"github.com/charmbracelet/log"

	"github.com/mrlokans/collections/internal/database"
	"github.com/mrlokans/collections/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	Collections  CollectionStore
	Companies    CompanyFetcher
	Associations MembershipChecker

	// Names of the liked, my-list and ignore collections, checked by /health
	ReservedCollections []string

	// Transfers
	Engine          TransferEngine
	TransferRecords TransferRecordReader
	Progress        ProgressReader

	// Task queue client (optional). Without it transfers run inline.
	TaskClient *tasks.Client

	// Audit trail (optional)
	Audit AuditReader

	Logger *log.Logger

	// Origins allowed to call the API from a browser; empty disables CORS
	AllowedOrigins []string

	// Application info
	Version string
}
