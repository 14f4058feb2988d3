package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/collections/internal/audit"
	"github.com/mrlokans/collections/internal/cli"
	"github.com/mrlokans/collections/internal/database/associations"
	auditrepo "github.com/mrlokans/collections/internal/database/audit"
	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/database/companies"
	"github.com/mrlokans/collections/internal/database/transfers"
	"github.com/mrlokans/collections/internal/http"
	"github.com/mrlokans/collections/internal/progress"
	"github.com/mrlokans/collections/internal/scheduler"
	"github.com/mrlokans/collections/internal/tasks"
	"github.com/mrlokans/collections/internal/transfer"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Collection lookups
var _ http.CollectionStore = (*collections.Repository)(nil)
var _ transfer.CollectionLookup = (*collections.Repository)(nil)
var _ cli.CollectionResolver = (*collections.Repository)(nil)

// Company and membership reads
var _ http.CompanyFetcher = (*companies.Repository)(nil)
var _ http.MembershipChecker = (*associations.Repository)(nil)

// Transfer records
var _ http.TransferRecordReader = (*transfers.Repository)(nil)
var _ scheduler.StaleTransferStore = (*transfers.Repository)(nil)

// Audit
var _ http.AuditReader = (*audit.Service)(nil)
var _ transfer.Auditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*auditrepo.Repository)(nil)

// =============================================================================
// Transfer Engine
// =============================================================================

var _ http.TransferEngine = (*transfer.Engine)(nil)
var _ tasks.JobProcessor = (*transfer.Engine)(nil)
var _ http.ProgressReader = (*progress.Tracker)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskStatusReader = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
