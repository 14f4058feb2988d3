// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, reserved collection seeding
//	├── collections/     # Collection registry lookups and paginated membership
//	├── associations/    # Company/collection membership edges
//	├── companies/       # Company rows decorated with the liked flag
//	├── transfers/       # Durable transfer records
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./collections.db")
//
//	collectionsRepo := collections.NewRepository(db.DB)
//	associationsRepo := associations.NewRepository(db.DB)
//
//	collection, err := collectionsRepo.GetCollectionByID(id)
//	exists, err := associationsRepo.Exists(companyID, collection.ID)
//
// Repositories that take part in per-item transfer transactions expose
// WithTx(tx *gorm.DB), returning a copy bound to the transaction.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check in internal/interfaces/checks.go
package database
