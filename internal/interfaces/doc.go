// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CollectionStore: Collection listing and paginated membership (internal/http/stores.go)
//   - CompanyFetcher: Company rows with the liked flag (internal/http/stores.go)
//   - MembershipChecker: Which companies already sit in a collection (internal/http/stores.go)
//   - TransferRecordReader: Durable transfer records (internal/http/stores.go)
//   - StaleTransferStore: Abandoned transfer lookup (internal/scheduler/transfer_reaper.go)
//
// ## Transfer Interfaces
//
//   - CollectionLookup: Collection resolution for the engine (internal/transfer/lookup.go)
//   - Auditor: Records finished transfers (internal/transfer/engine.go)
//   - TransferEngine: Start/Process/Abort used by handlers (internal/http/stores.go)
//   - JobProcessor: Runs queued jobs on a worker (internal/tasks/transfer_companies.go)
//   - ProgressReader: In-memory progress lookups (internal/http/stores.go)
//
// ## Background Task Interfaces
//
//   - TaskQueue / TaskStatusReader: Enqueue and inspect tasks (internal/http)
//   - TaskEnqueuer: Cron-driven enqueueing (internal/scheduler/audit_cleanup.go)
//   - AuditEventCleaner: Audit retention (internal/tasks/cleanup_audit.go)
//
// # Adding a New Collection Role
//
// Roles decide how a transfer treats its source and which collections block
// a target:
//
//  1. Add the Role constant and its Behavior to the policies map in
//     internal/transfer/policy.go
//
//  2. Map the configured collection name to the role in Roles.RoleOf
//
//  3. Add the name to config.Collections so entrypoint creates it at startup
//
// # Adding a New Background Task
//
//  1. Define the task type in internal/tasks/ with a Config() method
//
//     type RecountTask struct{ CollectionID uuid.UUID }
//
//     func (t RecountTask) Config() backlite.QueueConfig
//
//  2. Write a processor and a NewRecountQueue constructor
//
//  3. Register the queue in entrypoint.Run
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
