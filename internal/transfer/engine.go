// Package transfer moves batches of companies between collections.
//
// A transfer is split in two phases. Start validates the request, creates the
// durable transfer record and the progress entry, and returns a Job. Process
// runs the per-item loop for a Job, one database transaction per company id,
// advancing progress after every committed item. Transfer runs both phases
// inline.
//
// # Usage
//
//	engine := transfer.NewEngine(db.DB, collectionsRepo, tracker, transfer.DefaultRoles(), opts, logger)
//	handle, err := engine.Start(ctx, req)
//	result, err := engine.Process(ctx, handle.Job)
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/collections/internal/database/associations"
	"github.com/mrlokans/collections/internal/database/transfers"
	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/progress"
)

// Auditor records the outcome of finished transfers.
type Auditor interface {
	LogTransfer(transferID uuid.UUID, description string, counts map[string]int, err error)
}

// Options tunes engine limits and the per-item retry policy.
type Options struct {
	// MaxCompanyIDs rejects larger requests with ErrValidation. Zero means no limit.
	MaxCompanyIDs int
	// ItemAttempts is the number of tries per company id. Values below one mean one.
	ItemAttempts int
	// ItemBackoff is the pause between tries of the same company id.
	ItemBackoff time.Duration
}

// Request asks to move CompanyIDs from the source to the target collection.
// Duplicate ids are processed independently.
type Request struct {
	SourceCollectionID uuid.UUID `json:"sourceCollectionId"`
	TargetCollectionID uuid.UUID `json:"targetCollectionId"`
	CompanyIDs         []int     `json:"companyIds"`
}

// Job is the serializable unit of work produced by Start.
type Job struct {
	TransferID         uuid.UUID `json:"transfer_id"`
	SourceCollectionID uuid.UUID `json:"source_collection_id"`
	TargetCollectionID uuid.UUID `json:"target_collection_id"`
	CompanyIDs         []int     `json:"company_ids"`
}

// Handle is returned by Start once the transfer exists.
type Handle struct {
	Job      Job
	Progress progress.Entry
}

// Result is the final state of a processed transfer.
type Result struct {
	Status     entities.TransferStatus `json:"status"`
	Completed  int                     `json:"completed"`
	Total      int                     `json:"total"`
	TransferID uuid.UUID               `json:"transferId"`
	Skipped    int                     `json:"skipped"`
	Ignored    int                     `json:"ignored"`
	Failed     int                     `json:"failed"`
}

// Entry returns the progress view of the result.
func (r Result) Entry() progress.Entry {
	return progress.Entry{
		Status:     r.Status,
		Completed:  r.Completed,
		Total:      r.Total,
		TransferID: r.TransferID,
	}
}

type outcome int

const (
	outcomeMoved outcome = iota
	outcomeRemoved
	outcomeMissing
	outcomeIgnored
)

// Engine runs transfers against the association store.
type Engine struct {
	db           *gorm.DB
	collections  CollectionLookup
	associations *associations.Repository
	transfers    *transfers.Repository
	tracker      *progress.Tracker
	roles        Roles
	opts         Options
	logger       *log.Logger
	auditor      Auditor

	mu      sync.Mutex
	running map[uuid.UUID]struct{}
}

// NewEngine creates an engine. Associations and transfer records are stored
// through db; collections are resolved through lookup.
func NewEngine(db *gorm.DB, lookup CollectionLookup, tracker *progress.Tracker, roles Roles, opts Options, logger *log.Logger) *Engine {
	if opts.ItemAttempts < 1 {
		opts.ItemAttempts = 1
	}
	return &Engine{
		db:           db,
		collections:  lookup,
		associations: associations.NewRepository(db),
		transfers:    transfers.NewRepository(db),
		tracker:      tracker,
		roles:        roles,
		opts:         opts,
		logger:       logger,
		running:      make(map[uuid.UUID]struct{}),
	}
}

// SetAuditor sets the audit sink for finished transfers (optional).
func (e *Engine) SetAuditor(a Auditor) {
	e.auditor = a
}

// Tracker returns the progress tracker the engine reports to.
func (e *Engine) Tracker() *progress.Tracker {
	return e.tracker
}

// Start validates the request and creates the transfer record and its
// progress entry. No state is created when either collection is missing.
func (e *Engine) Start(ctx context.Context, req Request) (*Handle, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineFailure, err)
	}

	if _, err := e.resolveCollection(req.SourceCollectionID); err != nil {
		return nil, e.setupError(err)
	}
	if _, err := e.resolveCollection(req.TargetCollectionID); err != nil {
		return nil, e.setupError(err)
	}

	record := &entities.Transfer{
		SourceCollectionID: req.SourceCollectionID,
		TargetCollectionID: req.TargetCollectionID,
		TotalCompanies:     len(req.CompanyIDs),
	}
	if err := e.transfers.Create(record); err != nil {
		return nil, fmt.Errorf("%w: create transfer record: %v", ErrEngineFailure, err)
	}

	entry := e.tracker.Create(record.ID, record.TotalCompanies)

	e.logger.Info("transfer started",
		"transfer_id", record.ID,
		"source", req.SourceCollectionID,
		"target", req.TargetCollectionID,
		"total", record.TotalCompanies)

	ids := make([]int, len(req.CompanyIDs))
	copy(ids, req.CompanyIDs)

	return &Handle{
		Job: Job{
			TransferID:         record.ID,
			SourceCollectionID: req.SourceCollectionID,
			TargetCollectionID: req.TargetCollectionID,
			CompanyIDs:         ids,
		},
		Progress: entry,
	}, nil
}

// Transfer runs Start and Process inline and returns the final state.
func (e *Engine) Transfer(ctx context.Context, req Request) (Result, error) {
	handle, err := e.Start(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return e.Process(ctx, handle.Job)
}

// Process runs the per-item loop for a job created by Start. Item failures are
// logged and counted; only failures outside the loop return an error, in
// which case the transfer is marked failed. Committed items are never rolled
// back. A job whose transfer already finished, or is being processed by
// another call, is left untouched and reported with ErrAlreadyFinished or
// ErrAlreadyRunning.
func (e *Engine) Process(ctx context.Context, job Job) (Result, error) {
	result := Result{
		Status:     entities.TransferStatusInProgress,
		Total:      len(job.CompanyIDs),
		TransferID: job.TransferID,
	}

	if err := e.claim(job); err != nil {
		if errors.Is(err, ErrAlreadyFinished) || errors.Is(err, ErrAlreadyRunning) {
			e.logger.Warn("transfer not processed", "transfer_id", job.TransferID, "err", err)
			return e.current(result), err
		}
		return e.fail(result, err)
	}
	defer e.release(job.TransferID)

	source, err := e.resolveCollection(job.SourceCollectionID)
	if err != nil {
		return e.fail(result, err)
	}
	if _, err := e.resolveCollection(job.TargetCollectionID); err != nil {
		return e.fail(result, err)
	}

	// Removal from the source itself never consults the ignore list.
	var blockers []uuid.UUID
	if job.SourceCollectionID != job.TargetCollectionID {
		blockers, err = e.blockingCollectionIDs()
		if err != nil {
			return e.fail(result, err)
		}
	}
	behavior := BehaviorOf(e.roles.RoleOf(source))

	for _, companyID := range job.CompanyIDs {
		if err := ctx.Err(); err != nil {
			return e.fail(result, fmt.Errorf("interrupted: %w", err))
		}

		out, err := e.processWithRetry(ctx, job, companyID, behavior, blockers)
		if err != nil {
			result.Failed++
			e.logger.Warn("transfer item failed",
				"transfer_id", job.TransferID,
				"err", &ItemError{CompanyID: companyID, Err: err})
			e.touch(job.TransferID)
			continue
		}

		switch out {
		case outcomeMoved, outcomeRemoved:
			result.Completed++
			if _, err := e.tracker.Advance(job.TransferID); err != nil {
				e.logger.Warn("progress entry missing", "transfer_id", job.TransferID, "err", err)
			}
		case outcomeMissing:
			result.Skipped++
			e.touch(job.TransferID)
			e.logger.Debug("company not in source collection, skipping",
				"transfer_id", job.TransferID,
				"company_id", companyID,
				"source", job.SourceCollectionID)
		case outcomeIgnored:
			result.Ignored++
			e.touch(job.TransferID)
			e.logger.Debug("company is ignored, skipping",
				"transfer_id", job.TransferID,
				"company_id", companyID)
		}
	}

	return e.complete(result)
}

// Abort marks a started transfer failed without processing it, e.g. when the
// job could not be handed to a worker.
func (e *Engine) Abort(job Job, cause error) Result {
	result, _ := e.fail(Result{
		Status:     entities.TransferStatusInProgress,
		Total:      len(job.CompanyIDs),
		TransferID: job.TransferID,
	}, cause)
	return result
}

func (e *Engine) validate(req Request) error {
	if req.SourceCollectionID == uuid.Nil || req.TargetCollectionID == uuid.Nil {
		return fmt.Errorf("%w: source and target collection ids are required", ErrValidation)
	}
	if req.CompanyIDs == nil {
		return fmt.Errorf("%w: companyIds is required", ErrValidation)
	}
	if e.opts.MaxCompanyIDs > 0 && len(req.CompanyIDs) > e.opts.MaxCompanyIDs {
		return fmt.Errorf("%w: at most %d company ids per transfer, got %d",
			ErrValidation, e.opts.MaxCompanyIDs, len(req.CompanyIDs))
	}
	return nil
}

func (e *Engine) setupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrEngineFailure, err)
}

// claim marks the job as running in this process and makes sure it has a live
// progress entry. The record is touched so that staleness counts from pickup.
func (e *Engine) claim(job Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.running[job.TransferID]; ok {
		return ErrAlreadyRunning
	}
	if err := e.ensureProgress(job); err != nil {
		return err
	}
	if err := e.transfers.Touch(job.TransferID); err != nil {
		return fmt.Errorf("touch transfer record: %w", err)
	}
	e.running[job.TransferID] = struct{}{}
	return nil
}

func (e *Engine) release(id uuid.UUID) {
	e.mu.Lock()
	delete(e.running, id)
	e.mu.Unlock()
}

// touch keeps the record from looking abandoned while items that do not
// advance the counter are processed.
func (e *Engine) touch(id uuid.UUID) {
	if err := e.transfers.Touch(id); err != nil {
		e.logger.Warn("failed to touch transfer record", "transfer_id", id, "err", err)
	}
}

// ensureProgress recreates a missing progress entry from the durable record,
// which happens when the job outlives the process that started it.
func (e *Engine) ensureProgress(job Job) error {
	if entry, err := e.tracker.Get(job.TransferID); err == nil {
		if entry.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", ErrAlreadyFinished, entry.Status)
		}
		return nil
	}
	record, err := e.transfers.GetByID(job.TransferID)
	if err != nil {
		return fmt.Errorf("load transfer record: %w", err)
	}
	if record.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyFinished, record.Status)
	}
	e.tracker.Restore(progress.Entry{
		Status:     record.Status,
		Completed:  record.CompletedCompanies,
		Total:      record.TotalCompanies,
		TransferID: record.ID,
	})
	return nil
}

func (e *Engine) processWithRetry(ctx context.Context, job Job, companyID int, behavior Behavior, blockers []uuid.UUID) (outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= e.opts.ItemAttempts; attempt++ {
		out, err := e.processItem(job, companyID, behavior, blockers)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == e.opts.ItemAttempts {
			break
		}
		e.logger.Debug("retrying transfer item",
			"transfer_id", job.TransferID,
			"company_id", companyID,
			"attempt", attempt,
			"err", err)
		select {
		case <-ctx.Done():
			return 0, lastErr
		case <-time.After(e.opts.ItemBackoff):
		}
	}
	return 0, lastErr
}

// processItem moves one company inside a single database transaction.
func (e *Engine) processItem(job Job, companyID int, behavior Behavior, blockers []uuid.UUID) (outcome, error) {
	var out outcome
	err := e.db.Transaction(func(tx *gorm.DB) error {
		assocs := e.associations.WithTx(tx)

		sourceAssoc, err := assocs.Find(companyID, job.SourceCollectionID)
		if err != nil {
			return fmt.Errorf("find source association: %w", err)
		}
		if sourceAssoc == nil {
			out = outcomeMissing
			return nil
		}

		if job.SourceCollectionID == job.TargetCollectionID {
			if err := assocs.Delete(sourceAssoc); err != nil {
				return fmt.Errorf("remove association: %w", err)
			}
			out = outcomeRemoved
			return e.transfers.WithTx(tx).IncrementCompleted(job.TransferID)
		}

		for _, blockerID := range blockers {
			blocked, err := assocs.Exists(companyID, blockerID)
			if err != nil {
				return fmt.Errorf("check ignore list: %w", err)
			}
			if blocked {
				out = outcomeIgnored
				return nil
			}
		}

		exists, err := assocs.Exists(companyID, job.TargetCollectionID)
		if err != nil {
			return fmt.Errorf("check target association: %w", err)
		}
		if !exists {
			if _, err := assocs.Create(companyID, job.TargetCollectionID); err != nil {
				return fmt.Errorf("create target association: %w", err)
			}
		}

		if !behavior.KeepSource {
			if err := assocs.Delete(sourceAssoc); err != nil {
				return fmt.Errorf("remove source association: %w", err)
			}
		}

		out = outcomeMoved
		return e.transfers.WithTx(tx).IncrementCompleted(job.TransferID)
	})
	return out, err
}

func (e *Engine) complete(result Result) (Result, error) {
	updated, err := e.transfers.Finish(result.TransferID, entities.TransferStatusCompleted, "")
	if err != nil {
		return e.fail(result, fmt.Errorf("finish transfer record: %w", err))
	}
	if !updated {
		e.logger.Warn("transfer record was already terminal", "transfer_id", result.TransferID)
	}
	if _, err := e.tracker.SetStatus(result.TransferID, entities.TransferStatusCompleted); err != nil {
		e.logger.Warn("progress entry missing", "transfer_id", result.TransferID, "err", err)
	}

	result = e.snapshot(result, entities.TransferStatusCompleted)

	e.logger.Info("transfer finished",
		"transfer_id", result.TransferID,
		"status", result.Status,
		"completed", result.Completed,
		"total", result.Total,
		"skipped", result.Skipped,
		"ignored", result.Ignored,
		"failed", result.Failed)
	e.audit(result, nil)
	return result, nil
}

func (e *Engine) fail(result Result, cause error) (Result, error) {
	e.logger.Error("transfer failed", "transfer_id", result.TransferID, "err", cause)

	if _, err := e.tracker.SetStatus(result.TransferID, entities.TransferStatusFailed); err != nil {
		e.tracker.Restore(progress.Entry{
			Status:     entities.TransferStatusFailed,
			Completed:  result.Completed,
			Total:      result.Total,
			TransferID: result.TransferID,
		})
	}
	if _, err := e.transfers.Finish(result.TransferID, entities.TransferStatusFailed, cause.Error()); err != nil {
		e.logger.Error("failed to mark transfer record failed", "transfer_id", result.TransferID, "err", err)
	}

	result = e.snapshot(result, entities.TransferStatusFailed)
	e.audit(result, cause)
	return result, fmt.Errorf("%w: %v", ErrEngineFailure, cause)
}

// current reports the stored state of a transfer this call did not process.
func (e *Engine) current(result Result) Result {
	if entry, err := e.tracker.Get(result.TransferID); err == nil {
		result.Status = entry.Status
		result.Completed = entry.Completed
		result.Total = entry.Total
		return result
	}
	if record, err := e.transfers.GetByID(result.TransferID); err == nil {
		result.Status = record.Status
		result.Completed = record.CompletedCompanies
		result.Total = record.TotalCompanies
	}
	return result
}

// snapshot prefers the tracker's view, which includes items completed before
// a restart.
func (e *Engine) snapshot(result Result, fallback entities.TransferStatus) Result {
	entry, err := e.tracker.Get(result.TransferID)
	if err != nil {
		result.Status = fallback
		return result
	}
	result.Status = entry.Status
	result.Completed = entry.Completed
	result.Total = entry.Total
	return result
}

func (e *Engine) audit(result Result, err error) {
	if e.auditor == nil {
		return
	}
	description := fmt.Sprintf("Transferred %d of %d companies", result.Completed, result.Total)
	e.auditor.LogTransfer(result.TransferID, description, map[string]int{
		"completed": result.Completed,
		"total":     result.Total,
		"skipped":   result.Skipped,
		"ignored":   result.Ignored,
		"failed":    result.Failed,
	}, err)
}
