package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/progress"
)

// StaleTransferStore finds and terminates transfer records.
type StaleTransferStore interface {
	FindStale(before time.Time) ([]entities.Transfer, error)
	Finish(id uuid.UUID, status entities.TransferStatus, errorMsg string) (bool, error)
}

// staleTransferError is stored on reaped records.
const staleTransferError = "transfer abandoned: no progress recorded"

// TransferReaper periodically marks in-progress transfers that stopped making
// progress as failed. Records are never deleted. A record whose progress entry
// is still live and in progress belongs to this process, either queued or
// running, and is left alone whatever its age.
type TransferReaper struct {
	store      StaleTransferStore
	tracker    *progress.Tracker
	staleAfter time.Duration
	schedule   string
	logger     *log.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	isReaping bool
}

// NewTransferReaper creates a reaper. tracker may be nil.
func NewTransferReaper(store StaleTransferStore, tracker *progress.Tracker, staleAfter time.Duration, schedule string, logger *log.Logger) *TransferReaper {
	return &TransferReaper{
		store:      store,
		tracker:    tracker,
		staleAfter: staleAfter,
		schedule:   schedule,
		logger:     logger,
		cron:       cron.New(cron.WithParser(standardParser)),
	}
}

// Start schedules the reaper. It stops on its own when ctx is cancelled.
func (r *TransferReaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return nil
	}

	if r.staleAfter <= 0 {
		return fmt.Errorf("stale threshold must be positive, got %s", r.staleAfter)
	}

	if err := ValidateCronSchedule(r.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", r.schedule, err)
	}

	entryID, err := r.cron.AddFunc(r.schedule, func() {
		if _, err := r.RunOnce(); err != nil {
			r.logger.Error("transfer reaper run failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reaper job: %w", err)
	}
	r.entryID = entryID

	r.cron.Start()
	r.isRunning = true

	r.logger.Info("transfer reaper started",
		"schedule", r.schedule,
		"stale_after", r.staleAfter,
		"next_run", r.cron.Entry(entryID).Next)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Stop stops the schedule and waits for a running pass to finish.
func (r *TransferReaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()

	r.isRunning = false
	r.logger.Info("transfer reaper stopped")
}

// IsRunning returns whether the reaper is scheduled.
func (r *TransferReaper) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRunning
}

// GetNextRunTime returns when the next pass will occur.
func (r *TransferReaper) GetNextRunTime() *time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.isRunning {
		return nil
	}
	next := r.cron.Entry(r.entryID).Next
	return &next
}

// RunOnce performs a single reaping pass and returns the number of records
// it marked failed. Overlapping passes are skipped.
func (r *TransferReaper) RunOnce() (int, error) {
	r.mu.Lock()
	if r.isReaping {
		r.mu.Unlock()
		r.logger.Debug("transfer reaper: skipped (already running)")
		return 0, nil
	}
	r.isReaping = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isReaping = false
		r.mu.Unlock()
	}()

	stale, err := r.store.FindStale(time.Now().Add(-r.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("find stale transfers: %w", err)
	}

	reaped := 0
	for _, t := range stale {
		if r.isLive(t.ID) {
			r.logger.Debug("transfer reaper: skipped live transfer", "transfer_id", t.ID)
			continue
		}
		updated, err := r.store.Finish(t.ID, entities.TransferStatusFailed, staleTransferError)
		if err != nil {
			r.logger.Error("failed to reap transfer", "transfer_id", t.ID, "err", err)
			continue
		}
		if !updated {
			continue
		}
		reaped++
		if r.tracker != nil {
			_, _ = r.tracker.SetStatus(t.ID, entities.TransferStatusFailed)
		}
		r.logger.Warn("reaped stale transfer",
			"transfer_id", t.ID,
			"completed", t.CompletedCompanies,
			"total", t.TotalCompanies,
			"last_update", t.UpdatedAt)
	}
	return reaped, nil
}

func (r *TransferReaper) isLive(id uuid.UUID) bool {
	if r.tracker == nil {
		return false
	}
	entry, err := r.tracker.Get(id)
	return err == nil && entry.Status == entities.TransferStatusInProgress
}
