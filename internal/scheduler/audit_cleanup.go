package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/collections/internal/tasks"
)

// TaskEnqueuer adds tasks to the background queue.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// AuditCleanupScheduler enqueues an audit retention task on a cron schedule.
type AuditCleanupScheduler struct {
	queue         TaskEnqueuer
	schedule      string
	retentionDays int
	logger        *log.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewAuditCleanupScheduler creates a scheduler for audit cleanup.
func NewAuditCleanupScheduler(queue TaskEnqueuer, schedule string, retentionDays int, logger *log.Logger) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		queue:         queue,
		schedule:      schedule,
		retentionDays: retentionDays,
		logger:        logger,
		cron:          cron.New(cron.WithParser(standardParser)),
	}
}

// Start schedules the cleanup. It stops on its own when ctx is cancelled.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.Enqueue); err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("audit cleanup scheduled", "schedule", s.schedule, "retention_days", s.retentionDays)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the schedule.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
}

// Enqueue adds one cleanup task to the queue.
func (s *AuditCleanupScheduler) Enqueue() {
	if _, err := s.queue.Add(tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}).Save(); err != nil {
		s.logger.Error("failed to enqueue audit cleanup", "err", err)
	}
}
