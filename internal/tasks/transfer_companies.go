package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/collections/internal/transfer"
)

// JobProcessor runs the per-item loop of a transfer that was already started.
type JobProcessor interface {
	Process(ctx context.Context, job transfer.Job) (transfer.Result, error)
}

// TransferCompaniesTask carries a started transfer to a worker.
type TransferCompaniesTask struct {
	Job transfer.Job `json:"job"`
}

// Config returns the queue configuration for transfer tasks. Transfers are
// never retried by the queue: items already committed would be counted twice.
// There is no timeout; the per-item loop runs until the batch is done.
func (t TransferCompaniesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "transfer_companies",
		MaxAttempts: 1,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// TransferCompaniesProcessor creates a processor function for TransferCompaniesTask.
func TransferCompaniesProcessor(processor JobProcessor, logger *log.Logger) backlite.QueueProcessor[TransferCompaniesTask] {
	return func(ctx context.Context, task TransferCompaniesTask) error {
		if processor == nil {
			return fmt.Errorf("transfer processor not configured")
		}

		result, err := processor.Process(ctx, task.Job)
		if errors.Is(err, transfer.ErrAlreadyRunning) || errors.Is(err, transfer.ErrAlreadyFinished) {
			// Released tasks are handed out again; the first claim wins.
			logger.Info("transfer task dropped",
				"transfer_id", task.Job.TransferID,
				"status", result.Status,
				"reason", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("transfer %s: %w", task.Job.TransferID, err)
		}

		logger.Info("background transfer done",
			"transfer_id", result.TransferID,
			"completed", result.Completed,
			"total", result.Total)
		return nil
	}
}

// NewTransferCompaniesQueue creates a backlite queue for transfer tasks.
func NewTransferCompaniesQueue(processor JobProcessor, logger *log.Logger) backlite.Queue {
	return backlite.NewQueue(TransferCompaniesProcessor(processor, logger))
}
