package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/logging"
	"github.com/mrlokans/collections/internal/transfer"
)

type fakeProcessor struct {
	jobs []transfer.Job
	err  error
}

func (p *fakeProcessor) Process(_ context.Context, job transfer.Job) (transfer.Result, error) {
	p.jobs = append(p.jobs, job)
	if p.err != nil {
		return transfer.Result{}, p.err
	}
	return transfer.Result{
		Status:     entities.TransferStatusCompleted,
		Completed:  len(job.CompanyIDs),
		Total:      len(job.CompanyIDs),
		TransferID: job.TransferID,
	}, nil
}

func TestTransferCompaniesTaskConfig(t *testing.T) {
	cfg := TransferCompaniesTask{}.Config()

	assert.Equal(t, "transfer_companies", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Zero(t, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestTransferCompaniesProcessor(t *testing.T) {
	job := transfer.Job{
		TransferID:         uuid.New(),
		SourceCollectionID: uuid.New(),
		TargetCollectionID: uuid.New(),
		CompanyIDs:         []int{1, 2},
	}

	t.Run("runs the job", func(t *testing.T) {
		processor := &fakeProcessor{}
		err := TransferCompaniesProcessor(processor, logging.Discard())(context.Background(), TransferCompaniesTask{Job: job})
		require.NoError(t, err)
		require.Len(t, processor.jobs, 1)
		assert.Equal(t, job, processor.jobs[0])
	})

	t.Run("propagates engine failure", func(t *testing.T) {
		processor := &fakeProcessor{err: transfer.ErrEngineFailure}
		err := TransferCompaniesProcessor(processor, logging.Discard())(context.Background(), TransferCompaniesTask{Job: job})
		assert.ErrorIs(t, err, transfer.ErrEngineFailure)
	})

	t.Run("duplicate delivery is dropped", func(t *testing.T) {
		for _, sentinel := range []error{transfer.ErrAlreadyRunning, transfer.ErrAlreadyFinished} {
			processor := &fakeProcessor{err: fmt.Errorf("%w: completed", sentinel)}
			err := TransferCompaniesProcessor(processor, logging.Discard())(context.Background(), TransferCompaniesTask{Job: job})
			assert.NoError(t, err, sentinel.Error())
			assert.Len(t, processor.jobs, 1)
		}
	})

	t.Run("nil processor", func(t *testing.T) {
		err := TransferCompaniesProcessor(nil, logging.Discard())(context.Background(), TransferCompaniesTask{Job: job})
		assert.Error(t, err)
	})
}

type fakeCleaner struct {
	retention time.Duration
	err       error
}

func (c *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	c.retention = retention
	return 3, c.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("defaults to thirty days", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		err := CleanupAuditEventsProcessor(cleaner, logging.Discard())(context.Background(), CleanupAuditEventsTask{})
		require.NoError(t, err)
		assert.Equal(t, 30*24*time.Hour, cleaner.retention)
	})

	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		err := CleanupAuditEventsProcessor(cleaner, logging.Discard())(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
	})

	t.Run("cleaner error", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("locked")}
		err := CleanupAuditEventsProcessor(cleaner, logging.Discard())(context.Background(), CleanupAuditEventsTask{})
		assert.Error(t, err)
	})
}

func TestTransferCompaniesQueue_EndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg, logging.Discard())
	require.NoError(t, err)
	defer client.Close()

	done := make(chan transfer.Job, 1)
	client.Register(NewTransferCompaniesQueue(processorFunc(func(job transfer.Job) {
		done <- job
	}), logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	job := transfer.Job{TransferID: uuid.New(), CompanyIDs: []int{7}}
	_, err = client.Add(TransferCompaniesTask{Job: job}).Save()
	require.NoError(t, err)

	select {
	case got := <-done:
		assert.Equal(t, job.TransferID, got.TransferID)
		assert.Equal(t, []int{7}, got.CompanyIDs)
	case <-time.After(5 * time.Second):
		t.Fatal("transfer task was not executed within timeout")
	}
}

type processorFunc func(job transfer.Job)

func (f processorFunc) Process(_ context.Context, job transfer.Job) (transfer.Result, error) {
	f(job)
	return transfer.Result{TransferID: job.TransferID}, nil
}
