package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/collections/internal/database"
	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/database/transfers"
	"github.com/mrlokans/collections/internal/entities"
	"github.com/mrlokans/collections/internal/logging"
	"github.com/mrlokans/collections/internal/progress"
	"github.com/mrlokans/collections/internal/transfer"
)

func setupReaper(t *testing.T) (*TransferReaper, *transfers.Repository, *database.Database, *progress.Tracker) {
	t.Helper()
	db, err := database.NewSilentDatabase(filepath.Join(t.TempDir(), "reaper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := transfers.NewRepository(db.DB)
	tracker := progress.NewTracker(10, time.Hour)
	reaper := NewTransferReaper(repo, tracker, 30*time.Minute, "*/10 * * * *", logging.Discard())
	return reaper, repo, db, tracker
}

func createTransfer(t *testing.T, repo *transfers.Repository, db *database.Database, age time.Duration) *entities.Transfer {
	t.Helper()
	record := &entities.Transfer{
		SourceCollectionID: uuid.New(),
		TargetCollectionID: uuid.New(),
		TotalCompanies:     5,
	}
	require.NoError(t, repo.Create(record))
	require.NoError(t, db.DB.Model(&entities.Transfer{}).
		Where("id = ?", record.ID).
		UpdateColumn("updated_at", time.Now().Add(-age)).Error)
	return record
}

func TestTransferReaper_RunOnce(t *testing.T) {
	reaper, repo, db, tracker := setupReaper(t)

	// The stale record has no live progress entry, as after a restart.
	stale := createTransfer(t, repo, db, time.Hour)
	fresh := createTransfer(t, repo, db, time.Minute)
	tracker.Create(fresh.ID, fresh.TotalCompanies)

	reaped, err := reaper.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	got, err := repo.GetByID(stale.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusFailed, got.Status)
	assert.Equal(t, staleTransferError, got.Error)

	got, err = repo.GetByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusInProgress, got.Status)

	// A second pass finds nothing new.
	reaped, err = reaper.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, reaped)
}

func TestTransferReaper_SkipsLiveTransfers(t *testing.T) {
	reaper, repo, db, tracker := setupReaper(t)

	record := createTransfer(t, repo, db, time.Hour)
	tracker.Create(record.ID, record.TotalCompanies)

	reaped, err := reaper.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, reaped)

	got, err := repo.GetByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusInProgress, got.Status)

	// After a restart nothing drives the record any more.
	restarted := NewTransferReaper(repo, progress.NewTracker(10, time.Hour), 30*time.Minute, "*/10 * * * *", logging.Discard())
	reaped, err = restarted.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)
}

func TestTransferReaper_QueuedTransferSurvivesUntilProcessed(t *testing.T) {
	reaper, _, db, tracker := setupReaper(t)

	created, err := db.EnsureCollections(
		entities.CollectionNameLiked,
		entities.CollectionNameMyList,
		entities.CollectionNameIgnore,
		"Prospects",
	)
	require.NoError(t, err)
	liked, target := created[0], created[3]
	for _, id := range []int{1, 2} {
		require.NoError(t, db.DB.Create(&entities.Association{CompanyID: id, CollectionID: liked.ID}).Error)
	}

	engine := transfer.NewEngine(db.DB, collections.NewRepository(db.DB), tracker,
		transfer.DefaultRoles(), transfer.Options{}, logging.Discard())
	handle, err := engine.Start(context.Background(), transfer.Request{
		SourceCollectionID: liked.ID,
		TargetCollectionID: target.ID,
		CompanyIDs:         []int{1, 2},
	})
	require.NoError(t, err)

	// The job waits in the queue for longer than the stale threshold.
	require.NoError(t, db.DB.Model(&entities.Transfer{}).
		Where("id = ?", handle.Job.TransferID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	reaped, err := reaper.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, reaped)

	result, err := engine.Process(context.Background(), handle.Job)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusCompleted, result.Status)
	assert.Equal(t, 2, result.Completed)
}

func TestTransferReaper_IgnoresTerminalRecords(t *testing.T) {
	reaper, repo, db, _ := setupReaper(t)

	record := createTransfer(t, repo, db, time.Hour)
	_, err := repo.Finish(record.ID, entities.TransferStatusCompleted, "")
	require.NoError(t, err)
	require.NoError(t, db.DB.Model(&entities.Transfer{}).
		Where("id = ?", record.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	reaped, err := reaper.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, reaped)

	got, err := repo.GetByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusCompleted, got.Status)
}

func TestTransferReaper_StartStop(t *testing.T) {
	reaper, _, _, _ := setupReaper(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, reaper.Start(ctx))
	assert.True(t, reaper.IsRunning())
	assert.NotNil(t, reaper.GetNextRunTime())

	reaper.Stop()
	assert.False(t, reaper.IsRunning())
	assert.Nil(t, reaper.GetNextRunTime())
}

func TestTransferReaper_InvalidSchedule(t *testing.T) {
	_, repo, _, tracker := setupReaper(t)
	reaper := NewTransferReaper(repo, tracker, time.Minute, "not a schedule", logging.Discard())

	err := reaper.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, reaper.IsRunning())
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("*/10 * * * *"))
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.Error(t, ValidateCronSchedule("* * * * * *"))
	assert.Error(t, ValidateCronSchedule(""))
}

func TestAuditCleanupScheduler_InvalidSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler(nil, "bogus", 30, logging.Discard())
	assert.Error(t, s.Start(context.Background()))
}
