package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/collections/internal/entities"
)

func TestTracker_CreateAndGet(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	id := uuid.New()

	tracker.Create(id, 3)

	entry, err := tracker.Get(id)
	require.NoError(t, err)
	assert.Equal(t, Entry{
		Status:     entities.TransferStatusInProgress,
		Completed:  0,
		Total:      3,
		TransferID: id,
	}, entry)
}

func TestTracker_UnknownID(t *testing.T) {
	tracker := NewTracker(10, time.Hour)

	_, err := tracker.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tracker.Advance(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tracker.SetStatus(uuid.New(), entities.TransferStatusCompleted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTracker_AdvanceNeverExceedsTotal(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	id := uuid.New()
	tracker.Create(id, 2)

	for i := 0; i < 5; i++ {
		_, err := tracker.Advance(id)
		require.NoError(t, err)
	}

	entry, err := tracker.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Completed)
}

func TestTracker_StatusIsMonotonic(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	id := uuid.New()
	tracker.Create(id, 2)

	entry, err := tracker.SetStatus(id, entities.TransferStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusFailed, entry.Status)

	entry, err = tracker.SetStatus(id, entities.TransferStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusFailed, entry.Status)

	entry, err = tracker.SetStatus(id, entities.TransferStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStatusFailed, entry.Status)

	entry, err = tracker.Advance(id)
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Completed)
}

func TestTracker_Restore(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	id := uuid.New()

	restored := tracker.Restore(Entry{Status: entities.TransferStatusInProgress, Completed: 4, Total: 9, TransferID: id})
	assert.Equal(t, 4, restored.Completed)

	_, err := tracker.Advance(id)
	require.NoError(t, err)

	kept := tracker.Restore(Entry{Status: entities.TransferStatusInProgress, Completed: 0, Total: 9, TransferID: id})
	assert.Equal(t, 5, kept.Completed)
}

func TestTracker_EvictsOldestBeyondCapacity(t *testing.T) {
	tracker := NewTracker(2, time.Hour)
	first, second, third := uuid.New(), uuid.New(), uuid.New()

	tracker.Create(first, 1)
	tracker.Create(second, 1)
	tracker.Create(third, 1)

	assert.Equal(t, 2, tracker.Len())
	_, err := tracker.Get(first)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tracker.Get(third)
	assert.NoError(t, err)
}

func TestTracker_ExpiresAfterTTL(t *testing.T) {
	tracker := NewTracker(10, 20*time.Millisecond)
	id := uuid.New()
	tracker.Create(id, 1)

	assert.Eventually(t, func() bool {
		_, err := tracker.Get(id)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestTracker_WriteRestartsTTL(t *testing.T) {
	tracker := NewTracker(10, 200*time.Millisecond)
	id := uuid.New()
	tracker.Create(id, 100)

	for i := 0; i < 5; i++ {
		time.Sleep(80 * time.Millisecond)
		_, err := tracker.Advance(id)
		require.NoError(t, err)
	}

	entry, err := tracker.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Completed)
}

func TestTracker_ConcurrentReadersSeeMonotonicProgress(t *testing.T) {
	tracker := NewTracker(10, time.Hour)
	id := uuid.New()
	const total = 200
	tracker.Create(id, total)

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0
			for {
				entry, err := tracker.Get(id)
				if !assert.NoError(t, err) {
					return
				}
				assert.GreaterOrEqual(t, entry.Completed, last)
				assert.LessOrEqual(t, entry.Completed, entry.Total)
				last = entry.Completed
				if entry.Status.IsTerminal() {
					return
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		_, err := tracker.Advance(id)
		require.NoError(t, err)
	}
	_, err := tracker.SetStatus(id, entities.TransferStatusCompleted)
	require.NoError(t, err)

	wg.Wait()
}
