// Package progress keeps the in-memory, pollable state of running transfers.
//
// Entries are keyed by transfer id and expire after a configurable TTL, with
// an upper bound on the number of entries kept. Writers serialize on a mutex
// for read-modify-write; readers go straight to the cache and never wait on a
// transfer.
package progress

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mrlokans/collections/internal/entities"
)

// ErrNotFound is returned for ids that were never created or have expired.
var ErrNotFound = errors.New("transfer progress not found")

// Entry is the observable state of one transfer.
type Entry struct {
	Status     entities.TransferStatus `json:"status"`
	Completed  int                     `json:"completed"`
	Total      int                     `json:"total"`
	TransferID uuid.UUID               `json:"transferId"`
}

// Tracker holds one Entry per transfer. It is safe for concurrent use; an
// entry's TTL restarts on every write to it.
type Tracker struct {
	mu      sync.Mutex
	entries *expirable.LRU[uuid.UUID, Entry]
}

// NewTracker creates a tracker holding at most maxEntries entries, each
// expiring ttl after its last update. Zero values disable the respective bound.
func NewTracker(maxEntries int, ttl time.Duration) *Tracker {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Tracker{entries: expirable.NewLRU[uuid.UUID, Entry](maxEntries, nil, ttl)}
}

// Create registers a new in-progress entry, replacing any previous one.
func (t *Tracker) Create(id uuid.UUID, total int) Entry {
	entry := Entry{
		Status:     entities.TransferStatusInProgress,
		Total:      total,
		TransferID: id,
	}
	t.mu.Lock()
	t.entries.Add(id, entry)
	t.mu.Unlock()
	return entry
}

// Restore puts back an entry rebuilt from a persisted record, unless a newer
// entry for the same id is already present.
func (t *Tracker) Restore(entry Entry) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.entries.Peek(entry.TransferID); ok {
		return current
	}
	t.entries.Add(entry.TransferID, entry)
	return entry
}

// Advance increments the completed counter by one. Terminal entries and
// entries already at their total are left unchanged.
func (t *Tracker) Advance(id uuid.UUID) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries.Peek(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	if entry.Status.IsTerminal() || entry.Completed >= entry.Total {
		return entry, nil
	}
	entry.Completed++
	t.entries.Add(id, entry)
	return entry, nil
}

// SetStatus moves the entry to status. Once terminal, the status is frozen.
func (t *Tracker) SetStatus(id uuid.UUID, status entities.TransferStatus) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries.Peek(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	if entry.Status.IsTerminal() || entry.Status == status {
		return entry, nil
	}
	entry.Status = status
	t.entries.Add(id, entry)
	return entry, nil
}

// Get returns a snapshot of the entry.
func (t *Tracker) Get(id uuid.UUID) (Entry, error) {
	entry, ok := t.entries.Get(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Len returns the number of live entries.
func (t *Tracker) Len() int {
	return t.entries.Len()
}
