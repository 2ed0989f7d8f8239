package services

import (
	"sync"
	"time"
)

type pendingPosition struct {
	deckID    string
	x         float64
	y         float64
	updatedAt time.Time
}

// PositionBuffer coalesces high-frequency position updates. Each staged
// update overwrites the element's pending entry; entries are flushed to
// storage only after the element has been idle for a quiet period, so a
// drag gesture costs one persisted write per pause instead of one per event.
type PositionBuffer struct {
	mu      sync.Mutex
	pending map[string]*pendingPosition
}

// NewPositionBuffer creates an empty buffer
func NewPositionBuffer() *PositionBuffer {
	return &PositionBuffer{
		pending: make(map[string]*pendingPosition),
	}
}

// Stage records the latest coordinates for an element. The owning deck id
// rides along so later updates in the burst can be session-checked without
// a storage read.
func (b *PositionBuffer) Stage(elementID, deckID string, x, y float64, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.pending[elementID]
	if !ok {
		entry = &pendingPosition{}
		b.pending[elementID] = entry
	}
	entry.deckID = deckID
	entry.x = x
	entry.y = y
	entry.updatedAt = now
}

// Peek returns the pending coordinates and owning deck for an element, if
// any. A miss means this is the element's first update in the current burst.
func (b *PositionBuffer) Peek(elementID string) (float64, float64, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.pending[elementID]
	if !ok {
		return 0, 0, "", false
	}
	return entry.x, entry.y, entry.deckID, true
}

// Clear drops the pending entry for an element. Called when a full element
// update or removal supersedes the staged position, so a later flush cannot
// overwrite the newer write.
func (b *PositionBuffer) Clear(elementID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, elementID)
}

// DrainDue removes and returns every entry that has been idle for at least
// quietPeriod. Entries still being actively updated stay pending. The lock
// is held only to select and delete; callers do storage I/O outside it.
func (b *PositionBuffer) DrainDue(now time.Time, quietPeriod time.Duration) []StagedPosition {
	b.mu.Lock()
	defer b.mu.Unlock()

	var due []StagedPosition
	for elementID, entry := range b.pending {
		if now.Sub(entry.updatedAt) >= quietPeriod {
			due = append(due, StagedPosition{ElementID: elementID, X: entry.x, Y: entry.y})
			delete(b.pending, elementID)
		}
	}
	return due
}

// Len returns the number of pending entries
func (b *PositionBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
