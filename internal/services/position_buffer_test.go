package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestPositionBufferCoalescesBurst(t *testing.T) {
	buffer := NewPositionBuffer()
	start := time.Now()

	// A burst of updates inside the quiet period collapses into one entry
	// holding the last coordinates.
	for i := 0; i < 20; i++ {
		buffer.Stage("el-1", "deck-1", float64(i), float64(i*2), start.Add(time.Duration(i)*10*time.Millisecond))
	}
	assert.Equal(t, buffer.Len(), 1)

	x, y, deckID, ok := buffer.Peek("el-1")
	assert.Equal(t, ok, true)
	assert.Equal(t, x, 19.0)
	assert.Equal(t, y, 38.0)
	assert.Equal(t, deckID, "deck-1")

	// Not yet quiet: nothing is due.
	lastUpdate := start.Add(190 * time.Millisecond)
	due := buffer.DrainDue(lastUpdate.Add(100*time.Millisecond), 200*time.Millisecond)
	assert.Equal(t, len(due), 0)
	assert.Equal(t, buffer.Len(), 1)

	// Once the quiet period has elapsed, exactly one entry drains with the
	// last staged coordinates.
	due = buffer.DrainDue(lastUpdate.Add(250*time.Millisecond), 200*time.Millisecond)
	assert.Equal(t, len(due), 1)
	assert.Equal(t, due[0].ElementID, "el-1")
	assert.Equal(t, due[0].X, 19.0)
	assert.Equal(t, due[0].Y, 38.0)
	assert.Equal(t, buffer.Len(), 0)

	// Drained entries are gone; a second drain is a no-op.
	due = buffer.DrainDue(lastUpdate.Add(time.Hour), 200*time.Millisecond)
	assert.Equal(t, len(due), 0)
}

func TestPositionBufferLeavesActiveEntries(t *testing.T) {
	buffer := NewPositionBuffer()
	now := time.Now()

	buffer.Stage("idle", "deck-1", 1, 1, now.Add(-time.Second))
	buffer.Stage("moving", "deck-1", 2, 2, now.Add(-50*time.Millisecond))

	due := buffer.DrainDue(now, 200*time.Millisecond)
	assert.Equal(t, len(due), 1)
	assert.Equal(t, due[0].ElementID, "idle")

	// The element still being dragged stays pending.
	_, _, _, ok := buffer.Peek("moving")
	assert.Equal(t, ok, true)
}

func TestPositionBufferClear(t *testing.T) {
	buffer := NewPositionBuffer()
	now := time.Now()

	buffer.Stage("el-1", "deck-1", 5, 6, now)
	buffer.Clear("el-1")

	_, _, _, ok := buffer.Peek("el-1")
	assert.Equal(t, ok, false)

	due := buffer.DrainDue(now.Add(time.Second), 200*time.Millisecond)
	assert.Equal(t, len(due), 0)

	// Clearing an absent entry is a no-op.
	buffer.Clear("el-1")
}

func TestPositionBufferPeekMiss(t *testing.T) {
	buffer := NewPositionBuffer()
	_, _, _, ok := buffer.Peek("never-staged")
	assert.Equal(t, ok, false)
}

func TestPositionBufferConcurrentStage(t *testing.T) {
	buffer := NewPositionBuffer()
	now := time.Now()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				elementID := fmt.Sprintf("el-%d", i%10)
				buffer.Stage(elementID, "deck-1", float64(g), float64(i), now)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, buffer.Len(), 10)

	due := buffer.DrainDue(now.Add(time.Second), 200*time.Millisecond)
	assert.Equal(t, len(due), 10)
}
