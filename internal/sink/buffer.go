package sink

import (
	"fmt"
	"sync"
	"time"

	"github.com/ln6000/lidar-unity/internal/monitoring"
)

// BufferSink is the reference in-memory PointSink: a capacity-bounded store
// of live points with lifetime-based expiry. Expired points are pruned
// lazily whenever occupancy is read, so Emit stays cheap. When the buffer
// is full after pruning, new records are dropped and counted rather than
// blocking the scheduler.
type BufferSink struct {
	mu       sync.Mutex
	capacity int
	points   []PointRecord
	dropped  int64
	now      func() time.Time
}

// NewBufferSink creates a BufferSink holding at most capacity points.
func NewBufferSink(capacity int) (*BufferSink, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer sink capacity must be positive, got %d", capacity)
	}
	return &BufferSink{
		capacity: capacity,
		points:   make([]PointRecord, 0, capacity),
		now:      time.Now,
	}, nil
}

// CapacityForRate sizes a sink buffer from the steady-state emit rate and
// point lifetime. This is a one-time setup computation, not a runtime
// invariant of the scan core.
func CapacityForRate(pointsPerSecond float64, lifetime time.Duration) int {
	n := int(pointsPerSecond * lifetime.Seconds())
	if n < 1 {
		return 1
	}
	return n
}

// Occupancy implements PointSink. Reading occupancy prunes expired points
// first so the admission check sees live points only.
func (b *BufferSink) Occupancy() Occupancy {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked(b.now())
	return Occupancy{CurrentCount: len(b.points), Capacity: b.capacity}
}

// Emit implements PointSink. A record that arrives while the buffer is full
// is dropped after one pruning attempt.
func (b *BufferSink) Emit(rec PointRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.points) >= b.capacity {
		b.pruneLocked(b.now())
	}
	if len(b.points) >= b.capacity {
		b.dropped++
		if b.dropped%100 == 1 {
			monitoring.Logf("buffer sink full (%d points), dropped %d records so far", b.capacity, b.dropped)
		}
		return
	}
	b.points = append(b.points, rec)
}

// Clear implements PointSink.
func (b *BufferSink) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = b.points[:0]
}

// Compact implements PointSink. It retains only points whose remaining
// lifetime exceeds minRemaining.
func (b *BufferSink) Compact(minRemaining time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := b.now().Add(minRemaining)
	kept := b.points[:0]
	for _, p := range b.points {
		if p.ExpiresAt().After(cutoff) {
			kept = append(kept, p)
		}
	}
	b.points = kept
}

// Live returns a copy of the live (unexpired) points, for diagnostics and
// rendering readouts.
func (b *BufferSink) Live() []PointRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked(b.now())
	out := make([]PointRecord, len(b.points))
	copy(out, b.points)
	return out
}

// Dropped returns the number of records discarded because the buffer was
// full.
func (b *BufferSink) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// SetClock overrides the time source, for tests.
func (b *BufferSink) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func (b *BufferSink) pruneLocked(now time.Time) {
	kept := b.points[:0]
	for _, p := range b.points {
		if p.ExpiresAt().After(now) {
			kept = append(kept, p)
		}
	}
	b.points = kept
}
