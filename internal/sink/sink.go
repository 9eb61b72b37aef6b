// Package sink defines the boundary between the scan core and the point
// cloud consumer. The core hands finished point records to a PointSink and
// reads back a cheap occupancy snapshot for admission control; everything
// else (storage, expiry, rendering) belongs to the sink implementation.
package sink

import (
	"time"

	"github.com/ln6000/lidar-unity/internal/geom"
)

// Color is an 8-bit RGBA point colour.
type Color struct {
	R, G, B, A uint8
}

// PointRecord is one emitted sample: a hit position with its surface normal
// plus the visual and lifetime attributes the renderer needs. Records are
// immutable once constructed; ownership transfers to the sink on Emit.
type PointRecord struct {
	Position   geom.Vec3
	Normal     geom.Vec3
	CapturedAt time.Time
	Lifetime   time.Duration
	Size       float64
	Color      Color
	SessionID  string
}

// ExpiresAt returns the instant the record's lifetime runs out.
func (r PointRecord) ExpiresAt() time.Time {
	return r.CapturedAt.Add(r.Lifetime)
}

// Orientation encodes the surface normal as a rotation looking along the
// normal, which is the form downstream renderers consume.
func (r PointRecord) Orientation() geom.Rotation {
	return geom.LookRotation(r.Normal, geom.Vec3{Y: 1})
}

// Occupancy is a point-in-time estimate of how full a sink is. It is read
// once at admission time and is not transactionally consistent with later
// emits.
type Occupancy struct {
	CurrentCount int
	Capacity     int
}

// Headroom returns how many more records fit, never negative.
func (o Occupancy) Headroom() int {
	h := o.Capacity - o.CurrentCount
	if h < 0 {
		return 0
	}
	return h
}

// PointSink receives finished point records. Emit is fire-and-forget: it
// must be O(1), must not block and must not call back into the scheduler.
type PointSink interface {
	// Occupancy returns the current count and capacity.
	Occupancy() Occupancy
	// Emit hands a record to the sink.
	Emit(PointRecord)
	// Clear drops all live points.
	Clear()
	// Compact retains only points whose remaining lifetime exceeds
	// minRemaining. It is called explicitly to recover headroom under
	// sustained pressure, never automatically.
	Compact(minRemaining time.Duration)
}

// NopSink discards every record and reports unbounded capacity. It stands
// in when no renderer is attached so scheduler invariants still hold.
type NopSink struct{}

// Occupancy implements PointSink.
func (NopSink) Occupancy() Occupancy {
	return Occupancy{CurrentCount: 0, Capacity: int(^uint(0) >> 1)}
}

// Emit implements PointSink.
func (NopSink) Emit(PointRecord) {}

// Clear implements PointSink.
func (NopSink) Clear() {}

// Compact implements PointSink.
func (NopSink) Compact(time.Duration) {}
