package scan

import (
	"time"

	"github.com/ln6000/lidar-unity/internal/sink"
)

// SessionState is the lifecycle state of a scan session.
type SessionState string

const (
	// SessionActive means the session still has rays to cast.
	SessionActive SessionState = "active"
	// SessionExhausted means the ray quota is spent; the scheduler removes
	// the session after observing this state.
	SessionExhausted SessionState = "exhausted"
)

// Session is one in-progress scan. It advances through its ray quota across
// ticks, emitting a point record per hit, and terminates when the quota is
// exhausted. A session is owned exclusively by its scheduler: exactly one
// logical thread advances it, and it suspends only at the Advance boundary
// with remaining as its resumption cursor.
type Session struct {
	id           string
	remaining    int
	raysThisTick int
	startedAt    time.Time

	raysCast      int
	hits          int
	pointsEmitted int

	scheduler *Scheduler
}

// ID returns the session's opaque identifier, for diagnostics.
func (s *Session) ID() string {
	return s.id
}

// Remaining returns how many rays the session has yet to cast.
func (s *Session) Remaining() int {
	return s.remaining
}

// RaysThisTick returns how many rays the last Advance call attempted.
func (s *Session) RaysThisTick() int {
	return s.raysThisTick
}

// State reports Active until the ray quota reaches zero.
func (s *Session) State() SessionState {
	if s.remaining > 0 {
		return SessionActive
	}
	return SessionExhausted
}

// Advance casts up to budget rays, decrementing the quota by the number of
// rays attempted: a miss consumes budget just like a hit. It returns the
// number of rays attempted. The session yields control back to the
// scheduler when the call returns.
func (s *Session) Advance(budget int, now time.Time) int {
	n := budget
	if s.remaining < n {
		n = s.remaining
	}
	s.raysThisTick = n
	if n == 0 {
		return 0
	}

	cfg := s.scheduler.cfg
	hits := 0
	for i := 0; i < n; i++ {
		dir := s.scheduler.sampler.Sample(s.scheduler.pose.R)
		hit, ok := s.scheduler.oracle.Cast(s.scheduler.pose.Origin, dir, cfg.MaxRange, cfg.FilterMask)
		if !ok {
			continue // a miss is a non-event, not an error
		}
		hits++
		s.scheduler.sink.Emit(sink.PointRecord{
			Position:   hit.Point,
			Normal:     hit.Normal,
			CapturedAt: now,
			Lifetime:   cfg.PointLifetime,
			Size:       cfg.PointSize,
			Color:      cfg.PointColor,
			SessionID:  s.id,
		})
	}

	s.remaining -= n
	s.raysCast += n
	s.hits += hits
	s.pointsEmitted += hits
	if s.scheduler.stats != nil {
		s.scheduler.stats.AddRays(n, hits)
		s.scheduler.stats.AddPointsEmitted(hits)
	}
	return n
}
