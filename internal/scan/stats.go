package scan

import (
	"sync"
	"time"
)

// Stats tracks scan pipeline counters. It is safe for concurrent reads from
// the HTTP surface while the scheduler writes on its own tick thread.
type Stats struct {
	mu                  sync.Mutex
	scansStarted        int64
	scansCompleted      int64
	rejectedCapacity    int64
	rejectedConcurrency int64
	raysCast            int64
	hits                int64
	pointsEmitted       int64
	lastReset           time.Time
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	ScansStarted        int64 `json:"scans_started"`
	ScansCompleted      int64 `json:"scans_completed"`
	RejectedCapacity    int64 `json:"rejected_capacity"`
	RejectedConcurrency int64 `json:"rejected_concurrency"`
	RaysCast            int64 `json:"rays_cast"`
	Hits                int64 `json:"hits"`
	PointsEmitted       int64 `json:"points_emitted"`
}

// NewStats creates a Stats block with the reset clock started.
func NewStats() *Stats {
	return &Stats{lastReset: time.Now()}
}

// AddScanStarted records an admitted scan.
func (s *Stats) AddScanStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scansStarted++
}

// AddScanCompleted records an exhausted session.
func (s *Stats) AddScanCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scansCompleted++
}

// AddRejected records an admission rejection by reason.
func (s *Stats) AddRejected(reason RejectReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch reason {
	case RejectCapacity:
		s.rejectedCapacity++
	case RejectConcurrency:
		s.rejectedConcurrency++
	}
}

// AddRays records cast rays and how many of them hit.
func (s *Stats) AddRays(cast, hits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raysCast += int64(cast)
	s.hits += int64(hits)
}

// AddPointsEmitted records emitted point records.
func (s *Stats) AddPointsEmitted(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointsEmitted += int64(count)
}

// Snapshot returns a copy of the counters without resetting them.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		ScansStarted:        s.scansStarted,
		ScansCompleted:      s.scansCompleted,
		RejectedCapacity:    s.rejectedCapacity,
		RejectedConcurrency: s.rejectedConcurrency,
		RaysCast:            s.raysCast,
		Hits:                s.hits,
		PointsEmitted:       s.pointsEmitted,
	}
}

// GetAndReset returns the counters accumulated since the last reset along
// with the elapsed interval, then zeroes them. Used for periodic rate
// logging.
func (s *Stats) GetAndReset() (snap StatsSnapshot, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	interval = now.Sub(s.lastReset)
	snap = StatsSnapshot{
		ScansStarted:        s.scansStarted,
		ScansCompleted:      s.scansCompleted,
		RejectedCapacity:    s.rejectedCapacity,
		RejectedConcurrency: s.rejectedConcurrency,
		RaysCast:            s.raysCast,
		Hits:                s.hits,
		PointsEmitted:       s.pointsEmitted,
	}

	s.scansStarted = 0
	s.scansCompleted = 0
	s.rejectedCapacity = 0
	s.rejectedConcurrency = 0
	s.raysCast = 0
	s.hits = 0
	s.pointsEmitted = 0
	s.lastReset = now

	return snap, interval
}
