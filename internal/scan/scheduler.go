package scan

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ln6000/lidar-unity/internal/geom"
	"github.com/ln6000/lidar-unity/internal/monitoring"
	"github.com/ln6000/lidar-unity/internal/sink"
)

// Trigger is the per-tick input signal from the trigger source. Fresh is
// edge-triggered (a discrete press) and always eligible for the admission
// check; Held is level-triggered and throttled by MinScanInterval.
type Trigger struct {
	Fresh bool
	Held  bool
}

// Recorder receives session lifecycle notifications, typically for
// persistence. All methods are optional no-throughput-path callouts; a nil
// Recorder disables them.
type Recorder interface {
	SessionStarted(sessionID, sensorID string, startedAt time.Time, raysTotal int)
	SessionCompleted(sessionID string, completedAt time.Time, raysCast, hits, pointsEmitted int)
}

// Deps carries the scheduler's collaborators. Oracle is required; a nil
// Sink is replaced by a no-op sink so sessions still run to exhaustion
// with emits dropped.
type Deps struct {
	Oracle   RayOracle
	Sink     sink.PointSink
	Pose     geom.Pose
	Rand     *rand.Rand
	Stats    *Stats
	Recorder Recorder
}

// Scheduler gates new scans on timing and admission, owns the set of
// in-flight sessions, and drives each session's ray budget exactly once per
// tick. Scheduling is single-threaded and cooperative: all state below is
// mutated only from the caller's tick thread, so the core needs no locks.
// Multiple independent schedulers can coexist; there is no package-global
// state.
type Scheduler struct {
	cfg       Config
	admission AdmissionController
	sampler   *ConeSampler
	oracle    RayOracle
	sink      sink.PointSink
	pose      geom.Pose
	stats     *Stats
	recorder  Recorder

	sessions      []*Session
	activeCount   int
	lastScanStart time.Time
	everStarted   bool
}

// NewScheduler validates the config and wires the scan pipeline.
func NewScheduler(cfg Config, deps Deps) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}
	if deps.Oracle == nil {
		return nil, fmt.Errorf("scan scheduler requires a ray oracle")
	}
	if deps.Sink == nil {
		deps.Sink = sink.NopSink{}
	}
	if (deps.Pose.R == geom.Rotation{}) {
		deps.Pose.R = geom.Identity()
	}
	return &Scheduler{
		cfg:       cfg,
		admission: AdmissionController{ConcurrencyLimit: cfg.ConcurrencyLimit},
		sampler:   NewConeSampler(cfg.ConeAngleDeg, deps.Rand),
		oracle:    deps.Oracle,
		sink:      deps.Sink,
		pose:      deps.Pose,
		stats:     deps.Stats,
		recorder:  deps.Recorder,
	}, nil
}

// HandleTrigger evaluates the tick's trigger signal. A fresh press always
// attempts admission; a held trigger attempts only when the minimum
// interval since the last scan start has elapsed, so at most one held scan
// starts per interval window.
func (s *Scheduler) HandleTrigger(now time.Time, trig Trigger) {
	if trig.Fresh {
		s.RequestScan(now)
		return
	}
	if !trig.Held {
		return
	}
	if s.everStarted && now.Sub(s.lastScanStart) < s.cfg.MinScanInterval {
		return
	}
	s.RequestScan(now)
}

// RequestScan attempts to start a scan right now, subject only to admission
// control. Rejection is non-fatal and observable through the stats counters
// and a log line; the caller may retry next tick.
func (s *Scheduler) RequestScan(now time.Time) bool {
	occ := s.sink.Occupancy()
	ok, reason := s.admission.CanStart(occ, s.cfg.PointsPerScan, s.activeCount)
	if !ok {
		if s.stats != nil {
			s.stats.AddRejected(reason)
		}
		monitoring.Logf("scan rejected (%s): occupancy %d/%d, cost %d, active %d",
			reason, occ.CurrentCount, occ.Capacity, s.cfg.PointsPerScan, s.activeCount)
		return false
	}

	sess := &Session{
		id:        uuid.NewString(),
		remaining: s.cfg.PointsPerScan,
		startedAt: now,
		scheduler: s,
	}
	s.lastScanStart = now
	s.everStarted = true
	if s.stats != nil {
		s.stats.AddScanStarted()
	}
	if s.recorder != nil {
		s.recorder.SessionStarted(sess.id, s.cfg.SensorID, now, s.cfg.PointsPerScan)
	}

	// A zero-quota scan completes immediately without emitting and never
	// occupies an active slot.
	if sess.remaining == 0 {
		s.finishSession(sess, now)
		return true
	}

	s.sessions = append(s.sessions, sess)
	s.activeCount++
	return true
}

// Tick advances every active session by the per-tick ray budget exactly
// once, then retires sessions whose quota is exhausted. Rays within one
// session run in request order; ordering across sessions is unspecified.
func (s *Scheduler) Tick(now time.Time) {
	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		sess.Advance(s.cfg.RaysPerTick, now)
		if sess.State() == SessionExhausted {
			s.activeCount--
			s.finishSession(sess, now)
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept
}

func (s *Scheduler) finishSession(sess *Session, now time.Time) {
	if s.stats != nil {
		s.stats.AddScanCompleted()
	}
	if s.recorder != nil {
		s.recorder.SessionCompleted(sess.id, now, sess.raysCast, sess.hits, sess.pointsEmitted)
	}
}

// Sessions returns the in-flight sessions, for diagnostics readouts.
func (s *Scheduler) Sessions() []*Session {
	out := make([]*Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// ActiveSessions returns the number of in-flight sessions.
func (s *Scheduler) ActiveSessions() int {
	return s.activeCount
}

// LastScanStart returns when the most recent scan was admitted, and whether
// any scan has started yet.
func (s *Scheduler) LastScanStart() (time.Time, bool) {
	return s.lastScanStart, s.everStarted
}

// Config returns the scheduler's immutable configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Occupancy reads the sink's current occupancy snapshot.
func (s *Scheduler) Occupancy() sink.Occupancy {
	return s.sink.Occupancy()
}
