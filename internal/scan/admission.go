package scan

import "github.com/ln6000/lidar-unity/internal/sink"

// RejectReason explains why an admission attempt failed.
type RejectReason string

const (
	// RejectNone means the attempt was admitted.
	RejectNone RejectReason = ""
	// RejectCapacity means the sink lacks headroom for the scan's
	// worst-case point count.
	RejectCapacity RejectReason = "capacity"
	// RejectConcurrency means the active-session limit is reached.
	RejectConcurrency RejectReason = "concurrency"
)

// AdmissionController decides whether a new scan may start. It is a pure
// predicate: no side effects, no caching, re-evaluated on every attempt.
type AdmissionController struct {
	// ConcurrencyLimit caps active sessions; Unbounded (-1) disables the
	// check.
	ConcurrencyLimit int
}

// CanStart applies the admission policy in order. The capacity check comes
// first: it is the dominant real-world constraint and prevents the sink
// from silently dropping near its bound. sessionCost is the worst-case
// reservation (the scan's full ray quota, not its eventual hit count),
// which keeps occupancy overshoot from the admission/emit race bounded.
func (a AdmissionController) CanStart(occ sink.Occupancy, sessionCost, activeCount int) (bool, RejectReason) {
	if occ.CurrentCount+sessionCost > occ.Capacity {
		return false, RejectCapacity
	}
	if a.ConcurrencyLimit != Unbounded && activeCount >= a.ConcurrencyLimit {
		return false, RejectConcurrency
	}
	return true, RejectNone
}
