package monitor

import (
	"sync"
	"time"
)

// Sample is one periodic observation of the scan pipeline, used to plot
// occupancy and session history.
type Sample struct {
	Time           time.Time `json:"time"`
	Occupancy      int       `json:"occupancy"`
	Capacity       int       `json:"capacity"`
	ActiveSessions int       `json:"active_sessions"`
}

// History is a bounded ring of recent samples. The tick loop appends; the
// HTTP handlers read.
type History struct {
	mu      sync.Mutex
	samples []Sample
	max     int
}

// NewHistory creates a History retaining at most max samples.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 600
	}
	return &History{max: max}
}

// Append records a sample, evicting the oldest when full.
func (h *History) Append(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, s)
	if len(h.samples) > h.max {
		h.samples = h.samples[len(h.samples)-h.max:]
	}
}

// Samples returns a copy of the retained samples, oldest first.
func (h *History) Samples() []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}
