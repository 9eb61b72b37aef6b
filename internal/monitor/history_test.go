package monitor

import (
	"testing"
	"time"
)

func TestHistoryAppendAndRead(t *testing.T) {
	h := NewHistory(10)
	base := time.Now()
	for i := 0; i < 3; i++ {
		h.Append(Sample{Time: base.Add(time.Duration(i) * time.Second), Occupancy: i})
	}
	samples := h.Samples()
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0].Occupancy != 0 || samples[2].Occupancy != 2 {
		t.Errorf("samples out of order: %+v", samples)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(Sample{Occupancy: i})
	}
	samples := h.Samples()
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0].Occupancy != 2 || samples[2].Occupancy != 4 {
		t.Errorf("expected samples 2..4 retained, got %+v", samples)
	}
}

func TestHistoryDefaultSize(t *testing.T) {
	h := NewHistory(0)
	if h.max != 600 {
		t.Errorf("default max %d, want 600", h.max)
	}
}

func TestHistorySamplesReturnsCopy(t *testing.T) {
	h := NewHistory(10)
	h.Append(Sample{Occupancy: 1})
	samples := h.Samples()
	samples[0].Occupancy = 99
	if h.Samples()[0].Occupancy != 1 {
		t.Error("Samples must return a copy")
	}
}
