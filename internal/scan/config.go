// Package scan implements the LiDAR scan scheduling and admission-control
// pipeline: triggered scans are rate-limited, decomposed into per-tick ray
// batches bounded by the sink's point capacity, and converted into
// timestamped point records.
package scan

import (
	"fmt"
	"time"

	"github.com/ln6000/lidar-unity/internal/sink"
)

// Unbounded disables the concurrency limit when used as
// Config.ConcurrencyLimit.
const Unbounded = -1

// Config holds the immutable parameters of one scanner. It is set at
// construction and never mutated for the scheduler's lifetime.
type Config struct {
	// SensorID identifies the scanner in logs and persisted records.
	SensorID string
	// ConeAngleDeg is the full angular width of the sampling cone, in
	// degrees. Zero collapses every ray onto the sensor's forward axis.
	ConeAngleDeg float64
	// MaxRange is the maximum ray distance in meters.
	MaxRange float64
	// PointsPerScan is the ray quota of one scan. Also the worst-case
	// reservation used by the admission capacity check.
	PointsPerScan int
	// RaysPerTick bounds how many rays one session casts per scheduling
	// tick, spreading a scan over multiple ticks to avoid frame stalls.
	RaysPerTick int
	// MinScanInterval throttles the continuous-hold trigger path. A fresh
	// discrete trigger is exempt.
	MinScanInterval time.Duration
	// ConcurrencyLimit caps simultaneously active sessions. Unbounded (-1)
	// disables the check.
	ConcurrencyLimit int
	// PointLifetime is stamped onto every emitted record.
	PointLifetime time.Duration
	// FilterMask selects which scene layers rays may hit.
	FilterMask uint32
	// PointSize and PointColor are passed through to emitted records.
	PointSize  float64
	PointColor sink.Color
}

// Validate fails fast on malformed configuration. The scheduler refuses to
// construct with an invalid config rather than silently clamping values
// into an infinite-loop state.
func (c Config) Validate() error {
	if c.RaysPerTick < 1 {
		return fmt.Errorf("rays per tick must be >= 1, got %d", c.RaysPerTick)
	}
	if c.PointsPerScan < 0 {
		return fmt.Errorf("points per scan must be >= 0, got %d", c.PointsPerScan)
	}
	if c.ConeAngleDeg < 0 {
		return fmt.Errorf("cone angle must be non-negative, got %f", c.ConeAngleDeg)
	}
	if c.ConeAngleDeg > 360 {
		return fmt.Errorf("cone angle must be <= 360 degrees, got %f", c.ConeAngleDeg)
	}
	if c.MaxRange <= 0 {
		return fmt.Errorf("max range must be positive, got %f", c.MaxRange)
	}
	if c.MinScanInterval < 0 {
		return fmt.Errorf("min scan interval must be non-negative, got %s", c.MinScanInterval)
	}
	if c.ConcurrencyLimit < Unbounded {
		return fmt.Errorf("concurrency limit must be -1 (unbounded) or >= 0, got %d", c.ConcurrencyLimit)
	}
	if c.PointLifetime <= 0 {
		return fmt.Errorf("point lifetime must be positive, got %s", c.PointLifetime)
	}
	return nil
}
