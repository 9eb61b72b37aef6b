// Package config loads the simulator's JSON tuning file. Fields omitted
// from the file keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig represents the root configuration for scan tuning
// parameters. All fields are optional pointers; Get* accessors supply the
// defaults.
type TuningConfig struct {
	// Scan shape
	ConeAngleDegrees *float64 `json:"cone_angle_degrees,omitempty"`
	MaxRangeMeters   *float64 `json:"max_range_meters,omitempty"`
	PointsPerScan    *int     `json:"points_per_scan,omitempty"`
	RaysPerTick      *int     `json:"rays_per_tick,omitempty"`

	// Scheduling
	MinScanInterval  *string `json:"min_scan_interval,omitempty"` // duration string like "250ms"
	ConcurrencyLimit *int    `json:"concurrency_limit,omitempty"` // -1 = unbounded

	// Point attributes
	PointLifetime *string  `json:"point_lifetime,omitempty"` // duration string like "10s"
	PointSize     *float64 `json:"point_size,omitempty"`
	FilterMask    *uint32  `json:"filter_mask,omitempty"`

	// Sink sizing
	SinkCapacity *int `json:"sink_capacity,omitempty"` // 0 = derive from rate x lifetime
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// have a .json extension and the file must be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ConeAngleDegrees != nil {
		if *c.ConeAngleDegrees < 0 || *c.ConeAngleDegrees > 360 {
			return fmt.Errorf("cone_angle_degrees must be between 0 and 360, got %f", *c.ConeAngleDegrees)
		}
	}
	if c.MaxRangeMeters != nil && *c.MaxRangeMeters <= 0 {
		return fmt.Errorf("max_range_meters must be positive, got %f", *c.MaxRangeMeters)
	}
	if c.PointsPerScan != nil && *c.PointsPerScan < 0 {
		return fmt.Errorf("points_per_scan must be non-negative, got %d", *c.PointsPerScan)
	}
	if c.RaysPerTick != nil && *c.RaysPerTick < 1 {
		return fmt.Errorf("rays_per_tick must be >= 1, got %d", *c.RaysPerTick)
	}
	if c.MinScanInterval != nil && *c.MinScanInterval != "" {
		if _, err := time.ParseDuration(*c.MinScanInterval); err != nil {
			return fmt.Errorf("invalid min_scan_interval '%s': %w", *c.MinScanInterval, err)
		}
	}
	if c.ConcurrencyLimit != nil && *c.ConcurrencyLimit < -1 {
		return fmt.Errorf("concurrency_limit must be -1 (unbounded) or >= 0, got %d", *c.ConcurrencyLimit)
	}
	if c.PointLifetime != nil && *c.PointLifetime != "" {
		if _, err := time.ParseDuration(*c.PointLifetime); err != nil {
			return fmt.Errorf("invalid point_lifetime '%s': %w", *c.PointLifetime, err)
		}
	}
	if c.PointSize != nil && *c.PointSize <= 0 {
		return fmt.Errorf("point_size must be positive, got %f", *c.PointSize)
	}
	if c.SinkCapacity != nil && *c.SinkCapacity < 0 {
		return fmt.Errorf("sink_capacity must be non-negative, got %d", *c.SinkCapacity)
	}
	return nil
}

// GetConeAngleDegrees returns the cone_angle_degrees value or the default.
func (c *TuningConfig) GetConeAngleDegrees() float64 {
	if c.ConeAngleDegrees == nil {
		return 30.0
	}
	return *c.ConeAngleDegrees
}

// GetMaxRangeMeters returns the max_range_meters value or the default.
func (c *TuningConfig) GetMaxRangeMeters() float64 {
	if c.MaxRangeMeters == nil {
		return 100.0
	}
	return *c.MaxRangeMeters
}

// GetPointsPerScan returns the points_per_scan value or the default.
func (c *TuningConfig) GetPointsPerScan() int {
	if c.PointsPerScan == nil {
		return 200
	}
	return *c.PointsPerScan
}

// GetRaysPerTick returns the rays_per_tick value or the default.
func (c *TuningConfig) GetRaysPerTick() int {
	if c.RaysPerTick == nil {
		return 16
	}
	return *c.RaysPerTick
}

// GetMinScanInterval parses and returns min_scan_interval as a duration.
func (c *TuningConfig) GetMinScanInterval() time.Duration {
	if c.MinScanInterval == nil || *c.MinScanInterval == "" {
		return 250 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.MinScanInterval)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}

// GetConcurrencyLimit returns the concurrency_limit value or the default
// (unbounded).
func (c *TuningConfig) GetConcurrencyLimit() int {
	if c.ConcurrencyLimit == nil {
		return -1
	}
	return *c.ConcurrencyLimit
}

// GetPointLifetime parses and returns point_lifetime as a duration.
func (c *TuningConfig) GetPointLifetime() time.Duration {
	if c.PointLifetime == nil || *c.PointLifetime == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(*c.PointLifetime)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetPointSize returns the point_size value or the default.
func (c *TuningConfig) GetPointSize() float64 {
	if c.PointSize == nil {
		return 0.05
	}
	return *c.PointSize
}

// GetFilterMask returns the filter_mask value or the default (all layers).
func (c *TuningConfig) GetFilterMask() uint32 {
	if c.FilterMask == nil {
		return 0xFFFFFFFF
	}
	return *c.FilterMask
}

// GetSinkCapacity returns the sink_capacity value, or 0 to signal that the
// capacity should be derived from the emit rate and point lifetime.
func (c *TuningConfig) GetSinkCapacity() int {
	if c.SinkCapacity == nil {
		return 0
	}
	return *c.SinkCapacity
}
