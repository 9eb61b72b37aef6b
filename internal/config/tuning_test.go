package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func float64Ptr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

func stringPtr(s string) *string { return &s }

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetConeAngleDegrees(); got != 30.0 {
		t.Errorf("cone angle default = %f, want 30", got)
	}
	if got := cfg.GetMaxRangeMeters(); got != 100.0 {
		t.Errorf("max range default = %f, want 100", got)
	}
	if got := cfg.GetPointsPerScan(); got != 200 {
		t.Errorf("points per scan default = %d, want 200", got)
	}
	if got := cfg.GetRaysPerTick(); got != 16 {
		t.Errorf("rays per tick default = %d, want 16", got)
	}
	if got := cfg.GetMinScanInterval(); got != 250*time.Millisecond {
		t.Errorf("min scan interval default = %s, want 250ms", got)
	}
	if got := cfg.GetConcurrencyLimit(); got != -1 {
		t.Errorf("concurrency limit default = %d, want -1", got)
	}
	if got := cfg.GetPointLifetime(); got != 10*time.Second {
		t.Errorf("point lifetime default = %s, want 10s", got)
	}
	if got := cfg.GetPointSize(); got != 0.05 {
		t.Errorf("point size default = %f, want 0.05", got)
	}
	if got := cfg.GetFilterMask(); got != 0xFFFFFFFF {
		t.Errorf("filter mask default = %#x, want all layers", got)
	}
	if got := cfg.GetSinkCapacity(); got != 0 {
		t.Errorf("sink capacity default = %d, want 0 (derived)", got)
	}
}

func TestExplicitValuesOverrideDefaults(t *testing.T) {
	cfg := &TuningConfig{
		ConeAngleDegrees: float64Ptr(15),
		PointsPerScan:    intPtr(500),
		MinScanInterval:  stringPtr("1s"),
		ConcurrencyLimit: intPtr(3),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if got := cfg.GetConeAngleDegrees(); got != 15 {
		t.Errorf("cone angle = %f, want 15", got)
	}
	if got := cfg.GetPointsPerScan(); got != 500 {
		t.Errorf("points per scan = %d, want 500", got)
	}
	if got := cfg.GetMinScanInterval(); got != time.Second {
		t.Errorf("min scan interval = %s, want 1s", got)
	}
	if got := cfg.GetConcurrencyLimit(); got != 3 {
		t.Errorf("concurrency limit = %d, want 3", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  TuningConfig
	}{
		{"negative cone angle", TuningConfig{ConeAngleDegrees: float64Ptr(-1)}},
		{"cone angle over 360", TuningConfig{ConeAngleDegrees: float64Ptr(361)}},
		{"zero max range", TuningConfig{MaxRangeMeters: float64Ptr(0)}},
		{"negative points per scan", TuningConfig{PointsPerScan: intPtr(-1)}},
		{"zero rays per tick", TuningConfig{RaysPerTick: intPtr(0)}},
		{"garbage interval", TuningConfig{MinScanInterval: stringPtr("soon")}},
		{"concurrency below -1", TuningConfig{ConcurrencyLimit: intPtr(-2)}},
		{"garbage lifetime", TuningConfig{PointLifetime: stringPtr("10 seconds")}},
		{"zero point size", TuningConfig{PointSize: float64Ptr(0)}},
		{"negative sink capacity", TuningConfig{SinkCapacity: intPtr(-1)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsBoundaryValues(t *testing.T) {
	cfg := TuningConfig{
		ConeAngleDegrees: float64Ptr(0),
		PointsPerScan:    intPtr(0),
		RaysPerTick:      intPtr(1),
		ConcurrencyLimit: intPtr(-1),
		SinkCapacity:     intPtr(0),
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("boundary values rejected: %v", err)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	data := `{
		"cone_angle_degrees": 20,
		"points_per_scan": 128,
		"min_scan_interval": "500ms",
		"filter_mask": 5
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got := cfg.GetConeAngleDegrees(); got != 20 {
		t.Errorf("cone angle = %f, want 20", got)
	}
	if got := cfg.GetPointsPerScan(); got != 128 {
		t.Errorf("points per scan = %d, want 128", got)
	}
	if got := cfg.GetMinScanInterval(); got != 500*time.Millisecond {
		t.Errorf("min scan interval = %s, want 500ms", got)
	}
	if got := cfg.GetFilterMask(); got != 5 {
		t.Errorf("filter mask = %d, want 5", got)
	}
	// Omitted fields keep their defaults.
	if got := cfg.GetRaysPerTick(); got != 16 {
		t.Errorf("rays per tick = %d, want default 16", got)
	}
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadTuningConfigInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"rays_per_tick": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected validation error from load")
	}
}

func TestLoadTuningConfigMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"cone_angle_degrees": `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected parse error")
	}
}
