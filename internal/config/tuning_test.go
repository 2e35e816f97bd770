package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/arcontrol/internal/placement"
	"github.com/banshee-data/arcontrol/internal/steering"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.SmoothingAlpha == nil || *cfg.SmoothingAlpha != 0.5 {
		t.Errorf("Expected SmoothingAlpha 0.5, got %v", cfg.SmoothingAlpha)
	}
	if cfg.MeasureDistance == nil || *cfg.MeasureDistance != 0.1 {
		t.Errorf("Expected MeasureDistance 0.1, got %v", cfg.MeasureDistance)
	}
	if cfg.TickInterval == nil || *cfg.TickInterval != "16ms" {
		t.Errorf("Expected TickInterval '16ms', got %v", cfg.TickInterval)
	}

	if cfg.GetSmoothingAlpha() != 0.5 {
		t.Errorf("GetSmoothingAlpha() = %f, want 0.5", cfg.GetSmoothingAlpha())
	}
	if got := cfg.GetForceMap(); got != steering.DefaultForceMap() {
		t.Errorf("GetForceMap() = %+v, want defaults", got)
	}
	if got := cfg.GetDistances(); got != placement.DefaultDistances() {
		t.Errorf("GetDistances() = %+v, want defaults", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if cfg.GetSmoothingAlpha() != steering.DefaultAlpha {
		t.Errorf("GetSmoothingAlpha() = %f", cfg.GetSmoothingAlpha())
	}
	if cfg.GetTickInterval() != 16*time.Millisecond {
		t.Errorf("GetTickInterval() = %v", cfg.GetTickInterval())
	}
	if cfg.GetSampleInterval() != 16*time.Millisecond {
		t.Errorf("GetSampleInterval() = %v", cfg.GetSampleInterval())
	}
	if cfg.GetValidatePoses() {
		t.Error("GetValidatePoses() should default to false")
	}
	if !cfg.GetRecordSamples() {
		t.Error("GetRecordSamples() should default to true")
	}
	if cfg.GetLengthUnits() != "m" {
		t.Errorf("GetLengthUnits() = %q", cfg.GetLengthUnits())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "smoothing_alpha": 0.25,
  "engine_force": 80,
  "measure_distance": 0.2,
  "tick_interval": "33ms",
  "validate_poses": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetSmoothingAlpha() != 0.25 {
		t.Errorf("Expected SmoothingAlpha 0.25, got %v", cfg.GetSmoothingAlpha())
	}
	if m := cfg.GetForceMap(); m.Engine != 80 || m.Braking != steering.DefaultBrakingForce {
		t.Errorf("Unexpected force map %+v", m)
	}
	if d := cfg.GetDistances(); d.Measure != 0.2 || d.Draw != placement.DefaultDrawDistance {
		t.Errorf("Unexpected distances %+v", d)
	}
	if cfg.GetTickInterval() != 33*time.Millisecond {
		t.Errorf("Expected tick 33ms, got %v", cfg.GetTickInterval())
	}
	if !cfg.GetValidatePoses() {
		t.Error("Expected ValidatePoses true")
	}
}

func TestLoadTuningConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tuning.yaml")

	testYAML := "smoothing_alpha: 0.75\nbraking_force: 200\nlength_units: cm\n"
	if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetSmoothingAlpha() != 0.75 {
		t.Errorf("Expected SmoothingAlpha 0.75, got %v", cfg.GetSmoothingAlpha())
	}
	if cfg.GetForceMap().Braking != 200 {
		t.Errorf("Expected braking 200, got %v", cfg.GetForceMap().Braking)
	}
	if cfg.GetLengthUnits() != "cm" {
		t.Errorf("Expected cm, got %q", cfg.GetLengthUnits())
	}
}

func TestLoadTuningConfigYAMLRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"nan engine force", "engine_force: .nan\n"},
		{"inf braking force", "braking_force: .inf\n"},
		{"inf draw distance", "draw_distance: .inf\n"},
		{"negative inf spawn distance", "spawn_distance: -.inf\n"},
		{"nan measure distance", "measure_distance: .nan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "tuning.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			if cfg, err := LoadTuningConfig(configPath); err == nil {
				t.Errorf("Expected error for %q, got config %+v", tt.yaml, cfg.GetForceMap())
			}
		})
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigWrongExtension(t *testing.T) {
	_, err := LoadTuningConfig("tuning.toml")
	if err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "smoothing_alpha": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadTuningConfigRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad_alpha.json")
	if err := os.WriteFile(configPath, []byte(`{"smoothing_alpha": 0}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("Expected validation error for alpha 0, got nil")
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults file invalid: %v", err)
	}
	if cfg.GetSmoothingAlpha() != DefaultTuningConfig().GetSmoothingAlpha() {
		t.Errorf("defaults file alpha %v differs from DefaultTuningConfig", cfg.GetSmoothingAlpha())
	}
	if cfg.GetDistances() != DefaultTuningConfig().GetDistances() {
		t.Errorf("defaults file distances %+v differ from DefaultTuningConfig", cfg.GetDistances())
	}
}

func TestMerge(t *testing.T) {
	cfg := DefaultTuningConfig()
	cfg.Merge(&TuningConfig{SmoothingAlpha: ptrFloat64(0.9), RecordSamples: ptrBool(false)})
	cfg.Merge(nil)

	if cfg.GetSmoothingAlpha() != 0.9 {
		t.Errorf("Merge did not override alpha: %v", cfg.GetSmoothingAlpha())
	}
	if cfg.GetRecordSamples() {
		t.Error("Merge did not override record_samples")
	}
	if cfg.GetForceMap().Engine != steering.DefaultEngineForce {
		t.Error("Merge clobbered an unset field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{name: "valid config", cfg: DefaultTuningConfig()},
		{name: "empty config is valid", cfg: &TuningConfig{}},
		{name: "alpha one is valid", cfg: &TuningConfig{SmoothingAlpha: ptrFloat64(1)}},
		{name: "alpha zero", cfg: &TuningConfig{SmoothingAlpha: ptrFloat64(0)}, wantErr: true},
		{name: "alpha too high", cfg: &TuningConfig{SmoothingAlpha: ptrFloat64(1.5)}, wantErr: true},
		{name: "negative engine force", cfg: &TuningConfig{EngineForce: ptrFloat64(-1)}, wantErr: true},
		{name: "negative braking force", cfg: &TuningConfig{BrakingForce: ptrFloat64(-1)}, wantErr: true},
		{name: "zero draw distance", cfg: &TuningConfig{DrawDistance: ptrFloat64(0)}, wantErr: true},
		{name: "negative measure distance", cfg: &TuningConfig{MeasureDistance: ptrFloat64(-0.1)}, wantErr: true},
		{name: "invalid tick interval", cfg: &TuningConfig{TickInterval: ptrString("invalid")}, wantErr: true},
		{name: "negative sample interval", cfg: &TuningConfig{SampleInterval: ptrString("-5ms")}, wantErr: true},
		{name: "unknown units", cfg: &TuningConfig{LengthUnits: ptrString("mph")}, wantErr: true},
		{name: "NaN alpha", cfg: &TuningConfig{SmoothingAlpha: ptrFloat64(math.NaN())}, wantErr: true},
		{name: "NaN engine force", cfg: &TuningConfig{EngineForce: ptrFloat64(math.NaN())}, wantErr: true},
		{name: "infinite engine force", cfg: &TuningConfig{EngineForce: ptrFloat64(math.Inf(1))}, wantErr: true},
		{name: "NaN braking force", cfg: &TuningConfig{BrakingForce: ptrFloat64(math.NaN())}, wantErr: true},
		{name: "infinite braking force", cfg: &TuningConfig{BrakingForce: ptrFloat64(math.Inf(1))}, wantErr: true},
		{name: "infinite draw distance", cfg: &TuningConfig{DrawDistance: ptrFloat64(math.Inf(1))}, wantErr: true},
		{name: "infinite spawn distance", cfg: &TuningConfig{SpawnDistance: ptrFloat64(math.Inf(1))}, wantErr: true},
		{name: "NaN measure distance", cfg: &TuningConfig{MeasureDistance: ptrFloat64(math.NaN())}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
