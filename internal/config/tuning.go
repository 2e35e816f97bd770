package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/arcontrol/internal/placement"
	"github.com/banshee-data/arcontrol/internal/steering"
	"github.com/banshee-data/arcontrol/internal/units"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the values that change how the controls feel rather
// than whether they are correct. The JSON schema matches the
// /api/config endpoint so the same document works at startup and at runtime.
type TuningConfig struct {
	// Steering filter
	SmoothingAlpha *float64 `json:"smoothing_alpha,omitempty" yaml:"smoothing_alpha,omitempty"`

	// Vehicle actuator
	EngineForce  *float64 `json:"engine_force,omitempty" yaml:"engine_force,omitempty"`
	BrakingForce *float64 `json:"braking_force,omitempty" yaml:"braking_force,omitempty"`

	// Placement distances in meters
	DrawDistance    *float64 `json:"draw_distance,omitempty" yaml:"draw_distance,omitempty"`
	SpawnDistance   *float64 `json:"spawn_distance,omitempty" yaml:"spawn_distance,omitempty"`
	MeasureDistance *float64 `json:"measure_distance,omitempty" yaml:"measure_distance,omitempty"`
	ValidatePoses   *bool    `json:"validate_poses,omitempty" yaml:"validate_poses,omitempty"`

	// Drive loop
	SampleInterval *string `json:"sample_interval,omitempty" yaml:"sample_interval,omitempty"` // duration string like "16ms"
	TickInterval   *string `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"`
	RecordSamples  *bool   `json:"record_samples,omitempty" yaml:"record_samples,omitempty"`

	// Display
	LengthUnits *string `json:"length_units,omitempty" yaml:"length_units,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		SmoothingAlpha:  ptrFloat64(steering.DefaultAlpha),
		EngineForce:     ptrFloat64(steering.DefaultEngineForce),
		BrakingForce:    ptrFloat64(steering.DefaultBrakingForce),
		DrawDistance:    ptrFloat64(placement.DefaultDrawDistance),
		SpawnDistance:   ptrFloat64(placement.DefaultSpawnDistance),
		MeasureDistance: ptrFloat64(placement.DefaultMeasureDistance),
		ValidatePoses:   ptrBool(false),
		SampleInterval:  ptrString("16ms"),
		TickInterval:    ptrString("16ms"),
		RecordSamples:   ptrBool(true),
		LengthUnits:     ptrString(units.Meters),
	}
}

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file.
// Fields omitted from the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/steer-plot/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Merge copies every non-nil field of other into c.
func (c *TuningConfig) Merge(other *TuningConfig) {
	if other == nil {
		return
	}
	if other.SmoothingAlpha != nil {
		c.SmoothingAlpha = other.SmoothingAlpha
	}
	if other.EngineForce != nil {
		c.EngineForce = other.EngineForce
	}
	if other.BrakingForce != nil {
		c.BrakingForce = other.BrakingForce
	}
	if other.DrawDistance != nil {
		c.DrawDistance = other.DrawDistance
	}
	if other.SpawnDistance != nil {
		c.SpawnDistance = other.SpawnDistance
	}
	if other.MeasureDistance != nil {
		c.MeasureDistance = other.MeasureDistance
	}
	if other.ValidatePoses != nil {
		c.ValidatePoses = other.ValidatePoses
	}
	if other.SampleInterval != nil {
		c.SampleInterval = other.SampleInterval
	}
	if other.TickInterval != nil {
		c.TickInterval = other.TickInterval
	}
	if other.RecordSamples != nil {
		c.RecordSamples = other.RecordSamples
	}
	if other.LengthUnits != nil {
		c.LengthUnits = other.LengthUnits
	}
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, f := range map[string]*float64{
		"smoothing_alpha":  c.SmoothingAlpha,
		"engine_force":     c.EngineForce,
		"braking_force":    c.BrakingForce,
		"draw_distance":    c.DrawDistance,
		"spawn_distance":   c.SpawnDistance,
		"measure_distance": c.MeasureDistance,
	} {
		if f != nil && (math.IsNaN(*f) || math.IsInf(*f, 0)) {
			return fmt.Errorf("%s must be finite, got %f", name, *f)
		}
	}

	if c.SmoothingAlpha != nil {
		if !(*c.SmoothingAlpha > 0 && *c.SmoothingAlpha <= 1) {
			return fmt.Errorf("smoothing_alpha must be in (0, 1], got %f", *c.SmoothingAlpha)
		}
	}

	if c.EngineForce != nil && *c.EngineForce < 0 {
		return fmt.Errorf("engine_force must be non-negative, got %f", *c.EngineForce)
	}
	if c.BrakingForce != nil && *c.BrakingForce < 0 {
		return fmt.Errorf("braking_force must be non-negative, got %f", *c.BrakingForce)
	}

	for name, d := range map[string]*float64{
		"draw_distance":    c.DrawDistance,
		"spawn_distance":   c.SpawnDistance,
		"measure_distance": c.MeasureDistance,
	} {
		if d != nil && !(*d > 0) {
			return fmt.Errorf("%s must be positive, got %f", name, *d)
		}
	}

	for name, s := range map[string]*string{
		"sample_interval": c.SampleInterval,
		"tick_interval":   c.TickInterval,
	} {
		if s == nil || *s == "" {
			continue
		}
		d, err := time.ParseDuration(*s)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *s, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *s)
		}
	}

	if c.LengthUnits != nil {
		if !units.IsValid(*c.LengthUnits) {
			return fmt.Errorf("length_units must be one of %s, got %q", units.GetValidUnitsString(), *c.LengthUnits)
		}
	}

	return nil
}

// GetSmoothingAlpha returns the smoothing_alpha value or the default.
func (c *TuningConfig) GetSmoothingAlpha() float64 {
	if c.SmoothingAlpha == nil {
		return steering.DefaultAlpha
	}
	return *c.SmoothingAlpha
}

// GetForceMap returns the actuator magnitudes.
func (c *TuningConfig) GetForceMap() steering.ForceMap {
	m := steering.DefaultForceMap()
	if c.EngineForce != nil {
		m.Engine = *c.EngineForce
	}
	if c.BrakingForce != nil {
		m.Braking = *c.BrakingForce
	}
	return m
}

// GetDistances returns the per-site placement distances.
func (c *TuningConfig) GetDistances() placement.Distances {
	d := placement.DefaultDistances()
	if c.DrawDistance != nil {
		d.Draw = *c.DrawDistance
	}
	if c.SpawnDistance != nil {
		d.Spawn = *c.SpawnDistance
	}
	if c.MeasureDistance != nil {
		d.Measure = *c.MeasureDistance
	}
	return d
}

// GetValidatePoses returns the validate_poses value or the default.
func (c *TuningConfig) GetValidatePoses() bool {
	if c.ValidatePoses == nil {
		return false
	}
	return *c.ValidatePoses
}

// GetSampleInterval returns the expected accelerometer sample period.
func (c *TuningConfig) GetSampleInterval() time.Duration {
	return parseDurationOr(c.SampleInterval, 16*time.Millisecond)
}

// GetTickInterval returns the vehicle control tick period.
func (c *TuningConfig) GetTickInterval() time.Duration {
	return parseDurationOr(c.TickInterval, 16*time.Millisecond)
}

// GetRecordSamples returns the record_samples value or the default.
func (c *TuningConfig) GetRecordSamples() bool {
	if c.RecordSamples == nil {
		return true
	}
	return *c.RecordSamples
}

// GetLengthUnits returns the length_units value or the default.
func (c *TuningConfig) GetLengthUnits() string {
	if c.LengthUnits == nil || *c.LengthUnits == "" {
		return units.Meters
	}
	return *c.LengthUnits
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil || d <= 0 {
		return def // default on parse error
	}
	return d
}
