package tracking

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds holds every tunable cut point used by the engine and the tracking session.
// It is passed by value and never mutated after construction.
type Thresholds struct {
	// GPS quality tiers, in meters of horizontal accuracy.
	OptimalAccuracyM float64 `yaml:"optimal_accuracy_m" json:"optimalAccuracyM"`
	GoodAccuracyM    float64 `yaml:"good_accuracy_m" json:"goodAccuracyM"`
	FairAccuracyM    float64 `yaml:"fair_accuracy_m" json:"fairAccuracyM"`

	// UnusableAccuracyM is the ceiling above which a fix is never used, regardless of history.
	UnusableAccuracyM float64 `yaml:"unusable_accuracy_m" json:"unusableAccuracyM"`
	// AccuracyJumpFactor rejects a worse-than-GOOD fix whose accuracy exceeds
	// this multiple of the recent history mean.
	AccuracyJumpFactor float64 `yaml:"accuracy_jump_factor" json:"accuracyJumpFactor"`
	// DegradingSlopeM is the per-sample accuracy growth that marks history as degrading.
	DegradingSlopeM float64 `yaml:"degrading_slope_m" json:"degradingSlopeM"`

	// Calibration
	CalibrationSampleSize int           `yaml:"calibration_sample_size" json:"calibrationSampleSize"`
	CalibrationMinElapsed time.Duration `yaml:"calibration_min_elapsed" json:"calibrationMinElapsed"`

	// Stationary detection
	StationarySpeedMPS      float64 `yaml:"stationary_speed_mps" json:"stationarySpeedMps"`
	StationaryRadiusM       float64 `yaml:"stationary_radius_m" json:"stationaryRadiusM"`
	StationaryWindowSize    int     `yaml:"stationary_window_size" json:"stationaryWindowSize"`
	StationaryDebounceCount int     `yaml:"stationary_debounce_count" json:"stationaryDebounceCount"`

	// Point collection
	MinMovementM       float64       `yaml:"min_movement_m" json:"minMovementM"`
	MinSampleInterval  time.Duration `yaml:"min_sample_interval" json:"minSampleInterval"`
	FastMovementFactor float64       `yaml:"fast_movement_factor" json:"fastMovementFactor"`

	// Path buffer flushing
	MaxSegmentGapM     float64       `yaml:"max_segment_gap_m" json:"maxSegmentGapM"`
	MaxSegmentDuration time.Duration `yaml:"max_segment_duration" json:"maxSegmentDuration"`
	MaxSegmentPoints   int           `yaml:"max_segment_points" json:"maxSegmentPoints"`
}

// DefaultThresholds provides the default tracking thresholds
var DefaultThresholds = Thresholds{
	OptimalAccuracyM: 5,
	GoodAccuracyM:    10,
	FairAccuracyM:    20,

	UnusableAccuracyM:  50,
	AccuracyJumpFactor: 2.0,
	DegradingSlopeM:    2.0,

	CalibrationSampleSize: 5,
	CalibrationMinElapsed: 5 * time.Second,

	StationarySpeedMPS:      0.5,
	StationaryRadiusM:       3,
	StationaryWindowSize:    5,
	StationaryDebounceCount: 3,

	MinMovementM:       5,
	MinSampleInterval:  time.Second,
	FastMovementFactor: 3,

	MaxSegmentGapM:     100,
	MaxSegmentDuration: 5 * time.Minute,
	MaxSegmentPoints:   100,
}

// Validate checks that the thresholds are internally consistent.
func (t Thresholds) Validate() error {
	var errs []error

	if !(t.OptimalAccuracyM > 0 && t.OptimalAccuracyM <= t.GoodAccuracyM &&
		t.GoodAccuracyM <= t.FairAccuracyM && t.FairAccuracyM <= t.UnusableAccuracyM) {
		errs = append(errs, fmt.Errorf("accuracy cut points must satisfy 0 < optimal <= good <= fair <= unusable, got %v/%v/%v/%v",
			t.OptimalAccuracyM, t.GoodAccuracyM, t.FairAccuracyM, t.UnusableAccuracyM))
	}
	if t.AccuracyJumpFactor < 1 {
		errs = append(errs, fmt.Errorf("accuracy_jump_factor must be >= 1, got %v", t.AccuracyJumpFactor))
	}
	if t.DegradingSlopeM <= 0 {
		errs = append(errs, fmt.Errorf("degrading_slope_m must be > 0, got %v", t.DegradingSlopeM))
	}
	if t.CalibrationSampleSize < 1 {
		errs = append(errs, fmt.Errorf("calibration_sample_size must be >= 1, got %d", t.CalibrationSampleSize))
	}
	if t.CalibrationMinElapsed < 0 {
		errs = append(errs, fmt.Errorf("calibration_min_elapsed must not be negative"))
	}
	if t.StationarySpeedMPS <= 0 || t.StationaryRadiusM <= 0 {
		errs = append(errs, fmt.Errorf("stationary speed and radius must be > 0"))
	}
	if t.StationaryWindowSize < 2 {
		errs = append(errs, fmt.Errorf("stationary_window_size must be >= 2, got %d", t.StationaryWindowSize))
	}
	if t.StationaryDebounceCount < 1 {
		errs = append(errs, fmt.Errorf("stationary_debounce_count must be >= 1, got %d", t.StationaryDebounceCount))
	}
	if t.MinMovementM < 0 || t.MinSampleInterval < 0 || t.FastMovementFactor < 1 {
		errs = append(errs, fmt.Errorf("min_movement_m and min_sample_interval must be >= 0 and fast_movement_factor >= 1"))
	}
	if t.MaxSegmentGapM <= t.MinMovementM {
		errs = append(errs, fmt.Errorf("max_segment_gap_m (%v) must exceed min_movement_m (%v)", t.MaxSegmentGapM, t.MinMovementM))
	}
	if t.MaxSegmentDuration <= 0 || t.MaxSegmentPoints < 2 {
		errs = append(errs, fmt.Errorf("max_segment_duration must be > 0 and max_segment_points >= 2"))
	}

	return errors.Join(errs...)
}

// LoadThresholds reads a YAML file on top of DefaultThresholds.
// Keys missing from the file keep their default values.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds
	if path == "" {
		return th, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return Thresholds{}, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if err := th.Validate(); err != nil {
		return Thresholds{}, fmt.Errorf("invalid thresholds %s: %w", path, err)
	}
	return th, nil
}
