package tracking

import (
	"math"

	"github.com/jengzang/pathtrack-backend-go/internal/spatial"
)

// Engine evaluates raw fixes against a fixed set of thresholds.
// It holds no state between calls; rolling windows are owned by the caller.
type Engine struct {
	th Thresholds
}

// NewEngine creates an engine bound to th.
func NewEngine(th Thresholds) *Engine {
	return &Engine{th: th}
}

// Thresholds returns the engine configuration.
func (e *Engine) Thresholds() Thresholds {
	return e.th
}

// DistanceMeters returns the haversine distance between two coordinates.
func (e *Engine) DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return spatial.HaversineDistance(lat1, lon1, lat2, lon2)
}

// CalculateBearing returns the forward azimuth in [0, 360). Identical points return 0.
func (e *Engine) CalculateBearing(lat1, lon1, lat2, lon2 float64) float64 {
	return spatial.Bearing(lat1, lon1, lat2, lon2)
}

// ValidFix reports whether the fix has usable coordinates.
// Accuracy is judged separately by the quality functions.
func ValidFix(fix LocationFix) bool {
	return spatial.ValidCoordinate(fix.Latitude, fix.Longitude) && !fix.Timestamp.IsZero()
}

// Evaluate runs every engine check for one fix.
// last is the previously accepted point of the current path, or nil.
func (e *Engine) Evaluate(fix LocationFix, last *TrackedPoint, accuracyHistory []float64, recent []LocationFix) Decision {
	d := Decision{
		QualityTier: e.EvaluateGPSQuality(fix.Accuracy),
		Usable:      e.IsGPSUsable(fix.Accuracy, accuracyHistory),
		Stationary:  e.IsStationary(fix.Speed, recent),
		Accept:      e.ShouldCollectPoint(fix, last),
	}
	if last != nil && ValidFix(fix) {
		b := e.CalculateBearing(last.Latitude, last.Longitude, fix.Latitude, fix.Longitude)
		d.Bearing = &b
	}
	return d
}

// Track converts an accepted fix into a TrackedPoint.
func (e *Engine) Track(fix LocationFix, bearing *float64) TrackedPoint {
	p := TrackedPoint{
		Latitude:    fix.Latitude,
		Longitude:   fix.Longitude,
		Timestamp:   fix.Timestamp,
		Accuracy:    fix.Accuracy,
		QualityTier: e.EvaluateGPSQuality(fix.Accuracy),
		Bearing:     bearing,
	}
	if fix.SpeedKnown() && !math.IsInf(fix.Speed, 0) {
		s := fix.Speed
		p.Speed = &s
	}
	return p
}
