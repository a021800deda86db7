package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 22, 21, 42, 18, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultThresholds)
}

func fixAt(lat, lon, accuracy float64, ts time.Time) LocationFix {
	return LocationFix{Latitude: lat, Longitude: lon, Accuracy: accuracy, Speed: -1, Timestamp: ts}
}

func pointAt(lat, lon float64, ts time.Time) *TrackedPoint {
	return &TrackedPoint{Latitude: lat, Longitude: lon, Accuracy: 5, QualityTier: QualityOptimal, Timestamp: ts}
}

func TestEvaluateGPSQuality(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		accuracy float64
		want     QualityTier
	}{
		{0, QualityOptimal},
		{3, QualityOptimal},
		{5, QualityOptimal},
		{5.01, QualityGood},
		{10, QualityGood},
		{15, QualityFair},
		{20, QualityFair},
		{20.5, QualityPoor},
		{150, QualityPoor},
		{-1, QualityPoor},
		{math.NaN(), QualityPoor},
		{math.Inf(1), QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.EvaluateGPSQuality(tt.accuracy), "accuracy %v", tt.accuracy)
	}
}

func TestEvaluateGPSQualityMonotonic(t *testing.T) {
	e := newTestEngine()

	prev := e.EvaluateGPSQuality(0)
	for a := 0.0; a <= 300; a += 0.25 {
		tier := e.EvaluateGPSQuality(a)
		assert.True(t, prev.AtLeast(tier), "tier improved from %s to %s at %v", prev, tier, a)
		prev = tier
	}
}

func TestIsGPSUsable(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name     string
		accuracy float64
		history  []float64
		want     bool
	}{
		{"ceiling with empty history", 49, nil, true},
		{"above ceiling with empty history", 51, nil, false},
		{"far above ceiling", 150, []float64{5, 5, 5}, false},
		{"negative accuracy", -2, nil, false},
		{"NaN accuracy", math.NaN(), []float64{5}, false},
		{"good fix ignores history", 8, []float64{3, 3, 3, 3}, true},
		{"jump after stable history", 15, []float64{5, 5, 5, 5}, false},
		{"degrading history", 18, []float64{5, 8, 11, 14}, false},
		{"stable mediocre history", 18, []float64{15, 16, 15, 16}, true},
		{"short history skips trend", 18, []float64{12, 16}, true},
		{"invalid history samples ignored", 30, []float64{math.NaN(), -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsGPSUsable(tt.accuracy, tt.history))
		})
	}
}

func TestCalibrationReady(t *testing.T) {
	e := newTestEngine()

	assert.False(t, e.CalibrationReady(4*time.Second, QualityOptimal, 5))
	assert.True(t, e.CalibrationReady(5*time.Second, QualityGood, 0))
	assert.False(t, e.CalibrationReady(10*time.Second, QualityFair, 4))
	assert.True(t, e.CalibrationReady(10*time.Second, QualityPoor, 5))
}

func TestIsStationary(t *testing.T) {
	e := newTestEngine()

	cluster := []LocationFix{
		fixAt(0, 0, 5, t0),
		fixAt(0.000005, 0, 5, t0.Add(time.Second)),
		fixAt(0.00001, 0.000005, 5, t0.Add(2*time.Second)),
		fixAt(0.000015, 0, 5, t0.Add(3*time.Second)),
		fixAt(0.000005, 0.00001, 5, t0.Add(4*time.Second)),
	}

	t.Run("slow and clustered", func(t *testing.T) {
		assert.True(t, e.IsStationary(0.1, cluster))
	})

	t.Run("unknown speed counts as zero", func(t *testing.T) {
		assert.True(t, e.IsStationary(-1, cluster))
		assert.True(t, e.IsStationary(math.NaN(), cluster))
	})

	t.Run("fast speed", func(t *testing.T) {
		assert.False(t, e.IsStationary(1.4, cluster))
	})

	t.Run("spread out", func(t *testing.T) {
		spread := append([]LocationFix{}, cluster...)
		spread[4] = fixAt(0.0001, 0, 5, t0.Add(4*time.Second))
		assert.False(t, e.IsStationary(0.1, spread))
	})

	t.Run("insufficient window", func(t *testing.T) {
		assert.False(t, e.IsStationary(0, nil))
		assert.False(t, e.IsStationary(0, cluster[:1]))
	})
}

func TestShouldCollectPoint(t *testing.T) {
	e := newTestEngine()

	t.Run("first point always accepted", func(t *testing.T) {
		assert.True(t, e.ShouldCollectPoint(fixAt(10, 10, 5, t0), nil))
		assert.True(t, e.ShouldCollectPoint(fixAt(10, 10, 45, t0), nil))
	})

	t.Run("malformed fix rejected", func(t *testing.T) {
		assert.False(t, e.ShouldCollectPoint(fixAt(math.NaN(), 0, 5, t0), nil))
		assert.False(t, e.ShouldCollectPoint(fixAt(95, 0, 5, t0), nil))
	})

	t.Run("too soon and too close", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		fix := fixAt(0.00005, 0, 5, t0.Add(500*time.Millisecond))
		assert.False(t, e.ShouldCollectPoint(fix, last))
	})

	t.Run("within jitter radius", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		fix := fixAt(0.00002, 0, 5, t0.Add(10*time.Second))
		assert.False(t, e.ShouldCollectPoint(fix, last))
	})

	t.Run("moved enough after interval", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		fix := fixAt(0.00005, 0, 5, t0.Add(2*time.Second))
		assert.True(t, e.ShouldCollectPoint(fix, last))
	})

	t.Run("distance dominates time", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		assert.True(t, e.ShouldCollectPoint(fixAt(0.01, 0, 5, t0.Add(100*time.Millisecond)), last))
		assert.True(t, e.ShouldCollectPoint(fixAt(0.01, 0, 5, t0), last))
		assert.True(t, e.ShouldCollectPoint(fixAt(0.01, 0, 5, t0.Add(time.Hour)), last))
	})

	t.Run("unusable accuracy", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		assert.False(t, e.ShouldCollectPoint(fixAt(0.01, 0, 150, t0.Add(time.Minute)), last))
	})

	t.Run("deterministic", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		fix := fixAt(0.0001, 0.0001, 8, t0.Add(3*time.Second))
		first := e.ShouldCollectPoint(fix, last)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, e.ShouldCollectPoint(fix, last))
		}
	})
}

func TestCalculateBearing(t *testing.T) {
	e := newTestEngine()

	assert.InDelta(t, 90, e.CalculateBearing(0, 0, 0, 1), 1e-9)
	assert.Equal(t, 0.0, e.CalculateBearing(12.5, 45.1, 12.5, 45.1))

	for _, c := range [][4]float64{{0, 0, 0, 0}, {89.9, 10, -89.9, -170}, {-33.9, 151.2, 51.5, -0.1}} {
		b := e.CalculateBearing(c[0], c[1], c[2], c[3])
		assert.False(t, math.IsNaN(b))
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 360.0)
	}
}

func TestDistanceMeters(t *testing.T) {
	e := newTestEngine()

	assert.Equal(t, 0.0, e.DistanceMeters(48.85, 2.35, 48.85, 2.35))
	ab := e.DistanceMeters(48.85, 2.35, 51.5, -0.12)
	ba := e.DistanceMeters(51.5, -0.12, 48.85, 2.35)
	assert.InDelta(t, ab, ba, 1e-9)
	assert.InDelta(t, 343000, ab, 5000)
}

func TestEvaluate(t *testing.T) {
	e := newTestEngine()

	t.Run("first fix has no bearing", func(t *testing.T) {
		d := e.Evaluate(fixAt(0, 0, 3, t0), nil, nil, nil)
		assert.True(t, d.Accept)
		assert.True(t, d.Usable)
		assert.False(t, d.Stationary)
		assert.Equal(t, QualityOptimal, d.QualityTier)
		assert.Nil(t, d.Bearing)
	})

	t.Run("bearing from last point", func(t *testing.T) {
		last := pointAt(0, 0, t0)
		d := e.Evaluate(fixAt(0, 0.001, 8, t0.Add(5*time.Second)), last, []float64{5, 6}, nil)
		assert.True(t, d.Accept)
		assert.Equal(t, QualityGood, d.QualityTier)
		require.NotNil(t, d.Bearing)
		assert.InDelta(t, 90, *d.Bearing, 1e-6)
	})

	t.Run("poor fix", func(t *testing.T) {
		d := e.Evaluate(fixAt(0, 0, 150, t0), nil, nil, nil)
		assert.Equal(t, QualityPoor, d.QualityTier)
		assert.False(t, d.Usable)
	})
}

func TestTrack(t *testing.T) {
	e := newTestEngine()

	fix := fixAt(1, 2, 12, t0)
	p := e.Track(fix, nil)
	assert.Equal(t, QualityFair, p.QualityTier)
	assert.Nil(t, p.Speed)
	assert.Nil(t, p.Bearing)

	fix.Speed = 1.5
	b := 45.0
	p = e.Track(fix, &b)
	require.NotNil(t, p.Speed)
	assert.Equal(t, 1.5, *p.Speed)
	assert.Equal(t, 45.0, *p.Bearing)
}
