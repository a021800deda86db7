package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	t.Run("identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineDistance(31.23, 121.47, 31.23, 121.47))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := HaversineDistance(22.54, 114.05, 23.13, 113.26)
		b := HaversineDistance(23.13, 113.26, 22.54, 114.05)
		assert.InDelta(t, a, b, 1e-9)
		assert.Greater(t, a, 0.0)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d := HaversineDistance(0, 0, 1, 0)
		assert.InDelta(t, 111195.0, d, 1.0)
	})

	t.Run("small step at equator", func(t *testing.T) {
		d := HaversineDistance(0, 0, 0.00005, 0)
		assert.InDelta(t, 5.56, d, 0.01)
	})

	t.Run("non-finite input", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineDistance(math.NaN(), 0, 1, 1))
		assert.Equal(t, 0.0, HaversineDistance(0, math.Inf(1), 1, 1))
	})
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"due east on equator", 0, 0, 0, 1, 90},
		{"due north", 0, 0, 1, 0, 0},
		{"due south", 1, 0, 0, 0, 180},
		{"due west", 0, 1, 0, 0, 270},
		{"identical points", 45, 45, 45, 45, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		})
	}

	assert.Equal(t, 0.0, Bearing(math.NaN(), 0, 0, 1))
	assert.False(t, math.IsNaN(Bearing(90, 0, 90, 0)))
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(-90, 180))
	assert.False(t, ValidCoordinate(91, 0))
	assert.False(t, ValidCoordinate(0, -181))
	assert.False(t, ValidCoordinate(math.NaN(), 0))
}

func TestMaxPairwiseDistance(t *testing.T) {
	assert.Equal(t, 0.0, MaxPairwiseDistance(nil))
	assert.Equal(t, 0.0, MaxPairwiseDistance([]Point{{Lat: 1, Lon: 1}}))

	points := []Point{{0, 0}, {0.00001, 0}, {0.00002, 0}}
	assert.InDelta(t, HaversineDistance(0, 0, 0.00002, 0), MaxPairwiseDistance(points), 1e-9)
}

func TestPathLength(t *testing.T) {
	points := []Point{{0, 0}, {0, 0.001}, {0, 0.002}}
	assert.InDelta(t, 2*HaversineDistance(0, 0, 0, 0.001), PathLength(points), 1e-6)
	assert.Equal(t, 0.0, PathLength(points[:1]))
}

func TestSimplifyPath(t *testing.T) {
	// A straight line with a small wiggle collapses to its endpoints.
	line := []Point{{0, 0}, {0.0001, 0.000001}, {0.0002, 0}, {0.0003, 0}}
	assert.Equal(t, []int{0, 3}, SimplifyPath(line, 5))

	// A right-angle corner keeps the corner.
	corner := []Point{{0, 0}, {0.001, 0}, {0.001, 0.001}}
	assert.Equal(t, []int{0, 1, 2}, SimplifyPath(corner, 5))

	assert.Equal(t, []int{0, 1}, SimplifyPath(line[:2], 5))
	assert.Nil(t, SimplifyPath(nil, 5))
	assert.Len(t, SimplifyPath(line, 0), 4)
}

func TestEncodeGeohash(t *testing.T) {
	// Reference value for the geohash.org example coordinate.
	assert.Equal(t, "ezs42", EncodeGeohash(42.605, -5.603, 5))
	assert.Len(t, EncodeGeohash(0, 0, 20), 12)
	assert.Len(t, EncodeGeohash(0, 0, 0), 1)

	assert.True(t, ValidGeohash("wx4g0"))
	assert.False(t, ValidGeohash("abc"))
	assert.False(t, ValidGeohash(""))
}

func TestCircularMeanDegrees(t *testing.T) {
	mean, ok := CircularMeanDegrees([]float64{350, 10})
	require.True(t, ok)
	assert.InDelta(t, 0, math.Min(mean, 360-mean), 1e-9)

	mean, ok = CircularMeanDegrees([]float64{80, 100})
	require.True(t, ok)
	assert.InDelta(t, 90, mean, 1e-9)

	_, ok = CircularMeanDegrees([]float64{0, 180})
	assert.False(t, ok)

	_, ok = CircularMeanDegrees(nil)
	assert.False(t, ok)
}
