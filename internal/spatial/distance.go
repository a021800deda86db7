package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters

	// bearingEpsilonMeters is the separation below which two points have no defined direction.
	bearingEpsilonMeters = 1e-6
)

// HaversineDistance calculates the great-circle distance between two points in meters.
// s2.LatLng.Distance uses the haversine formula on the unit sphere, so the result is
// symmetric and exactly 0 for identical points. Non-finite input returns 0.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	if !finite(lat1, lon1, lat2, lon2) {
		return 0
	}
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bearing calculates the initial bearing (forward azimuth) from point 1 to point 2.
// Returns degrees in [0, 360), where 0 is North and 90 is East.
// Identical points and non-finite input have no direction and return 0.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	if !finite(lat1, lon1, lat2, lon2) {
		return 0
	}
	if HaversineDistance(lat1, lon1, lat2, lon2) < bearingEpsilonMeters {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lonDiff := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)

	bearingDeg := math.Atan2(y, x) * 180 / math.Pi
	bearingDeg = math.Mod(bearingDeg+360, 360)
	// Mod can round a tiny negative angle up to exactly 360.
	if bearingDeg >= 360 {
		bearingDeg = 0
	}
	return bearingDeg
}

// ValidCoordinate reports whether lat/lon are finite and inside WGS84 bounds.
func ValidCoordinate(lat, lon float64) bool {
	if !finite(lat, lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
