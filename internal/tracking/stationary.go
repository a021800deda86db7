package tracking

import (
	"math"

	"github.com/jengzang/pathtrack-backend-go/internal/spatial"
)

// IsStationary reports whether the device is effectively not moving: the reported
// speed is below the walking threshold and the recent fixes all lie within the
// stationary radius of each other. Unknown or negative speed counts as 0.
// Fewer than two fixes is never stationary.
func (e *Engine) IsStationary(speed float64, recent []LocationFix) bool {
	points := make([]spatial.Point, 0, len(recent))
	for _, f := range recent {
		if spatial.ValidCoordinate(f.Latitude, f.Longitude) {
			points = append(points, spatial.Point{Lat: f.Latitude, Lon: f.Longitude})
		}
	}
	if len(points) < 2 {
		return false
	}

	if math.IsNaN(speed) || speed < 0 {
		speed = 0
	}
	if speed >= e.th.StationarySpeedMPS {
		return false
	}

	return spatial.MaxPairwiseDistance(points) < e.th.StationaryRadiusM
}
