package spatial

import (
	"math"
)

// CircularMeanDegrees calculates the mean direction of angles given in degrees.
// ok is false when there are no angles or they cancel out (no dominant direction).
func CircularMeanDegrees(angles []float64) (mean float64, ok bool) {
	if len(angles) == 0 {
		return 0, false
	}

	var sumSin, sumCos float64
	for _, angle := range angles {
		rad := angle * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	if math.Hypot(sumSin, sumCos)/float64(len(angles)) < 1e-9 {
		return 0, false
	}

	meanDeg := math.Atan2(sumSin, sumCos) * 180 / math.Pi
	if meanDeg < 0 {
		meanDeg += 360
	}
	if meanDeg >= 360 {
		meanDeg = 0
	}
	return meanDeg, true
}
