package spatial

import (
	"math"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		totalDist += HaversineDistance(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return totalDist
}

// MaxPairwiseDistance returns the largest haversine distance between any two points.
// Windows are small (a handful of fixes), so the O(n²) scan is fine.
func MaxPairwiseDistance(points []Point) float64 {
	var maxDist float64
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			d := HaversineDistance(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon)
			if d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist
}

// SimplifyPath simplifies a path using the Ramer-Douglas-Peucker algorithm and
// returns the indexes of the points that survive, in order.
// epsilon: maximum distance (meters) from the simplified path
func SimplifyPath(points []Point, epsilon float64) []int {
	if len(points) == 0 {
		return nil
	}
	if len(points) < 3 || epsilon <= 0 {
		keep := make([]int, len(points))
		for i := range keep {
			keep[i] = i
		}
		return keep
	}

	keep := make([]bool, len(points))
	keep[0], keep[len(points)-1] = true, true
	simplifyRange(points, 0, len(points)-1, epsilon, keep)

	var result []int
	for i, k := range keep {
		if k {
			result = append(result, i)
		}
	}
	return result
}

func simplifyRange(points []Point, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}

	maxDist := 0.0
	maxIndex := first
	for i := first + 1; i < last; i++ {
		dist := crossTrackDistance(points[i], points[first], points[last])
		if dist > maxDist {
			maxDist = dist
			maxIndex = i
		}
	}

	if maxDist > epsilon {
		keep[maxIndex] = true
		simplifyRange(points, first, maxIndex, epsilon, keep)
		simplifyRange(points, maxIndex, last, epsilon, keep)
	}
}

// crossTrackDistance is the distance in meters from point to the segment start-end,
// computed on a local equirectangular projection around the segment start.
func crossTrackDistance(point, start, end Point) float64 {
	cosLat := math.Cos(start.Lat * math.Pi / 180)
	toXY := func(p Point) (float64, float64) {
		x := (p.Lon - start.Lon) * math.Pi / 180 * EarthRadiusMeters * cosLat
		y := (p.Lat - start.Lat) * math.Pi / 180 * EarthRadiusMeters
		return x, y
	}

	px, py := toXY(point)
	ex, ey := toXY(end)

	segLenSq := ex*ex + ey*ey
	if segLenSq == 0 {
		return math.Hypot(px, py)
	}

	t := (px*ex + py*ey) / segLenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-t*ex, py-t*ey)
}
