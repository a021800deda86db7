package tracking

// ShouldCollectPoint decides whether fix becomes the next trajectory point after last.
//
// The first point of a path (last == nil) is always collected when its coordinates
// are well formed; accuracy gating for that case is the caller's IsGPSUsable check.
// Otherwise the fix must clear the unusable ceiling, move at least MinMovementM, and
// arrive no sooner than MinSampleInterval after last unless it already moved
// FastMovementFactor times the minimum distance.
func (e *Engine) ShouldCollectPoint(fix LocationFix, last *TrackedPoint) bool {
	if !ValidFix(fix) {
		return false
	}
	if last == nil {
		return true
	}
	if !validAccuracy(fix.Accuracy) || fix.Accuracy > e.th.UnusableAccuracyM {
		return false
	}

	distance := e.DistanceMeters(last.Latitude, last.Longitude, fix.Latitude, fix.Longitude)
	if distance < e.th.MinMovementM {
		return false
	}

	elapsed := fix.Timestamp.Sub(last.Timestamp)
	if elapsed < e.th.MinSampleInterval && distance < e.th.MinMovementM*e.th.FastMovementFactor {
		return false
	}

	return true
}
