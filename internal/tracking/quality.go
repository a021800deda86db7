package tracking

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// minTrendSamples is the history length needed before a regression slope is trusted.
const minTrendSamples = 3

// EvaluateGPSQuality maps an accuracy in meters to a quality tier.
// Negative, NaN and infinite accuracies are POOR.
func (e *Engine) EvaluateGPSQuality(accuracy float64) QualityTier {
	if !validAccuracy(accuracy) {
		return QualityPoor
	}
	switch {
	case accuracy <= e.th.OptimalAccuracyM:
		return QualityOptimal
	case accuracy <= e.th.GoodAccuracyM:
		return QualityGood
	case accuracy <= e.th.FairAccuracyM:
		return QualityFair
	default:
		return QualityPoor
	}
}

// IsGPSUsable decides whether a fix with this accuracy may extend a trajectory.
//
// Anything above the unusable ceiling is rejected outright. With no history the
// ceiling is the only test. GOOD-or-better fixes are always usable; a worse fix is
// rejected when it is a jump against the history mean or when the history itself
// is trending worse.
func (e *Engine) IsGPSUsable(accuracy float64, history []float64) bool {
	if !validAccuracy(accuracy) || accuracy > e.th.UnusableAccuracyM {
		return false
	}

	samples := finiteSamples(history)
	if len(samples) == 0 {
		return true
	}
	if e.EvaluateGPSQuality(accuracy).AtLeast(QualityGood) {
		return true
	}

	mean := stat.Mean(samples, nil)
	if mean > 0 && accuracy > mean*e.th.AccuracyJumpFactor {
		return false
	}

	if len(samples) >= minTrendSamples {
		xs := make([]float64, len(samples))
		for i := range xs {
			xs[i] = float64(i)
		}
		_, slope := stat.LinearRegression(xs, samples, nil, false)
		if slope > e.th.DegradingSlopeM {
			return false
		}
	}

	return true
}

// CalibrationReady reports whether the warm-up period is over: the minimum elapsed
// time has passed and either quality is GOOD/OPTIMAL or the accuracy history is full.
// The caller latches the result; once true it stays true for the session.
func (e *Engine) CalibrationReady(elapsed time.Duration, tier QualityTier, historyLen int) bool {
	if elapsed < e.th.CalibrationMinElapsed {
		return false
	}
	return tier.AtLeast(QualityGood) || historyLen >= e.th.CalibrationSampleSize
}

func validAccuracy(a float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && a >= 0
}

func finiteSamples(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if validAccuracy(v) {
			out = append(out, v)
		}
	}
	return out
}
