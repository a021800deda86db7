package tracking

import "time"

// QualityTier classifies a fix by its reported horizontal accuracy
type QualityTier string

// QualityTier constants, best first
const (
	QualityOptimal QualityTier = "OPTIMAL"
	QualityGood    QualityTier = "GOOD"
	QualityFair    QualityTier = "FAIR"
	QualityPoor    QualityTier = "POOR"
)

// rank orders tiers from best (0) to worst (3).
func (q QualityTier) rank() int {
	switch q {
	case QualityOptimal:
		return 0
	case QualityGood:
		return 1
	case QualityFair:
		return 2
	default:
		return 3
	}
}

// AtLeast reports whether q is as good as or better than other.
func (q QualityTier) AtLeast(other QualityTier) bool {
	return q.rank() <= other.rank()
}

// LocationFix is a single raw sample from a location provider
type LocationFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`          // meters, larger is worse
	Speed     float64   `json:"speed"`             // m/s, negative means unknown
	Heading   *float64  `json:"heading,omitempty"` // degrees true, nil when unavailable
	Timestamp time.Time `json:"timestamp"`
}

// SpeedKnown reports whether the provider reported a usable speed.
func (f LocationFix) SpeedKnown() bool {
	return f.Speed >= 0
}

// TrackedPoint is an accepted fix enriched with derived fields
type TrackedPoint struct {
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Timestamp   time.Time   `json:"timestamp"`
	Accuracy    float64     `json:"accuracy"`
	QualityTier QualityTier `json:"qualityTier"`
	Bearing     *float64    `json:"bearing"`         // nil for the first point of a path
	Speed       *float64    `json:"speed,omitempty"` // nil when the provider had no speed
}

// Decision is the engine's verdict for one fix
type Decision struct {
	Accept      bool        `json:"accept"`
	QualityTier QualityTier `json:"qualityTier"`
	Usable      bool        `json:"usable"`
	Stationary  bool        `json:"stationary"`
	Bearing     *float64    `json:"bearing"`
}
