package provider

import (
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

// SimulatedConfig describes a synthetic walk.
type SimulatedConfig struct {
	StartLat float64
	StartLon float64
	Start    time.Time
	Interval time.Duration // time between fixes
	SpeedMPS float64
	Fixes    int   // 0 means unlimited
	Seed     int64 // jitter source
}

// Simulated walks a square loop with jittered accuracy. Accuracy starts poor and
// settles after a few fixes, the way a receiver warms up.
type Simulated struct {
	cfg SimulatedConfig

	mu  sync.Mutex
	rng *rand.Rand
	n   int
}

// NewSimulated creates a simulated provider.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.SpeedMPS <= 0 {
		cfg.SpeedMPS = 1.4
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().UTC()
	}
	return &Simulated{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

func (s *Simulated) Name() string   { return "Simulated walk" }
func (s *Simulated) Connect() error { return nil }
func (s *Simulated) Close() error   { return nil }

// Read returns the next synthetic fix without sleeping.
func (s *Simulated) Read() (tracking.LocationFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Fixes > 0 && s.n >= s.cfg.Fixes {
		return tracking.LocationFix{}, io.EOF
	}

	const side = 200.0 // meters per side of the loop
	dist := math.Mod(float64(s.n)*s.cfg.Interval.Seconds()*s.cfg.SpeedMPS, 4*side)
	var east, north, heading float64
	switch leg := int(dist / side); leg {
	case 0:
		east, north, heading = dist, 0, 90
	case 1:
		east, north, heading = side, dist-side, 0
	case 2:
		east, north, heading = 3*side-dist, side, 270
	default:
		east, north, heading = 0, 4*side-dist, 180
	}

	accuracy := 4 + s.rng.Float64()*3
	if s.n < 3 {
		accuracy = 25 - float64(s.n)*6
	}

	metersPerDegLat := math.Pi / 180 * 6371000
	fix := tracking.LocationFix{
		Latitude:  s.cfg.StartLat + north/metersPerDegLat,
		Longitude: s.cfg.StartLon + east/(metersPerDegLat*math.Cos(s.cfg.StartLat*math.Pi/180)),
		Accuracy:  accuracy,
		Speed:     s.cfg.SpeedMPS,
		Heading:   &heading,
		Timestamp: s.cfg.Start.Add(time.Duration(s.n) * s.cfg.Interval),
	}
	s.n++
	return fix, nil
}
