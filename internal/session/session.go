package session

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/models"
	"github.com/jengzang/pathtrack-backend-go/internal/spatial"
	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
	"gonum.org/v1/gonum/stat"
)

// startGeohashPrecision gives ~150m cells for indexing path starts.
const startGeohashPrecision = 7

// Rejection reasons reported in Outcome.Reason
const (
	ReasonInvalidFix   = "invalid_fix"
	ReasonOutOfOrder   = "out_of_order"
	ReasonUncalibrated = "uncalibrated"
	ReasonGPSUnusable  = "gps_unusable"
	ReasonStationary   = "stationary"
	ReasonThrottled    = "throttled"
)

// ErrSessionStopped is returned when a fix arrives after Stop.
var ErrSessionStopped = errors.New("tracking session stopped")

// Outcome reports what the session did with one fix
type Outcome struct {
	Timestamp  time.Time              `json:"timestamp"`
	Accepted   bool                   `json:"accepted"`
	Reason     string                 `json:"reason,omitempty"`
	Decision   tracking.Decision      `json:"decision"`
	Calibrated bool                   `json:"calibrated"`
	Motion     Motion                 `json:"motion"`
	Point      *tracking.TrackedPoint `json:"point,omitempty"`
	Flushed    string                 `json:"flushed,omitempty"` // flush reason when a path was handed to storage
}

// State is a snapshot of a session for status endpoints
type State struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Source        string    `json:"source"`
	StartedAt     time.Time `json:"startedAt"`
	Calibrated    bool      `json:"calibrated"`
	Motion        Motion    `json:"motion"`
	BufferedCount int       `json:"bufferedCount"`
	Processed     int       `json:"processed"`
	Accepted      int       `json:"accepted"`
	PathsFlushed  int       `json:"pathsFlushed"`
	PathsPending  int       `json:"pathsPending"`
	Stopped       bool      `json:"stopped"`
}

// StopSummary is returned by Stop
type StopSummary struct {
	SessionID        string   `json:"sessionId"`
	Processed        int      `json:"processed"`
	Accepted         int      `json:"accepted"`
	PathsFlushed     int      `json:"pathsFlushed"`
	BuffersDiscarded int      `json:"buffersDiscarded"`
	PathsSaved       []string `json:"pathsSaved"`
	PathsPending     int      `json:"pathsPending"`
}

// Session is one user's tracking run. It owns the rolling windows, the
// calibration latch, the motion state and the path buffer; fixes are processed
// one at a time under its lock.
type Session struct {
	ID        string
	UserID    string
	Source    string
	StartedAt time.Time

	engine  *tracking.Engine
	th      tracking.Thresholds
	flusher *Flusher

	mu         sync.Mutex
	accuracy   *tracking.Ring[float64]
	recent     *tracking.Ring[tracking.LocationFix]
	firstFix   time.Time
	lastFix    time.Time
	calibrated bool
	motion     motionDebouncer
	buffer     PathBuffer
	stopped    bool

	processed int
	accepted  int
	flushed   int
	discarded int
}

// New creates a session. The flusher is owned by the session and closed by Stop.
func New(id, userID, source string, engine *tracking.Engine, flusher *Flusher) *Session {
	th := engine.Thresholds()
	return &Session{
		ID:        id,
		UserID:    userID,
		Source:    source,
		StartedAt: time.Now(),
		engine:    engine,
		th:        th,
		flusher:   flusher,
		accuracy:  tracking.NewRing[float64](th.CalibrationSampleSize),
		recent:    tracking.NewRing[tracking.LocationFix](th.StationaryWindowSize),
		motion:    newMotionDebouncer(th.StationaryDebounceCount),
	}
}

// Process runs one fix through the engine and updates the session.
func (s *Session) Process(fix tracking.LocationFix) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return Outcome{}, ErrSessionStopped
	}
	s.processed++

	out := Outcome{Timestamp: fix.Timestamp, Calibrated: s.calibrated, Motion: s.motion.state}
	if !tracking.ValidFix(fix) {
		out.Reason = ReasonInvalidFix
		out.Decision.QualityTier = tracking.QualityPoor
		return out, nil
	}
	if !s.lastFix.IsZero() && fix.Timestamp.Before(s.lastFix) {
		out.Reason = ReasonOutOfOrder
		out.Decision.QualityTier = s.engine.EvaluateGPSQuality(fix.Accuracy)
		return out, nil
	}
	s.lastFix = fix.Timestamp
	if s.firstFix.IsZero() {
		s.firstFix = fix.Timestamp
	}

	// Usability is judged against the history before this fix joins it.
	history := s.accuracy.Values()
	s.recent.Push(fix)
	decision := s.engine.Evaluate(fix, s.buffer.Last(), history, s.recent.Values())
	if !math.IsNaN(fix.Accuracy) && !math.IsInf(fix.Accuracy, 0) && fix.Accuracy >= 0 {
		s.accuracy.Push(fix.Accuracy)
	}

	if !s.calibrated && s.engine.CalibrationReady(fix.Timestamp.Sub(s.firstFix), decision.QualityTier, s.accuracy.Len()) {
		s.calibrated = true
		log.Printf("[Session] %s calibrated after %v (tier=%s, samples=%d)",
			s.ID, fix.Timestamp.Sub(s.firstFix), decision.QualityTier, s.accuracy.Len())
	}
	motion := s.motion.Observe(decision.Stationary)

	out.Decision = decision
	out.Calibrated = s.calibrated
	out.Motion = motion

	switch {
	case !s.calibrated:
		out.Reason = ReasonUncalibrated
	case !decision.Usable:
		out.Reason = ReasonGPSUnusable
	case motion == MotionStationary:
		out.Reason = ReasonStationary
	case !decision.Accept:
		out.Reason = ReasonThrottled
	}
	if out.Reason != "" {
		return out, nil
	}

	point := s.engine.Track(fix, decision.Bearing)
	point, out.Flushed = s.appendPoint(point)
	out.Decision.Bearing = point.Bearing
	s.accepted++

	out.Accepted = true
	out.Point = &point
	return out, nil
}

// appendPoint places p in the buffer, flushing when a segment limit is crossed.
// It returns the point as stored and the flush reason, if a path was handed off.
func (s *Session) appendPoint(p tracking.TrackedPoint) (tracking.TrackedPoint, string) {
	if last := s.buffer.Last(); last != nil {
		gap := s.engine.DistanceMeters(last.Latitude, last.Longitude, p.Latitude, p.Longitude)
		if gap > s.th.MaxSegmentGapM {
			reason := ""
			if s.flush(models.FlushGap) {
				reason = models.FlushGap
			}
			p.Bearing = nil
			s.buffer.Reset(p)
			return p, reason
		}
	}

	s.buffer.Append(p)

	var reason string
	switch {
	case p.Timestamp.Sub(s.buffer.StartTime()) > s.th.MaxSegmentDuration:
		reason = models.FlushDuration
	case s.buffer.Len() >= s.th.MaxSegmentPoints:
		reason = models.FlushSize
	default:
		return p, ""
	}

	s.flush(reason)
	seed := p
	seed.Bearing = nil
	s.buffer.Reset(seed)
	return p, reason
}

// flush hands the buffer to the flusher when it holds a meaningful path
// (two or more points) and empties it either way.
func (s *Session) flush(reason string) bool {
	n := s.buffer.Len()
	if n < 2 {
		if n == 1 {
			s.discarded++
		}
		s.buffer.Reset()
		return false
	}

	path := BuildPath(s.UserID, s.ID, reason, s.buffer.Points())
	s.buffer.Reset()
	s.flusher.Enqueue(path)
	s.flushed++
	return true
}

// Stop flushes the in-flight buffer (if it has at least two points), waits for
// pending writes and clears the rolling windows.
func (s *Session) Stop(ctx context.Context) (StopSummary, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return s.summary(), nil
	}
	s.stopped = true
	s.flush(models.FlushStop)
	s.accuracy.Reset()
	s.recent.Reset()
	s.mu.Unlock()

	err := s.flusher.Close(ctx)
	summary := s.summary()
	log.Printf("[Session] %s stopped: processed=%d accepted=%d flushed=%d pending=%d",
		s.ID, summary.Processed, summary.Accepted, summary.PathsFlushed, summary.PathsPending)
	return summary, err
}

// Retry re-attempts paths whose writes failed.
func (s *Session) Retry(ctx context.Context) error {
	return s.flusher.Retry(ctx)
}

// Pending returns the number of paths whose writes have not succeeded.
func (s *Session) Pending() int {
	return s.flusher.Pending()
}

// Stopped reports whether Stop has been called.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:            s.ID,
		UserID:        s.UserID,
		Source:        s.Source,
		StartedAt:     s.StartedAt,
		Calibrated:    s.calibrated,
		Motion:        s.motion.state,
		BufferedCount: s.buffer.Len(),
		Processed:     s.processed,
		Accepted:      s.accepted,
		PathsFlushed:  s.flushed,
		PathsPending:  s.flusher.Pending(),
		Stopped:       s.stopped,
	}
}

func (s *Session) summary() StopSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StopSummary{
		SessionID:        s.ID,
		Processed:        s.processed,
		Accepted:         s.accepted,
		PathsFlushed:     s.flushed,
		BuffersDiscarded: s.discarded,
		PathsSaved:       s.flusher.Saved(),
		PathsPending:     s.flusher.Pending(),
	}
}

// BuildPath summarises buffered points into a storable path.
func BuildPath(userID, sessionID, reason string, points []tracking.TrackedPoint) models.Path {
	path := models.Path{
		UserID:      userID,
		SessionID:   sessionID,
		FlushReason: reason,
		PointCount:  len(points),
		Points:      make([]models.PathPoint, len(points)),
	}
	if len(points) == 0 {
		return path
	}

	geo := make([]spatial.Point, len(points))
	accuracies := make([]float64, len(points))
	var bearings []float64
	for i, p := range points {
		geo[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
		accuracies[i] = p.Accuracy
		if p.Bearing != nil {
			bearings = append(bearings, *p.Bearing)
		}
		path.Points[i] = models.PathPoint{
			Seq:         i,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			Timestamp:   p.Timestamp,
			Accuracy:    p.Accuracy,
			QualityTier: string(p.QualityTier),
			Bearing:     p.Bearing,
			Speed:       p.Speed,
		}
	}

	path.StartTime = points[0].Timestamp
	path.EndTime = points[len(points)-1].Timestamp
	path.DistanceMeters = spatial.PathLength(geo)
	path.AvgAccuracy = stat.Mean(accuracies, nil)
	path.StartGeohash = spatial.EncodeGeohash(points[0].Latitude, points[0].Longitude, startGeohashPrecision)
	if mean, ok := spatial.CircularMeanDegrees(bearings); ok {
		path.AvgBearing = &mean
	}
	return path
}
