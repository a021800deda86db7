package session

import (
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

// PathBuffer accumulates accepted points of the path currently being walked.
// Points are kept in non-decreasing timestamp order; the session enforces this
// by rejecting out-of-order fixes before they reach the buffer.
type PathBuffer struct {
	points    []tracking.TrackedPoint
	startTime time.Time
}

// Len returns the number of buffered points.
func (b *PathBuffer) Len() int { return len(b.points) }

// StartTime is the timestamp of the first buffered point.
func (b *PathBuffer) StartTime() time.Time { return b.startTime }

// Last returns the most recent point, or nil when empty.
func (b *PathBuffer) Last() *tracking.TrackedPoint {
	if len(b.points) == 0 {
		return nil
	}
	p := b.points[len(b.points)-1]
	return &p
}

// Append adds p to the end of the buffer.
func (b *PathBuffer) Append(p tracking.TrackedPoint) {
	if len(b.points) == 0 {
		b.startTime = p.Timestamp
	}
	b.points = append(b.points, p)
}

// Points returns a copy of the buffered points.
func (b *PathBuffer) Points() []tracking.TrackedPoint {
	out := make([]tracking.TrackedPoint, len(b.points))
	copy(out, b.points)
	return out
}

// Reset empties the buffer and optionally seeds it with a first point.
func (b *PathBuffer) Reset(seed ...tracking.TrackedPoint) {
	b.points = b.points[:0:0]
	b.startTime = time.Time{}
	for _, p := range seed {
		b.Append(p)
	}
}
