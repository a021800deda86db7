package session

import (
	"testing"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
	"github.com/stretchr/testify/assert"
)

func TestPathBuffer(t *testing.T) {
	var b PathBuffer
	assert.Nil(t, b.Last())
	assert.True(t, b.StartTime().IsZero())

	b.Append(tracking.TrackedPoint{Longitude: 1, Timestamp: t0})
	b.Append(tracking.TrackedPoint{Longitude: 2, Timestamp: t0.Add(time.Second)})
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, t0, b.StartTime())
	assert.Equal(t, 2.0, b.Last().Longitude)

	// Last and Points return copies.
	b.Last().Longitude = 99
	b.Points()[0].Longitude = 99
	assert.Equal(t, 2.0, b.Last().Longitude)
	assert.Equal(t, 1.0, b.Points()[0].Longitude)

	seed := tracking.TrackedPoint{Longitude: 3, Timestamp: t0.Add(time.Minute)}
	b.Reset(seed)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, seed.Timestamp, b.StartTime())

	b.Reset()
	assert.Equal(t, 0, b.Len())
}

func TestMotionDebouncer(t *testing.T) {
	m := newMotionDebouncer(3)
	assert.Equal(t, MotionMoving, m.Observe(true))
	assert.Equal(t, MotionMoving, m.Observe(true))
	assert.Equal(t, MotionStationary, m.Observe(true))
	assert.Equal(t, MotionStationary, m.Observe(true))
	assert.Equal(t, MotionMoving, m.Observe(false))

	// A moving sample resets the streak.
	m.Observe(true)
	m.Observe(false)
	m.Observe(true)
	assert.Equal(t, MotionMoving, m.Observe(true))

	immediate := newMotionDebouncer(0)
	assert.Equal(t, MotionStationary, immediate.Observe(true))
}
