package session

// Motion is the debounced movement state of a session
type Motion string

// Motion states
const (
	MotionMoving     Motion = "MOVING"
	MotionStationary Motion = "STATIONARY"
)

// motionDebouncer turns per-fix stationary classifications into a stable state.
// Leaving STATIONARY is immediate; entering it needs `confirm` consecutive
// stationary samples so a single slow fix does not freeze collection.
type motionDebouncer struct {
	state   Motion
	streak  int
	confirm int
}

func newMotionDebouncer(confirm int) motionDebouncer {
	if confirm < 1 {
		confirm = 1
	}
	return motionDebouncer{state: MotionMoving, confirm: confirm}
}

// Observe feeds one classification and returns the resulting state.
func (m *motionDebouncer) Observe(stationary bool) Motion {
	if !stationary {
		m.streak = 0
		m.state = MotionMoving
		return m.state
	}

	m.streak++
	if m.streak >= m.confirm {
		m.state = MotionStationary
	}
	return m.state
}
