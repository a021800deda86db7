package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

var (
	// ErrSessionActive is returned when a user already has a running session.
	ErrSessionActive = errors.New("user already has an active tracking session")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("tracking session not found")
)

// Manager keeps the active sessions. A user has at most one active session, so
// foreground and background tracking can never feed the same user concurrently.
type Manager struct {
	engine *tracking.Engine
	sink   Sink
	retry  RetryPolicy

	mu     sync.Mutex
	byID   map[string]*Session
	byUser map[string]string
}

// NewManager creates a session manager writing paths to sink.
func NewManager(engine *tracking.Engine, sink Sink, retry RetryPolicy) *Manager {
	return &Manager{
		engine: engine,
		sink:   sink,
		retry:  retry,
		byID:   make(map[string]*Session),
		byUser: make(map[string]string),
	}
}

// Start opens a session for userID. The user identity is explicit: nothing in the
// session reads an ambient "current user".
func (m *Manager) Start(userID, source string) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byUser[userID]; ok {
		return m.byID[id], ErrSessionActive
	}

	s := New(uuid.NewString(), userID, source, m.engine, NewFlusher(m.sink, m.retry))
	m.byID[s.ID] = s
	m.byUser[userID] = s.ID

	log.Printf("[Manager] Started session %s for user %s (source=%s)", s.ID, userID, source)
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ActiveFor returns the user's active session, if any.
func (m *Manager) ActiveFor(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byUser[userID]
	if !ok {
		return nil, false
	}
	return m.byID[id], true
}

// Stop stops a session. A stopped session whose paths could not all be written
// stays reachable by id until Retry drains it; its user may start a new one.
func (m *Manager) Stop(ctx context.Context, id string) (StopSummary, error) {
	m.mu.Lock()
	s, ok := m.byID[id]
	if ok && m.byUser[s.UserID] == id {
		delete(m.byUser, s.UserID)
	}
	m.mu.Unlock()

	if !ok {
		return StopSummary{}, ErrSessionNotFound
	}

	summary, err := s.Stop(ctx)
	if err == nil && summary.PathsPending > 0 {
		// already stopped with writes outstanding
		err = s.Retry(ctx)
		summary = s.summary()
	}
	m.release(s)
	return summary, err
}

// Retry re-attempts the failed path writes of a session. A stopped session is
// forgotten once nothing is left pending.
func (m *Manager) Retry(ctx context.Context, id string) (State, error) {
	s, err := m.Get(id)
	if err != nil {
		return State{}, err
	}
	err = s.Retry(ctx)
	m.release(s)
	return s.State(), err
}

// RetryPending retries every session holding failed path writes.
func (m *Manager) RetryPending(ctx context.Context) error {
	m.mu.Lock()
	var held []*Session
	for _, s := range m.byID {
		held = append(held, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range held {
		if s.Pending() == 0 {
			continue
		}
		if _, err := m.Retry(ctx, s.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("retry session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

// release forgets a stopped session once its writes are settled.
func (m *Manager) release(s *Session) {
	if !s.Stopped() {
		return
	}
	pending := s.Pending()

	m.mu.Lock()
	defer m.mu.Unlock()
	if pending > 0 {
		log.Printf("[Manager] Holding stopped session %s with %d pending paths", s.ID, pending)
		return
	}
	delete(m.byID, s.ID)
}

// StopAll stops every session, used on shutdown. Sessions already stopped get
// one more attempt at their pending writes.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if _, err := m.Stop(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("stop session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
