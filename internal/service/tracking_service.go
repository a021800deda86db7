package service

import (
	"context"
	"fmt"

	"github.com/jengzang/pathtrack-backend-go/internal/session"
	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

// MaxFixesPerBatch caps one ingestion request
const MaxFixesPerBatch = 500

// TrackingService exposes tracking sessions to a single authenticated user
type TrackingService struct {
	manager *session.Manager
}

// NewTrackingService creates a new tracking service
func NewTrackingService(manager *session.Manager) *TrackingService {
	return &TrackingService{
		manager: manager,
	}
}

// StartSession opens a session for the user. When one is already running, its
// state is returned together with session.ErrSessionActive.
func (s *TrackingService) StartSession(userID, source string) (session.State, error) {
	if source == "" {
		source = "api"
	}
	sess, err := s.manager.Start(userID, source)
	if err != nil {
		if sess != nil {
			return sess.State(), err
		}
		return session.State{}, err
	}
	return sess.State(), nil
}

// Session returns the user's session by id. Sessions of other users are reported
// as not found.
func (s *TrackingService) Session(userID, id string) (*session.Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

// GetState returns a snapshot of the user's session
func (s *TrackingService) GetState(userID, id string) (session.State, error) {
	sess, err := s.Session(userID, id)
	if err != nil {
		return session.State{}, err
	}
	return sess.State(), nil
}

// ProcessFixes feeds a batch of fixes, in order, and returns one outcome per fix
func (s *TrackingService) ProcessFixes(userID, id string, fixes []tracking.LocationFix) ([]session.Outcome, error) {
	if len(fixes) == 0 {
		return nil, fmt.Errorf("%w: no fixes", ErrInvalidInput)
	}
	if len(fixes) > MaxFixesPerBatch {
		return nil, fmt.Errorf("%w: at most %d fixes per request", ErrInvalidInput, MaxFixesPerBatch)
	}

	sess, err := s.Session(userID, id)
	if err != nil {
		return nil, err
	}

	outcomes := make([]session.Outcome, 0, len(fixes))
	for _, fix := range fixes {
		out, err := sess.Process(fix)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// StopSession stops the user's session and flushes its buffer
func (s *TrackingService) StopSession(ctx context.Context, userID, id string) (session.StopSummary, error) {
	if _, err := s.Session(userID, id); err != nil {
		return session.StopSummary{}, err
	}
	return s.manager.Stop(ctx, id)
}

// RetrySession re-attempts the failed path writes of the user's session,
// including one that has already been stopped
func (s *TrackingService) RetrySession(ctx context.Context, userID, id string) (session.State, error) {
	if _, err := s.Session(userID, id); err != nil {
		return session.State{}, err
	}
	return s.manager.Retry(ctx, id)
}
