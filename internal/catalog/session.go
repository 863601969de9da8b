package catalog

import (
	"context"
	"errors"
	"time"
)

// State describes the session lifecycle: Closed -> Opening -> Ready -> (Stale|Closed).
type State string

const (
	StateClosed  State = "closed"
	StateOpening State = "opening"
	StateReady   State = "ready"
	StateStale   State = "stale"
)

// Session wraps a Client with staleness tracking. A session becomes Stale
// after maxAge or after an operation fails with a *SessionError; callers must
// then go through Ensure, which closes and reopens. Session is not safe for
// concurrent use; each worker owns one.
type Session struct {
	client Client
	maxAge time.Duration
	now    func() time.Time

	state    State
	openedAt time.Time
}

// NewSession wraps a client. maxAge <= 0 disables age-based staleness.
func NewSession(client Client, maxAge time.Duration) *Session {
	return &Session{
		client: client,
		maxAge: maxAge,
		now:    time.Now,
		state:  StateClosed,
	}
}

// State reports the current lifecycle state, accounting for age.
func (s *Session) State() State {
	if s.state == StateReady && s.expired() {
		s.state = StateStale
	}
	return s.state
}

func (s *Session) expired() bool {
	return s.maxAge > 0 && s.now().Sub(s.openedAt) > s.maxAge
}

// Ensure brings the session to Ready, reopening a stale or closed session.
func (s *Session) Ensure(ctx context.Context) error {
	switch s.State() {
	case StateReady:
		return nil
	case StateStale:
		if err := s.Close(); err != nil {
			return err
		}
	}

	s.state = StateOpening
	if err := s.client.Open(ctx); err != nil {
		s.state = StateClosed
		return err
	}
	s.state = StateReady
	s.openedAt = s.now()
	return nil
}

// Search proxies to the client, marking the session stale on session errors.
func (s *Session) Search(ctx context.Context, query string) ([]Candidate, error) {
	if s.State() != StateReady {
		return nil, &SessionError{Op: "search", Err: errors.New("session not ready")}
	}
	candidates, err := s.client.Search(ctx, query)
	if err != nil {
		s.markOnError(err)
		return nil, err
	}
	return candidates, nil
}

// FetchLocator proxies to the client, marking the session stale on session errors.
func (s *Session) FetchLocator(ctx context.Context, cand Candidate) (*Locator, error) {
	if s.State() != StateReady {
		return nil, &SessionError{Op: "fetch locator", Err: errors.New("session not ready")}
	}
	locator, err := s.client.FetchLocator(ctx, cand)
	if err != nil {
		s.markOnError(err)
		return nil, err
	}
	return locator, nil
}

func (s *Session) markOnError(err error) {
	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		s.state = StateStale
	}
}

// Close releases the underlying client session. Idempotent.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	return s.client.Close()
}
