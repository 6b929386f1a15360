package identity

import (
	"context"
	"log/slog"
	"sync"
)

// State is the sign-in state of a Session.
type State int

// Session states. Failed is left by calling Start again.
const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MsgSignInFailed is shown when anonymous sign-in fails.
const MsgSignInFailed = "Failed to sign in anonymously. Please try again later."

// Session resolves the user identity once and gates the inventory until it
// is ready.
type Session struct {
	provider Provider
	logger   *slog.Logger

	signIn sync.Mutex // serializes Start

	mu     sync.Mutex
	state  State
	userID string
	err    error
}

// NewSession creates an unauthenticated session.
func NewSession(provider Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{provider: provider, logger: logger}
}

// Start signs in unless the session is already ready, and returns the user
// ID.
func (s *Session) Start(ctx context.Context) (string, error) {
	s.signIn.Lock()
	defer s.signIn.Unlock()

	s.mu.Lock()
	if s.state == StateReady {
		id := s.userID
		s.mu.Unlock()
		return id, nil
	}
	s.state = StateAuthenticating
	s.err = nil
	s.mu.Unlock()

	id, err := s.provider.SignIn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err
		s.logger.Error("anonymous sign-in failed", "error", err)
		return "", err
	}
	s.state = StateReady
	s.userID = id
	s.logger.Debug("signed in anonymously", "userID", id)
	return id, nil
}

// UserID returns the signed-in user ID, or ErrNotReady.
func (s *Session) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return "", ErrNotReady
	}
	return s.userID, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last sign-in error.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Message returns the user-visible message of a failed sign-in.
func (s *Session) Message() string {
	if s.State() == StateFailed {
		return MsgSignInFailed
	}
	return ""
}
