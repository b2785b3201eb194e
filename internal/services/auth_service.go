package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"samsonix/internal/api"
	"samsonix/internal/session"
	"samsonix/internal/token"
)

// SessionState is the observable auth state. StateUnknown is the initial
// "still loading" state before the first verification resolves.
type SessionState int

const (
	StateUnknown SessionState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// AuthError is a login or token failure surfaced once to the user; it is
// never retried automatically.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// SessionManager is the single owner of session state. It verifies the
// persisted token, keeps every observer in sync through subscribe/notify,
// and re-verifies whenever the token slot changes under it (the other-writer
// signal that replaces the browser storage event).
type SessionManager struct {
	Tokens *token.Store
	Users  *api.UserClient
	Now    func() time.Time

	mu         sync.Mutex
	state      SessionState
	generation uint64
	subs       []func(SessionState)
}

func NewSessionManager(tokens *token.Store, users *api.UserClient) *SessionManager {
	m := &SessionManager{Tokens: tokens, Users: users, Now: time.Now, state: StateUnknown}
	tokens.Watch(func() { m.Resolve() })
	return m
}

func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Loading reports whether the first verification has not resolved yet.
func (m *SessionManager) Loading() bool { return m.State() == StateUnknown }

// VerifyCurrentSession is the no-network check: false immediately when the
// slot is empty, otherwise a pure format/expiry verification.
func (m *SessionManager) VerifyCurrentSession() bool {
	tok, err := m.Tokens.Get()
	if err != nil || tok == "" {
		return false
	}
	return session.VerifyFormat(tok, m.Now())
}

// Resolve runs verification and settles the state. Each call bumps a
// generation counter; a verification superseded by a newer one is dropped
// instead of applied.
func (m *SessionManager) Resolve() SessionState {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	next := StateUnauthenticated
	if m.VerifyCurrentSession() {
		next = StateAuthenticated
	}

	m.mu.Lock()
	if gen != m.generation {
		st := m.state
		m.mu.Unlock()
		return st
	}
	changed := m.state != next
	m.state = next
	subs := m.snapshotSubs()
	m.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(next)
		}
	}
	return next
}

// Login authenticates against the catalog API, persists the token, and
// transitions straight to Authenticated. Envelope failures surface as an
// AuthError carrying the server message.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	tok, err := m.Users.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			return &AuthError{Reason: apiErr.Message}
		}
		return err
	}
	if err := m.Tokens.Set(tok); err != nil {
		return err
	}
	m.setState(StateAuthenticated)
	return nil
}

// Logout clears the slot and transitions to Unauthenticated; the caller
// redirects to the login page.
func (m *SessionManager) Logout() error {
	err := m.Tokens.Clear()
	m.setState(StateUnauthenticated)
	return err
}

// Invalidate is the forced logout on a backend 401. The slot is cleared at
// most once: an already unauthenticated session is left alone.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	if m.state == StateUnauthenticated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	_ = m.Tokens.Clear()
	m.setState(StateUnauthenticated)
}

// Subscribe registers an observer for state transitions.
func (m *SessionManager) Subscribe(fn func(SessionState)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	m.mu.Unlock()
}

func (m *SessionManager) setState(next SessionState) {
	m.mu.Lock()
	m.generation++ // settle any in-flight resolve
	changed := m.state != next
	m.state = next
	subs := m.snapshotSubs()
	m.mu.Unlock()
	if changed {
		for _, fn := range subs {
			fn(next)
		}
	}
}

func (m *SessionManager) snapshotSubs() []func(SessionState) {
	out := make([]func(SessionState), len(m.subs))
	copy(out, m.subs)
	return out
}
