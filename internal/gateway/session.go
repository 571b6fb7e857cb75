package gateway

import (
	"errors"
	"sync"
)

// Role selects which portal a session belongs to.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleWorker Role = "worker"
)

// ErrNoToken is returned when a session is created without a token.
var ErrNoToken = errors.New("session token is required")

// Session holds the credentials for one signed-in user.
// It is created explicitly and passed to the client; Close ends it.
type Session struct {
	mu      sync.RWMutex
	token   string
	userID  string
	role    Role
	ownerID string
	closed  bool
	expired bool
}

// NewSession starts a session. ownerID is the client or worker id the user
// acts for; it is empty for administrators.
func NewSession(token, userID string, role Role, ownerID string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if role == "" {
		role = RoleAdmin
	}
	return &Session{token: token, userID: userID, role: role, ownerID: ownerID}, nil
}

// Token returns the bearer token, or ErrAuthExpired once the session has
// expired or been closed.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.expired {
		return "", ErrAuthExpired
	}
	return s.token, nil
}

// Expire marks the session unauthorized; subsequent calls fail fast.
func (s *Session) Expire() {
	s.mu.Lock()
	s.expired = true
	s.mu.Unlock()
}

// Expired reports whether the service rejected the session.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// Close ends the session and drops the token.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.token = ""
	s.mu.Unlock()
}

func (s *Session) UserID() string  { return s.userID }
func (s *Session) Role() Role      { return s.role }
func (s *Session) OwnerID() string { return s.ownerID }
