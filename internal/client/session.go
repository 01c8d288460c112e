package client

import (
	"sync"

	"github.com/hongminglow/bank-portal/internal/models"
)

// SessionData is the persisted form of a session.
type SessionData struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
	Phone string      `json:"phone"`
}

// Session holds the bearer credential every request is built from. It is
// populated on login and cleared on logout or when the server answers 401.
type Session struct {
	mu   sync.RWMutex
	data SessionData
}

// NewSession returns a session restored from data; pass the zero value for a
// logged-out session.
func NewSession(data SessionData) *Session {
	return &Session{data: data}
}

func (s *Session) set(data SessionData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

// Role returns the role the session was issued for.
func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Role
}

// Active reports whether a token is held.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// Snapshot returns a copy suitable for persisting.
func (s *Session) Snapshot() SessionData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Clear drops the credentials.
func (s *Session) Clear() {
	s.set(SessionData{})
}
