package domain

import (
	"sync"
	"time"
)

// Session represents one authenticated realtime connection. Identity is
// attached by the handshake before the session handles any command, so
// UserID and DisplayName are immutable for the session's lifetime.
type Session struct {
	ID          string
	UserID      string
	DisplayName string
	Avatar      string

	CreatedAt    time.Time
	lastActiveAt time.Time
	mu           sync.RWMutex
}

// NewSession creates an authenticated session.
func NewSession(id, userID, displayName, avatar string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		UserID:       userID,
		DisplayName:  displayName,
		Avatar:       avatar,
		CreatedAt:    now,
		lastActiveAt: now,
	}
}

// UpdateActivity updates the last active timestamp.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

// LastActiveAt returns the time of the last inbound command.
func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}
