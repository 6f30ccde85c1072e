package session

import (
	"sync"
	"time"

	"github.com/voyagehq/farebot/internal/models"
)

// InMemoryStore keeps sessions in a mutex-guarded map. It is the default
// backend when no DSN is configured; sessions do not survive a restart.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	nowFunc  func() time.Time
}

// MemoryOption configures an InMemoryStore.
type MemoryOption func(*InMemoryStore)

// WithClock injects the time source used for timestamps, for tests.
func WithClock(nowFunc func() time.Time) MemoryOption {
	return func(s *InMemoryStore) { s.nowFunc = nowFunc }
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]models.Session),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSession returns the session for a phone number, or nil if absent.
func (s *InMemoryStore) GetSession(phone string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[phone]; ok {
		copied := sess
		return &copied, nil
	}
	return nil, nil
}

// SaveSession stores the session, replacing any previous value. Concurrent
// saves for the same phone number are last-write-wins.
func (s *InMemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Phone] = sess
	return nil
}

// DeleteSession removes the session for a phone number.
func (s *InMemoryStore) DeleteSession(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
	return nil
}

// ListSessions returns all stored sessions.
func (s *InMemoryStore) ListSessions() ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

// DeleteExpiredSessions removes sessions whose last activity is before cutoff.
func (s *InMemoryStore) DeleteExpiredSessions(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for phone, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, phone)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
