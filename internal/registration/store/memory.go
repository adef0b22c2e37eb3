package store

import (
	"context"
	"sync"
	"time"

	"medilink/internal/registration/models"
	"medilink/pkg/platform/sentinel"
)

// MemoryStore keeps wizard sessions in memory. Expiry is checked on load so
// no janitor goroutine is needed.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

// WithClock overrides the expiry clock for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Save(_ context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, sentinel.ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, id)
		return models.Session{}, sentinel.ErrExpired
	}
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
