package user

import (
	"context"
	"strings"
	"sync"

	"medilink/internal/auth/models"
	"medilink/pkg/platform/sentinel"
)

// MemoryStore keeps users in memory. It favors clarity over performance and
// backs development and unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
	byPhone map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

// Create saves a user, enforcing uniqueness of email and phone. An empty
// email or phone is not indexed, so phone-only patients coexist.
func (s *MemoryStore) Create(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if email != "" {
		if _, taken := s.byEmail[email]; taken {
			return sentinel.ErrAlreadyUsed
		}
	}
	if u.Phone != "" {
		if _, taken := s.byPhone[u.Phone]; taken {
			return sentinel.ErrAlreadyUsed
		}
	}

	s.byID[u.ID] = u
	if email != "" {
		s.byEmail[email] = u.ID
	}
	if u.Phone != "" {
		s.byPhone[u.Phone] = u.ID
	}
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return models.User{}, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[strings.ToLower(email)]; ok {
		return s.byID[id], nil
	}
	return models.User{}, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byPhone[phone]; ok {
		return s.byID[id], nil
	}
	return models.User{}, sentinel.ErrNotFound
}
