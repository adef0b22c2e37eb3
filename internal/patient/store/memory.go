package store

import (
	"context"
	"sync"

	"medilink/internal/patient/models"
	"medilink/pkg/platform/sentinel"
)

// MemoryStore keeps patient records in memory. Used in tests and when no
// database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]models.Patient
}

func NewMemory() *MemoryStore {
	return &MemoryStore{byID: make(map[string]models.Patient)}
}

func (s *MemoryStore) Create(_ context.Context, p models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[p.ID] = p
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return models.Patient{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) (models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byID {
		if p.UserID == userID {
			return p, nil
		}
	}
	return models.Patient{}, sentinel.ErrNotFound
}
