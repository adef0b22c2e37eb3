package store

import (
	"context"
	"sync"

	"medilink/internal/doctor/models"
	"medilink/pkg/platform/sentinel"
)

// MemoryStore keeps doctor records in memory. Used in tests and when no
// database is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]models.Doctor
	byLicense map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]models.Doctor),
		byLicense: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, d models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[d.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byLicense[d.LicenseNumber]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[d.ID] = d
	s.byLicense[d.LicenseNumber] = d.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return models.Doctor{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) FindByLicenseNumber(_ context.Context, licenseNumber string) (models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLicense[licenseNumber]
	if !ok {
		return models.Doctor{}, sentinel.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) (models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.byID {
		if d.UserID == userID {
			return d, nil
		}
	}
	return models.Doctor{}, sentinel.ErrNotFound
}

// SetVerified flips the admin verification flag.
func (s *MemoryStore) SetVerified(_ context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.IsVerified = verified
	s.byID[id] = d
	return nil
}
