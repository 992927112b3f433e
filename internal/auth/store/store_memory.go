package store

import (
	"context"
	"sync"

	"vericred/internal/auth"
	"vericred/pkg/platform/sentinel"
)

// InMemoryStore keeps admins in a map guarded by a mutex. Used in tests and
// in deployments without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]auth.Admin
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{byEmail: make(map[string]auth.Admin)}
}

func (s *InMemoryStore) Save(_ context.Context, a auth.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[a.Email]; ok {
		return sentinel.ErrConflict
	}
	s.byEmail[a.Email] = a
	return nil
}

func (s *InMemoryStore) GetByEmail(_ context.Context, email string) (auth.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEmail[email]
	if !ok {
		return auth.Admin{}, sentinel.ErrNotFound
	}
	return a, nil
}
