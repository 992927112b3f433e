package store

import (
	"context"
	"sync"

	"vericred/internal/gateway"
	"vericred/pkg/platform/sentinel"
)

// InMemoryStore keeps consumers in a map guarded by a mutex. Used in tests
// and in deployments without Postgres.
type InMemoryStore struct {
	mu       sync.RWMutex
	byAPIKey map[string]gateway.Consumer
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{byAPIKey: make(map[string]gateway.Consumer)}
}

func (s *InMemoryStore) Save(_ context.Context, c gateway.Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAPIKey[c.APIKey]; ok {
		return sentinel.ErrConflict
	}
	s.byAPIKey[c.APIKey] = c
	return nil
}

func (s *InMemoryStore) GetByAPIKey(_ context.Context, apiKey string) (gateway.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byAPIKey[apiKey]
	if !ok {
		return gateway.Consumer{}, sentinel.ErrNotFound
	}
	return c, nil
}
