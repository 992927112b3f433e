package store

import (
	"context"
	"sync"

	"vericred/internal/verification"
)

// InMemoryStore keeps records in an append-only slice.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []verification.Record
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, r verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *InMemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Records returns a copy of all saved records, oldest first. Test helper.
func (s *InMemoryStore) Records() []verification.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]verification.Record(nil), s.records...)
}
