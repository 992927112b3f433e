package store

import (
	"context"
	"sync"

	"vericred/internal/registry"
	"vericred/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in maps guarded by a single mutex. Used in
// tests and in deployments without Postgres.
type InMemoryStore struct {
	mu                 sync.RWMutex
	primariesByNumber  map[string]registry.PrimaryProfile
	primariesByPhone   map[string]string
	secondariesByNum   map[string]registry.SecondaryProfile
	secondaryByPrimary map[string]string
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		primariesByNumber:  make(map[string]registry.PrimaryProfile),
		primariesByPhone:   make(map[string]string),
		secondariesByNum:   make(map[string]registry.SecondaryProfile),
		secondaryByPrimary: make(map[string]string),
	}
}

func (s *InMemoryStore) SavePrimary(_ context.Context, p registry.PrimaryProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.primariesByNumber[p.Number]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.primariesByPhone[p.Phone]; ok {
		return sentinel.ErrConflict
	}
	s.primariesByNumber[p.Number] = p
	s.primariesByPhone[p.Phone] = p.Number
	return nil
}

func (s *InMemoryStore) GetPrimaryByNumber(_ context.Context, number string) (registry.PrimaryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.primariesByNumber[number]
	if !ok {
		return registry.PrimaryProfile{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) GetPrimaryByPhone(_ context.Context, phone string) (registry.PrimaryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	number, ok := s.primariesByPhone[phone]
	if !ok {
		return registry.PrimaryProfile{}, sentinel.ErrNotFound
	}
	return s.primariesByNumber[number], nil
}

func (s *InMemoryStore) SaveSecondary(_ context.Context, sp registry.SecondaryProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secondariesByNum[sp.Number]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.secondaryByPrimary[sp.PrimaryID]; ok {
		return sentinel.ErrConflict
	}
	s.secondariesByNum[sp.Number] = sp
	s.secondaryByPrimary[sp.PrimaryID] = sp.Number
	return nil
}

func (s *InMemoryStore) GetSecondaryByNumber(_ context.Context, number string) (registry.SecondaryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.secondariesByNum[number]
	if !ok {
		return registry.SecondaryProfile{}, sentinel.ErrNotFound
	}
	return sp, nil
}

func (s *InMemoryStore) GetSecondaryByPrimary(_ context.Context, primaryID string) (registry.SecondaryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	number, ok := s.secondaryByPrimary[primaryID]
	if !ok {
		return registry.SecondaryProfile{}, sentinel.ErrNotFound
	}
	return s.secondariesByNum[number], nil
}

func (s *InMemoryStore) CountPrimaries(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.primariesByNumber), nil
}

func (s *InMemoryStore) CountSecondaries(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.secondariesByNum), nil
}
