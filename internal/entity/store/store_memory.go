package store

import (
	"context"
	"sort"
	"sync"

	"vericred/internal/entity"
	"vericred/pkg/platform/sentinel"
)

// InMemoryStore keeps entities in maps guarded by a single mutex. Used in
// tests and in deployments without Postgres.
type InMemoryStore struct {
	mu       sync.RWMutex
	entities map[string]entity.Entity
	byReg    map[string]string
	owners   map[string][]entity.Owner
	filings  map[string][]entity.Filing
	invoices map[string][]entity.Invoice
	invByID  map[string]invoiceRef
}

type invoiceRef struct {
	entityID string
	index    int
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		entities: make(map[string]entity.Entity),
		byReg:    make(map[string]string),
		owners:   make(map[string][]entity.Owner),
		filings:  make(map[string][]entity.Filing),
		invoices: make(map[string][]entity.Invoice),
		invByID:  make(map[string]invoiceRef),
	}
}

func (s *InMemoryStore) SaveEntity(_ context.Context, e entity.Entity, owners []entity.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byReg[e.Registration]; ok {
		return sentinel.ErrConflict
	}
	s.entities[e.ID] = e
	s.byReg[e.Registration] = e.ID
	s.owners[e.ID] = append([]entity.Owner(nil), owners...)
	return nil
}

func (s *InMemoryStore) GetByRegistration(_ context.Context, registration string) (entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byReg[registration]
	if !ok {
		return entity.Entity{}, sentinel.ErrNotFound
	}
	return s.entities[id], nil
}

func (s *InMemoryStore) AddFiling(_ context.Context, f entity.Filing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[f.EntityID]; !ok {
		return sentinel.ErrNotFound
	}
	s.filings[f.EntityID] = append(s.filings[f.EntityID], f)
	return nil
}

func (s *InMemoryStore) ListFilings(_ context.Context, entityID string) ([]entity.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]entity.Filing(nil), s.filings[entityID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].FiledAt.After(out[j].FiledAt) })
	return out, nil
}

func (s *InMemoryStore) AddInvoice(_ context.Context, inv entity.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[inv.EntityID]; !ok {
		return sentinel.ErrNotFound
	}
	s.invoices[inv.EntityID] = append(s.invoices[inv.EntityID], inv)
	s.invByID[inv.ID] = invoiceRef{entityID: inv.EntityID, index: len(s.invoices[inv.EntityID]) - 1}
	return nil
}

func (s *InMemoryStore) ListInvoices(_ context.Context, entityID string) ([]entity.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]entity.Invoice(nil), s.invoices[entityID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) GetInvoice(_ context.Context, idOrNumber string) (entity.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ref, ok := s.invByID[idOrNumber]; ok {
		return s.invoices[ref.entityID][ref.index], nil
	}
	for _, list := range s.invoices {
		for _, inv := range list {
			if inv.InvoiceNumber == idOrNumber {
				return inv, nil
			}
		}
	}
	return entity.Invoice{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateInvoiceStatus(_ context.Context, invoiceID string, status entity.InvoiceStatus, delayDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.invByID[invoiceID]
	if !ok {
		return sentinel.ErrNotFound
	}
	inv := s.invoices[ref.entityID][ref.index]
	inv.Status = status
	inv.DelayDays = delayDays
	s.invoices[ref.entityID][ref.index] = inv
	return nil
}

func (s *InMemoryStore) CountEntities(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities), nil
}

func (s *InMemoryStore) CountInvoices(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invByID), nil
}
