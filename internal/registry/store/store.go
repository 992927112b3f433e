// Package store persists registry profiles. Memory and Postgres
// implementations share the same semantics: lookups return
// sentinel.ErrNotFound for absent rows and saves return sentinel.ErrConflict
// when a uniqueness rule is violated.
package store

import (
	"context"

	"vericred/internal/registry"
)

// Store is the registry persistence port.
type Store interface {
	// SavePrimary inserts a primary profile. Returns sentinel.ErrConflict
	// when the number or phone is already registered.
	SavePrimary(ctx context.Context, p registry.PrimaryProfile) error
	GetPrimaryByNumber(ctx context.Context, number string) (registry.PrimaryProfile, error)
	GetPrimaryByPhone(ctx context.Context, phone string) (registry.PrimaryProfile, error)

	// SaveSecondary inserts a secondary profile. Returns sentinel.ErrConflict
	// when the number is taken or the primary already has a secondary.
	SaveSecondary(ctx context.Context, sp registry.SecondaryProfile) error
	GetSecondaryByNumber(ctx context.Context, number string) (registry.SecondaryProfile, error)
	GetSecondaryByPrimary(ctx context.Context, primaryID string) (registry.SecondaryProfile, error)

	CountPrimaries(ctx context.Context) (int, error)
	CountSecondaries(ctx context.Context) (int, error)
}
