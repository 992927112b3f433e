// Package store persists admin accounts.
package store

import (
	"context"

	"vericred/internal/auth"
)

// Store is the persistence interface for admin accounts.
type Store interface {
	Save(ctx context.Context, a auth.Admin) error
	GetByEmail(ctx context.Context, email string) (auth.Admin, error)
}
