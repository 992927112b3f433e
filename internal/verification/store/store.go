// Package store persists verification records.
package store

import (
	"context"

	"vericred/internal/verification"
)

// Store is the verification record persistence port. Save must honor a
// transaction found on the context so the record and its audit entry commit
// together.
type Store interface {
	Save(ctx context.Context, r verification.Record) error
	Count(ctx context.Context) (int, error)
}
