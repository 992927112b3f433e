// Package store persists gateway consumers.
package store

import (
	"context"

	"vericred/internal/gateway"
)

// Store is the persistence interface for gateway consumers.
type Store interface {
	Save(ctx context.Context, c gateway.Consumer) error
	GetByAPIKey(ctx context.Context, apiKey string) (gateway.Consumer, error)
}
