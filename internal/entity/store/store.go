// Package store persists business entities, filings and invoices. Memory and
// Postgres implementations share the same semantics: lookups return
// sentinel.ErrNotFound for absent rows and SaveEntity returns
// sentinel.ErrConflict when the registration number is taken.
package store

import (
	"context"

	"vericred/internal/entity"
)

// Store is the entity persistence port.
type Store interface {
	// SaveEntity inserts the entity and its owner links as one unit.
	SaveEntity(ctx context.Context, e entity.Entity, owners []entity.Owner) error
	GetByRegistration(ctx context.Context, registration string) (entity.Entity, error)

	AddFiling(ctx context.Context, f entity.Filing) error
	// ListFilings returns an entity's filings newest first.
	ListFilings(ctx context.Context, entityID string) ([]entity.Filing, error)

	AddInvoice(ctx context.Context, inv entity.Invoice) error
	// ListInvoices returns an entity's invoices newest first.
	ListInvoices(ctx context.Context, entityID string) ([]entity.Invoice, error)
	// GetInvoice resolves an invoice by internal ID, falling back to the
	// invoice number.
	GetInvoice(ctx context.Context, idOrNumber string) (entity.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, status entity.InvoiceStatus, delayDays int) error

	CountEntities(ctx context.Context) (int, error)
	CountInvoices(ctx context.Context) (int, error)
}
