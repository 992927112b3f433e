package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vericred/internal/entity"
	"vericred/pkg/platform/sentinel"
	txcontext "vericred/pkg/platform/tx"
)

// PostgresStore persists entities in the entities, entity_owners, filings and
// invoices tables. Writes participate in any transaction found on the
// context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PostgresStore) SaveEntity(ctx context.Context, e entity.Entity, owners []entity.Owner) error {
	run := func(ctx context.Context) error {
		const entityQuery = `
			INSERT INTO entities (id, registration, name, entity_type, state_code, address, suspended, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := s.conn(ctx).ExecContext(ctx, entityQuery,
			e.ID, e.Registration, e.Name, e.Type, e.StateCode, e.Address, e.Suspended, e.CreatedAt,
		)
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}

		const ownerQuery = `
			INSERT INTO entity_owners (id, entity_id, primary_id, secondary_id)
			VALUES ($1, $2, $3, $4)
		`
		for _, o := range owners {
			if _, err := s.conn(ctx).ExecContext(ctx, ownerQuery, o.ID, o.EntityID, o.PrimaryID, o.SecondaryID); err != nil {
				return fmt.Errorf("insert entity owner: %w", err)
			}
		}
		return nil
	}

	// Entity and owner rows commit together even when the caller did not
	// open a transaction.
	if _, ok := txcontext.From(ctx); ok {
		return run(ctx)
	}
	return txcontext.Run(ctx, s.db, run)
}

func (s *PostgresStore) GetByRegistration(ctx context.Context, registration string) (entity.Entity, error) {
	const query = `
		SELECT id, registration, name, entity_type, state_code, address, suspended, created_at
		FROM entities
		WHERE registration = $1
	`
	var e entity.Entity
	err := s.conn(ctx).QueryRowContext(ctx, query, registration).Scan(
		&e.ID, &e.Registration, &e.Name, &e.Type, &e.StateCode, &e.Address, &e.Suspended, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Entity{}, sentinel.ErrNotFound
	}
	if err != nil {
		return entity.Entity{}, fmt.Errorf("select entity: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) AddFiling(ctx context.Context, f entity.Filing) error {
	const query = `
		INSERT INTO filings (id, entity_id, compliance_score, filed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.conn(ctx).ExecContext(ctx, query, f.ID, f.EntityID, f.ComplianceScore, f.FiledAt); err != nil {
		return fmt.Errorf("insert filing: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFilings(ctx context.Context, entityID string) ([]entity.Filing, error) {
	const query = `
		SELECT id, entity_id, compliance_score, filed_at
		FROM filings
		WHERE entity_id = $1
		ORDER BY filed_at DESC
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	defer rows.Close()

	var filings []entity.Filing
	for rows.Next() {
		var f entity.Filing
		if err := rows.Scan(&f.ID, &f.EntityID, &f.ComplianceScore, &f.FiledAt); err != nil {
			return nil, fmt.Errorf("scan filing: %w", err)
		}
		filings = append(filings, f)
	}
	return filings, rows.Err()
}

const invoiceColumns = "id, entity_id, invoice_number, buyer_reg, issued_at, total_taxable, total_tax, grand_total, status, delay_days, created_at"

func scanInvoice(row interface{ Scan(...any) error }) (entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.EntityID, &inv.InvoiceNumber, &inv.BuyerReg, &inv.IssuedAt,
		&inv.TotalTaxable, &inv.TotalTax, &inv.GrandTotal, &inv.Status, &inv.DelayDays, &inv.CreatedAt,
	)
	return inv, err
}

func (s *PostgresStore) AddInvoice(ctx context.Context, inv entity.Invoice) error {
	const query = `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		inv.ID, inv.EntityID, inv.InvoiceNumber, inv.BuyerReg, inv.IssuedAt,
		inv.TotalTaxable, inv.TotalTax, inv.GrandTotal, inv.Status, inv.DelayDays, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListInvoices(ctx context.Context, entityID string) ([]entity.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE entity_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *PostgresStore) GetInvoice(ctx context.Context, idOrNumber string) (entity.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 OR invoice_number = $1
		ORDER BY (id = $1) DESC
		LIMIT 1
	`
	inv, err := scanInvoice(s.conn(ctx).QueryRowContext(ctx, query, idOrNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Invoice{}, sentinel.ErrNotFound
	}
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("select invoice: %w", err)
	}
	return inv, nil
}

func (s *PostgresStore) UpdateInvoiceStatus(ctx context.Context, invoiceID string, status entity.InvoiceStatus, delayDays int) error {
	const query = `
		UPDATE invoices SET status = $2, delay_days = $3 WHERE id = $1
	`
	res, err := s.conn(ctx).ExecContext(ctx, query, invoiceID, status, delayDays)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *PostgresStore) CountEntities(ctx context.Context) (int, error) {
	return s.count(ctx, "entities")
}

func (s *PostgresStore) CountInvoices(ctx context.Context) (int, error) {
	return s.count(ctx, "invoices")
}
