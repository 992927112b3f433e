package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vericred/internal/registry"
	"vericred/pkg/platform/sentinel"
	txcontext "vericred/pkg/platform/tx"
)

// PostgresStore persists profiles in the primary_profiles and
// secondary_profiles tables. Writes participate in any transaction found on
// the context so profile creation can commit alongside OTP consumption and
// the audit entry.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
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

func (s *PostgresStore) SavePrimary(ctx context.Context, p registry.PrimaryProfile) error {
	const query = `
		INSERT INTO primary_profiles (id, number, name, phone, email, address, kyc_status, blacklisted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		p.ID, p.Number, p.Name, p.Phone, p.Email, p.Address, p.KYCStatus, p.Blacklisted, p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert primary profile: %w", err)
	}
	return nil
}

const primaryColumns = "id, number, name, phone, email, address, kyc_status, blacklisted, created_at"

func (s *PostgresStore) getPrimary(ctx context.Context, where string, arg any) (registry.PrimaryProfile, error) {
	query := "SELECT " + primaryColumns + " FROM primary_profiles WHERE " + where
	var p registry.PrimaryProfile
	err := s.conn(ctx).QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Number, &p.Name, &p.Phone, &p.Email, &p.Address, &p.KYCStatus, &p.Blacklisted, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.PrimaryProfile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.PrimaryProfile{}, fmt.Errorf("select primary profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPrimaryByNumber(ctx context.Context, number string) (registry.PrimaryProfile, error) {
	return s.getPrimary(ctx, "number = $1", number)
}

func (s *PostgresStore) GetPrimaryByPhone(ctx context.Context, phone string) (registry.PrimaryProfile, error) {
	return s.getPrimary(ctx, "phone = $1", phone)
}

func (s *PostgresStore) SaveSecondary(ctx context.Context, sp registry.SecondaryProfile) error {
	const query = `
		INSERT INTO secondary_profiles (id, number, primary_id, linked, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		sp.ID, sp.Number, sp.PrimaryID, sp.Linked, sp.CreatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert secondary profile: %w", err)
	}
	return nil
}

const secondaryColumns = "id, number, primary_id, linked, created_at"

func (s *PostgresStore) getSecondary(ctx context.Context, where string, arg any) (registry.SecondaryProfile, error) {
	query := "SELECT " + secondaryColumns + " FROM secondary_profiles WHERE " + where
	var sp registry.SecondaryProfile
	err := s.conn(ctx).QueryRowContext(ctx, query, arg).Scan(
		&sp.ID, &sp.Number, &sp.PrimaryID, &sp.Linked, &sp.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.SecondaryProfile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.SecondaryProfile{}, fmt.Errorf("select secondary profile: %w", err)
	}
	return sp, nil
}

func (s *PostgresStore) GetSecondaryByNumber(ctx context.Context, number string) (registry.SecondaryProfile, error) {
	return s.getSecondary(ctx, "number = $1", number)
}

func (s *PostgresStore) GetSecondaryByPrimary(ctx context.Context, primaryID string) (registry.SecondaryProfile, error) {
	return s.getSecondary(ctx, "primary_id = $1", primaryID)
}

func (s *PostgresStore) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (s *PostgresStore) CountPrimaries(ctx context.Context) (int, error) {
	return s.count(ctx, "primary_profiles")
}

func (s *PostgresStore) CountSecondaries(ctx context.Context) (int, error) {
	return s.count(ctx, "secondary_profiles")
}
