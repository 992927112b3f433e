package store

import (
	"context"
	"database/sql"
	"fmt"

	"vericred/internal/verification"
	txcontext "vericred/pkg/platform/tx"
)

// PostgresStore persists records in the verification_records table. Save
// participates in any transaction found on the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) conn(ctx context.Context) executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, r verification.Record) error {
	const query = `
		INSERT INTO verification_records
			(id, primary_number, secondary_number, registration, owner_score, entity_score, transaction_score, final_score, risk_category, recommendation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		r.ID, r.PrimaryNumber, r.SecondaryNumber, r.Registration,
		r.OwnerScore, r.EntityScore, r.TransactionScore, r.FinalScore,
		r.RiskCategory, r.Recommendation, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM verification_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count verification records: %w", err)
	}
	return n, nil
}
