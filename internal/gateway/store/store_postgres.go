package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vericred/internal/gateway"
	"vericred/pkg/platform/sentinel"
	txcontext "vericred/pkg/platform/tx"
)

// PostgresStore persists consumers in the gateway_consumers table.
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

func (s *PostgresStore) Save(ctx context.Context, c gateway.Consumer) error {
	const query = `
		INSERT INTO gateway_consumers (id, name, api_key, webhook_secret, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query, c.ID, c.Name, c.APIKey, c.Secret, c.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert gateway consumer: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByAPIKey(ctx context.Context, apiKey string) (gateway.Consumer, error) {
	const query = `
		SELECT id, name, api_key, webhook_secret, created_at
		FROM gateway_consumers
		WHERE api_key = $1
	`
	var c gateway.Consumer
	err := s.conn(ctx).QueryRowContext(ctx, query, apiKey).Scan(
		&c.ID, &c.Name, &c.APIKey, &c.Secret, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.Consumer{}, sentinel.ErrNotFound
	}
	if err != nil {
		return gateway.Consumer{}, fmt.Errorf("select gateway consumer: %w", err)
	}
	return c, nil
}
