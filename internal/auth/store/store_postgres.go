package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vericred/internal/auth"
	"vericred/pkg/platform/sentinel"
)

// PostgresStore persists admins in the admins table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, a auth.Admin) error {
	const query = `
		INSERT INTO admins (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, a.ID, a.Email, a.PasswordHash, a.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (auth.Admin, error) {
	const query = `
		SELECT id, email, password_hash, created_at
		FROM admins
		WHERE email = $1
	`
	var a auth.Admin
	err := s.db.QueryRowContext(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Admin{}, sentinel.ErrNotFound
	}
	if err != nil {
		return auth.Admin{}, fmt.Errorf("select admin: %w", err)
	}
	return a, nil
}
