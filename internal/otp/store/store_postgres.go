package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vericred/internal/otp"
	"vericred/pkg/platform/sentinel"
	txcontext "vericred/pkg/platform/tx"
)

// PostgresStore persists challenges in the otp_challenges table. Consume uses
// a single guarded UPDATE so concurrent consumers race on the row and exactly
// one wins.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const challengeColumns = "id, channel, value, code, issued_at, expires_at, attempt_count, verified, consumed"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction from the context when one is present, so
// Consume can commit together with the profile write it gates.
func (s *PostgresStore) conn(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func scanChallenge(row interface{ Scan(...any) error }) (otp.Challenge, error) {
	var ch otp.Challenge
	err := row.Scan(&ch.ID, &ch.Channel, &ch.Value, &ch.Code, &ch.IssuedAt, &ch.ExpiresAt, &ch.AttemptCount, &ch.Verified, &ch.Consumed)
	return ch, err
}

func (s *PostgresStore) Save(ctx context.Context, ch otp.Challenge) error {
	const query = `
		INSERT INTO otp_challenges (id, channel, value, code, issued_at, expires_at, attempt_count, verified, consumed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		ch.ID, ch.Channel, ch.Value, ch.Code, ch.IssuedAt, ch.ExpiresAt, ch.AttemptCount, ch.Verified, ch.Consumed,
	)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyLatest(ctx context.Context, channel otp.Channel, value, code string, now time.Time) (otp.Challenge, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("begin verify tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the candidate row so a concurrent verify of the same challenge
	// serializes behind us.
	const selectQuery = `
		SELECT ` + challengeColumns + `
		FROM otp_challenges
		WHERE channel = $1 AND value = $2
		  AND verified = FALSE AND consumed = FALSE AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
		FOR UPDATE
	`
	ch, err := scanChallenge(tx.QueryRowContext(ctx, selectQuery, channel, value, now))
	if errors.Is(err, sql.ErrNoRows) {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("select challenge: %w", err)
	}

	if ch.Code != code {
		if _, err := tx.ExecContext(ctx,
			`UPDATE otp_challenges SET attempt_count = attempt_count + 1 WHERE id = $1`, ch.ID,
		); err != nil {
			return otp.Challenge{}, fmt.Errorf("record attempt: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return otp.Challenge{}, fmt.Errorf("commit attempt: %w", err)
		}
		return otp.Challenge{}, sentinel.ErrMismatch
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE otp_challenges SET verified = TRUE WHERE id = $1`, ch.ID,
	); err != nil {
		return otp.Challenge{}, fmt.Errorf("mark verified: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return otp.Challenge{}, fmt.Errorf("commit verify: %w", err)
	}

	ch.Verified = true
	return ch, nil
}

func (s *PostgresStore) ConsumeLatest(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error) {
	// Single statement: last verified unconsumed challenge flips to consumed.
	// Losers of a concurrent race see zero rows.
	const query = `
		UPDATE otp_challenges SET consumed = TRUE
		WHERE id = (
			SELECT id FROM otp_challenges
			WHERE channel = $1 AND value = $2 AND verified = TRUE AND consumed = FALSE
			ORDER BY expires_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + challengeColumns + `
	`
	ch, err := scanChallenge(s.conn(ctx).QueryRowContext(ctx, query, channel, value))
	if errors.Is(err, sql.ErrNoRows) {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("consume challenge: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) LatestVerified(ctx context.Context, channel otp.Channel, value string) (otp.Challenge, error) {
	const query = `
		SELECT ` + challengeColumns + `
		FROM otp_challenges
		WHERE channel = $1 AND value = $2 AND verified = TRUE
		ORDER BY expires_at DESC
		LIMIT 1
	`
	ch, err := scanChallenge(s.db.QueryRowContext(ctx, query, channel, value))
	if errors.Is(err, sql.ErrNoRows) {
		return otp.Challenge{}, sentinel.ErrNotFound
	}
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("select verified challenge: %w", err)
	}
	return ch, nil
}
