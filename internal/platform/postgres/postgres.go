// Package postgres opens the shared database handle and owns the schema DDL.
// Tables are created idempotently at startup; there is no separate migration
// tooling in this repository.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the full DDL for the platform. Statements are idempotent so
// EnsureSchema can run on every boot.
const Schema = `
CREATE TABLE IF NOT EXISTS primary_profiles (
	id              TEXT PRIMARY KEY,
	number          TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	phone           TEXT NOT NULL UNIQUE,
	email           TEXT,
	address         TEXT,
	kyc_status      TEXT NOT NULL DEFAULT 'VERIFIED',
	blacklisted     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS secondary_profiles (
	id              TEXT PRIMARY KEY,
	number          TEXT NOT NULL UNIQUE,
	primary_id      TEXT NOT NULL UNIQUE REFERENCES primary_profiles(id),
	linked          BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entities (
	id              TEXT PRIMARY KEY,
	registration    TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	entity_type     TEXT NOT NULL,
	state_code      TEXT NOT NULL,
	address         TEXT,
	suspended       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_owners (
	id              TEXT PRIMARY KEY,
	entity_id       TEXT NOT NULL REFERENCES entities(id),
	primary_id      TEXT NOT NULL REFERENCES primary_profiles(id),
	secondary_id    TEXT NOT NULL REFERENCES secondary_profiles(id)
);

CREATE TABLE IF NOT EXISTS filings (
	id               TEXT PRIMARY KEY,
	entity_id        TEXT NOT NULL REFERENCES entities(id),
	compliance_score INTEGER NOT NULL DEFAULT 0,
	filed_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoices (
	id              TEXT PRIMARY KEY,
	entity_id       TEXT NOT NULL REFERENCES entities(id),
	invoice_number  TEXT NOT NULL,
	buyer_reg       TEXT NOT NULL,
	issued_at       TIMESTAMPTZ NOT NULL,
	total_taxable   DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_tax       DOUBLE PRECISION NOT NULL DEFAULT 0,
	grand_total     DOUBLE PRECISION NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'UNPAID',
	delay_days      INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS otp_challenges (
	id              TEXT PRIMARY KEY,
	channel         TEXT NOT NULL,
	value           TEXT NOT NULL,
	code            TEXT NOT NULL,
	issued_at       TIMESTAMPTZ NOT NULL,
	expires_at      TIMESTAMPTZ NOT NULL,
	attempt_count   INTEGER NOT NULL DEFAULT 0,
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	consumed        BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS otp_challenges_lookup
	ON otp_challenges (channel, value, expires_at DESC);

CREATE TABLE IF NOT EXISTS verification_records (
	id                TEXT PRIMARY KEY,
	primary_number    TEXT,
	secondary_number  TEXT,
	registration      TEXT,
	owner_score       INTEGER NOT NULL,
	entity_score      INTEGER NOT NULL,
	transaction_score INTEGER NOT NULL,
	final_score       INTEGER NOT NULL,
	risk_category     TEXT NOT NULL,
	recommendation    TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS gateway_consumers (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	api_key         TEXT NOT NULL UNIQUE,
	webhook_secret  TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS admins (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	password_hash   TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id              TEXT PRIMARY KEY,
	actor           TEXT NOT NULL,
	action          TEXT NOT NULL,
	entity          TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	request_id      TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates all tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
