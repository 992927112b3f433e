// Package tx threads a SQL transaction through context so store methods can
// participate in a caller-owned unit of work. The verification pipeline uses
// this to make the VerificationRecord and its audit entry an all-or-nothing
// pair.
package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Atomic runs fn as one unit of work. Database-backed wiring uses Runner;
// memory-backed wiring uses Passthrough, whose stores serialize internally.
type Atomic func(ctx context.Context, fn func(ctx context.Context) error) error

// Runner returns an Atomic bound to db.
func Runner(db *sql.DB) Atomic {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return Run(ctx, db, fn)
	}
}

// Passthrough executes fn without a transaction.
func Passthrough(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Run executes fn inside a transaction placed on the context, committing on
// success and rolling back on any error or panic.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	t, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = t.Rollback()
			panic(p)
		}
	}()
	if err := fn(WithTx(ctx, t)); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
