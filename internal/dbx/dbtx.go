// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// helpers to run functions inside a (retried) transaction, driver error
// classification and opening of the supported databases.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is what repositories need from database/sql; *sql.DB and *sql.Tx
// both satisfy it, so a repository works the same in and out of a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db. The transaction commits when fn
// returns nil and is rolled back otherwise, including when fn panics.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "DELETE FROM websites WHERE id = $1", id)
//	    return err
//	})
//
// Begin and commit failures are wrapped with %w, so IsRetryable and
// IsUniqueViolation still see the driver error.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	done = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RunInTx runs fn inside WithTx and retries the whole transaction when the
// store reports lock contention, at most attempts extra times.
func RunInTx(ctx context.Context, db *sql.DB, attempts int, fn func(ctx context.Context, tx DBTX) error) error {
	return WithRetry(ctx, attempts, func(ctx context.Context) error {
		return WithTx(ctx, db, nil, fn)
	})
}
