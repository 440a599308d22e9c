package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

// DBTX defines the database operations needed by repositories.
// It is satisfied by both *DB and *Tx so repositories run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetDialect() Dialect
}

// ErrConflict is returned by transaction bodies that lost an optimistic race
// and should be re-run against fresh state.
var ErrConflict = errors.New("concurrent update conflict")

// ErrRetriesExhausted is returned by WithTx when every attempt conflicted
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// maxTxAttempts bounds the retry-on-conflict loop in WithTx
const maxTxAttempts = 5

// Tx wraps sql.Tx with dialect-aware methods
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Begin starts a new transaction
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.Dialect}, nil
}

// GetDialect returns the database dialect
func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

// WithTx runs fn inside a transaction, committing on success.
// Attempts that fail with ErrConflict or a dialect-retryable error
// (lock timeouts, serialization failures, deadlocks) are retried with a short backoff.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		lastErr = db.runTx(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrConflict) && !db.Dialect.IsRetryable(lastErr) {
			return lastErr
		}
		log.Printf("Transaction attempt %d/%d conflicted: %v", attempt, maxTxAttempts, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*10) * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// QueryContext executes a query with automatic placeholder rewriting
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return tx.Tx.QueryContext(ctx, tx.dialect.RewriteQuery(query), args...)
}

// QueryRowContext executes a query that returns a single row with automatic placeholder rewriting
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return tx.Tx.QueryRowContext(ctx, tx.dialect.RewriteQuery(query), args...)
}

// ExecContext executes a query that doesn't return rows with automatic placeholder rewriting
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, tx.dialect.RewriteQuery(query), args...)
}

// GetDialect returns the transaction's dialect
func (tx *Tx) GetDialect() Dialect {
	return tx.dialect
}
