package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TxBeginner is satisfied by *sqlx.DB.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TxOptions tunes RunInTx.
type TxOptions struct {
	Isolation   sql.IsolationLevel
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultTxOptions runs at read committed with three attempts.
var DefaultTxOptions = TxOptions{Isolation: sql.LevelReadCommitted, MaxAttempts: 3, Backoff: 20 * time.Millisecond}

// RunInTx executes fn inside a transaction, committing on success. Serialization
// failures and deadlocks are replayed up to MaxAttempts; every other error
// rolls back and is returned as-is.
func RunInTx(ctx context.Context, db TxBeginner, opts TxOptions, fn func(tx *sqlx.Tx) error) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = runOnce(ctx, db, opts.Isolation, fn)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt < attempts && opts.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.Backoff * time.Duration(attempt)):
			}
		}
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", attempts, lastErr)
}

func runOnce(ctx context.Context, db TxBeginner, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
