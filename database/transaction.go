package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LedgerLockKey is the advisory lock that serializes every ledger operation
const LedgerLockKey int64 = 0x6c6f74746f

// BeginSerialized starts a transaction and blocks until it holds the ledger lock.
// The lock is released when the transaction commits or rolls back, so operations
// observe all previously committed state and never interleave.
func (db *DB) BeginSerialized(ctx context.Context) (pgx.Tx, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", LedgerLockKey); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return nil, fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return nil, fmt.Errorf("failed to acquire ledger lock: %w", err)
	}

	return tx, nil
}
