package exec

import (
	"context"
	"database/sql"
)

// TxExecutor runs statements inside one transaction. It shares the parent's
// configuration and cache state; flushed caches stay flushed even if the
// transaction rolls back.
type TxExecutor struct {
	*Executor
	tx *sql.Tx
}

// Begin opens a transaction and returns an executor bound to it.
func (e *Executor) Begin(ctx context.Context, db *sql.DB, opts *sql.TxOptions) (*TxExecutor, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &TxExecutor{
		Executor: New(tx, e.config),
		tx:       tx,
	}, nil
}

// Commit commits the transaction.
func (t *TxExecutor) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *TxExecutor) Rollback() error { return t.tx.Rollback() }
