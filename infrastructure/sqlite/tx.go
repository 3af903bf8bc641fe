package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, tx bun.Tx) error

var errNotInitialized = errors.New("sqlite handle is not initialized")

// WithWriteTx runs fn on the writer inside an immediate transaction.
func (db *DB) WithWriteTx(ctx context.Context, fn TxFunc) error {
	if db == nil || db.W == nil {
		return errNotInitialized
	}
	return db.W.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// WithReadTx runs fn on the reader pool inside a read-only transaction.
func (db *DB) WithReadTx(ctx context.Context, fn TxFunc) error {
	if db == nil || db.R == nil {
		return errNotInitialized
	}
	return db.R.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// Ping checks both handles.
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.WriteSQL == nil || db.ReadSQL == nil {
		return errNotInitialized
	}
	if err := db.WriteSQL.PingContext(ctx); err != nil {
		return err
	}
	return db.ReadSQL.PingContext(ctx)
}
