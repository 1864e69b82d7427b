package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
)

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...any) error
}

type DB struct {
	pool *sql.DB
}

func NewDB(pool *sql.DB) *DB {
	return &DB{pool: pool}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

// BeginTx opens a read-committed transaction. Balance safety comes from
// row locks and guarded updates, not from the isolation level.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, storageErr("BeginTx", err)
	}
	return tx, nil
}

func (d *DB) Commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return storageErr("Commit", err)
	}
	return nil
}

func (d *DB) PingContext(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
