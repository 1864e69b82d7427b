package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
)

const transactionColumns = `id, account_id, transfer_id, transaction_type, amount, currency,
	description, recipient, status, reference_number, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Append(ctx context.Context, tx *sql.Tx, entry *domain.TransactionEntry) (uuid.UUID, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var transferID uuid.NullUUID
	if entry.TransferID != nil {
		transferID = uuid.NullUUID{UUID: *entry.TransferID, Valid: true}
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, account_id, transfer_id, transaction_type, amount, currency,
			description, recipient, status, reference_number, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.AccountID, transferID, entry.Type, entry.Amount, entry.Currency,
		entry.Description, entry.Recipient, entry.Status, entry.ReferenceNumber,
		entry.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, storageErr("Append", err)
	}
	return entry.ID, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, storageErr("GetByID", err)
	}
	return e, nil
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.TransactionEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, storageErr("GetForUpdate", err)
	}
	return e, nil
}

func (r *TransactionRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, limit int, order domain.SortOrder) ([]domain.TransactionEntry, error) {
	direction := "DESC"
	if order == domain.SortAsc {
		direction = "ASC"
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY created_at `+direction+`, id `+direction+` LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, storageErr("ListForAccount", err)
	}
	return collectEntries("ListForAccount", rows)
}

func (r *TransactionRepository) ListByReference(ctx context.Context, reference string) ([]domain.TransactionEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE reference_number = $1 ORDER BY created_at, transaction_type`, reference,
	)
	if err != nil {
		return nil, storageErr("ListByReference", err)
	}
	return collectEntries("ListByReference", rows)
}

// SettleTransferEntries moves the pending entries of a transfer to their
// final status. Entries in any other status are left alone.
func (r *TransactionRepository) SettleTransferEntries(ctx context.Context, tx *sql.Tx, transferID uuid.UUID, status domain.EntryStatus) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = $1
		WHERE transfer_id = $2 AND status = $3`,
		status, transferID, domain.EntryStatusPending,
	)
	if err != nil {
		return 0, storageErr("SettleTransferEntries", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("SettleTransferEntries: rows affected", err)
	}
	return n, nil
}

func (r *TransactionRepository) UpdateLabels(ctx context.Context, tx *sql.Tx, id uuid.UUID, description string, recipient *string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET description = $1, recipient = $2 WHERE id = $3`,
		description, recipient, id,
	)
	if err != nil {
		return storageErr("UpdateLabels", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return storageErr("UpdateLabels: rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateLabels: %w", domain.ErrNotFound)
	}
	return nil
}

func collectEntries(op string, rows *sql.Rows) ([]domain.TransactionEntry, error) {
	defer rows.Close()

	var entries []domain.TransactionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr(op+": scan", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op+": rows", err)
	}
	return entries, nil
}

func scanEntry(s scanner) (*domain.TransactionEntry, error) {
	var e domain.TransactionEntry
	var transferID uuid.NullUUID
	err := s.Scan(
		&e.ID, &e.AccountID, &transferID, &e.Type, &e.Amount, &e.Currency,
		&e.Description, &e.Recipient, &e.Status, &e.ReferenceNumber, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if transferID.Valid {
		e.TransferID = &transferID.UUID
	}
	return &e, nil
}
