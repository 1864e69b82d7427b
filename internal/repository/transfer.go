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

const transferColumns = `id, user_id, source_account_id, recipient_name, recipient_account_number,
	recipient_bank, recipient_country, routing_code, amount, fee, currency, transfer_type,
	reference_number, status, approved_by, rejection_reason, created_at, updated_at, decided_at`

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (
			id, user_id, source_account_id, recipient_name, recipient_account_number,
			recipient_bank, recipient_country, routing_code, amount, fee, currency, transfer_type,
			reference_number, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		t.ID, t.UserID, t.SourceAccountID, t.RecipientName, t.RecipientAccountNumber,
		t.RecipientBank, t.RecipientCountry, t.RoutingCode, t.Amount, t.Fee, t.Currency, t.TransferType,
		t.ReferenceNumber, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return storageErr("Create", err)
	}
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id,
	)
	return oneTransfer("GetByID", row)
}

func (r *TransferRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transfer, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id,
	)
	return oneTransfer("GetForUpdate", row)
}

func (r *TransferRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, storageErr("ListByUser", err)
	}
	return collectTransfers("ListByUser", rows)
}

func (r *TransferRepository) ListPending(ctx context.Context) ([]domain.Transfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers
		WHERE status = $1 ORDER BY created_at DESC, id DESC`,
		domain.TransferStatusPending,
	)
	if err != nil {
		return nil, storageErr("ListPending", err)
	}
	return collectTransfers("ListPending", rows)
}

// Decide moves a pending transfer to a terminal status. Zero affected rows
// means another decision landed first.
func (r *TransferRepository) Decide(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.TransferStatus, reviewerID uuid.UUID, reason *string, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transfers
		SET status = $1, approved_by = $2, rejection_reason = $3, decided_at = $4, updated_at = $4
		WHERE id = $5 AND status = $6`,
		status, reviewerID, reason, at, id, domain.TransferStatusPending,
	)
	if err != nil {
		return storageErr("Decide", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return storageErr("Decide: rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("Decide: %w", domain.ErrTransferNotPending)
	}
	return nil
}

func oneTransfer(op string, row *sql.Row) (*domain.Transfer, error) {
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, storageErr(op, err)
	}
	return t, nil
}

func collectTransfers(op string, rows *sql.Rows) ([]domain.Transfer, error) {
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, storageErr(op+": scan", err)
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op+": rows", err)
	}
	return transfers, nil
}

func scanTransfer(s scanner) (*domain.Transfer, error) {
	var t domain.Transfer
	var approvedBy uuid.NullUUID
	err := s.Scan(
		&t.ID, &t.UserID, &t.SourceAccountID, &t.RecipientName, &t.RecipientAccountNumber,
		&t.RecipientBank, &t.RecipientCountry, &t.RoutingCode, &t.Amount, &t.Fee, &t.Currency, &t.TransferType,
		&t.ReferenceNumber, &t.Status, &approvedBy, &t.RejectionReason, &t.CreatedAt, &t.UpdatedAt, &t.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		t.ApprovedBy = &approvedBy.UUID
	}
	return &t, nil
}
