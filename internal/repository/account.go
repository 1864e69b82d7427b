package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
)

const accountColumns = `id, user_id, account_type, account_number, balance, currency,
	status, version, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	return oneAccount("GetByID", row)
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number,
	)
	return oneAccount("GetByAccountNumber", row)
}

// GetPrimaryActive returns the user's active account holding the most funds.
func (r *AccountRepository) GetPrimaryActive(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 AND status = $2
		ORDER BY balance DESC, created_at
		LIMIT 1`,
		userID, domain.AccountStatusActive,
	)
	return oneAccount("GetPrimaryActive", row)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 ORDER BY balance DESC, created_at`, userID,
	)
	if err != nil {
		return nil, storageErr("ListByUser", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("ListByUser: scan", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListByUser: rows", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (
			id, user_id, account_type, account_number, balance, currency,
			status, version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.UserID, account.AccountType, account.AccountNumber,
		account.Balance, account.Currency, account.Status, account.Version,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrAccountNumberConflict)
		}
		return storageErr("Create", err)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	return oneAccount("GetForUpdate", row)
}

// Debit subtracts amount only while the balance covers it. A missing row
// means the guard failed.
func (r *AccountRepository) Debit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance - $1, version = version + 1
		WHERE id = $2 AND balance >= $1
		RETURNING balance`,
		amount, id,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("Debit: %w", domain.ErrInsufficientFunds)
		}
		return decimal.Zero, storageErr("Debit", err)
	}
	return balance, nil
}

func (r *AccountRepository) Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1, version = version + 1
		WHERE id = $2
		RETURNING balance`,
		amount, id,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("Credit: %w", domain.ErrNotFound)
		}
		return decimal.Zero, storageErr("Credit", err)
	}
	return balance, nil
}

func oneAccount(op string, row *sql.Row) (*domain.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, storageErr(op, err)
	}
	return a, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.UserID, &a.AccountType, &a.AccountNumber,
		&a.Balance, &a.Currency, &a.Status, &a.Version,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
