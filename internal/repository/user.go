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

const userColumns = `id, email, name, username, password_hash, role, status, created_at`

const profileColumns = `id, pin_hash, bank_transfer_fee, crypto_transfer_fee,
	auth_code_required, business_account_required, status`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	return oneUser("GetByID", row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email,
	)
	return oneUser("GetByEmail", row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	)
	return oneUser("GetByUsername", row)
}

func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.AuthorizationProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM users WHERE id = $1`, userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetProfile: %w", domain.ErrNotFound)
		}
		return nil, storageErr("GetProfile", err)
	}
	return p, nil
}

func (r *UserRepository) SetPinHash(ctx context.Context, userID uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET pin_hash = $1, updated_at = now() WHERE id = $2`, hash, userID,
	)
	if err != nil {
		return storageErr("SetPinHash", err)
	}
	return requireRow("SetPinHash", res)
}

func (r *UserRepository) UpdateFees(ctx context.Context, tx *sql.Tx, userID uuid.UUID, bank, crypto *decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users
		SET bank_transfer_fee = COALESCE($1, bank_transfer_fee),
			crypto_transfer_fee = COALESCE($2, crypto_transfer_fee),
			updated_at = now()
		WHERE id = $3`,
		nullDecimal(bank), nullDecimal(crypto), userID,
	)
	if err != nil {
		return storageErr("UpdateFees", err)
	}
	return requireRow("UpdateFees", res)
}

func (r *UserRepository) UpdateFlags(ctx context.Context, tx *sql.Tx, userID uuid.UUID, authCodeRequired, businessAccountRequired *bool) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users
		SET auth_code_required = COALESCE($1, auth_code_required),
			business_account_required = COALESCE($2, business_account_required),
			updated_at = now()
		WHERE id = $3`,
		authCodeRequired, businessAccountRequired, userID,
	)
	if err != nil {
		return storageErr("UpdateFlags", err)
	}
	return requireRow("UpdateFlags", res)
}

func (r *UserRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, userID uuid.UUID, status domain.UserStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET status = $1, updated_at = now() WHERE id = $2`, status, userID,
	)
	if err != nil {
		return storageErr("UpdateStatus", err)
	}
	return requireRow("UpdateStatus", res)
}

func requireRow(op string, res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return storageErr(op+": rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func oneUser(op string, row *sql.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, storageErr(op, err)
	}
	return u, nil
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	err := s.Scan(
		&u.ID, &u.Email, &u.Name, &u.Username,
		&u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanProfile(s scanner) (*domain.AuthorizationProfile, error) {
	var p domain.AuthorizationProfile
	var bankFee, cryptoFee decimal.NullDecimal
	err := s.Scan(
		&p.UserID, &p.PinHash, &bankFee, &cryptoFee,
		&p.AuthCodeRequired, &p.BusinessAccountRequired, &p.Status,
	)
	if err != nil {
		return nil, err
	}
	if bankFee.Valid {
		p.BankTransferFee = &bankFee.Decimal
	}
	if cryptoFee.Valid {
		p.CryptoTransferFee = &cryptoFee.Decimal
	}
	return &p, nil
}
