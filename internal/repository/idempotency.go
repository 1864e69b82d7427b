package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type IdempotencyRecord struct {
	Key          string
	UserID       uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Lookup returns nil without error when no live record exists.
func (r *IdempotencyRepository) Lookup(ctx context.Context, key string, userID uuid.UUID) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_records
		WHERE idempotency_key = $1 AND user_id = $2 AND expires_at > now()`,
		key, userID,
	).Scan(&rec.Key, &rec.UserID, &rec.RequestHash, &rec.StatusCode, &rec.ResponseBody, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("Lookup", err)
	}
	return &rec, nil
}

func (r *IdempotencyRepository) Save(ctx context.Context, rec *IdempotencyRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_records (idempotency_key, user_id, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key, user_id) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
			status_code = EXCLUDED.status_code,
			response_body = EXCLUDED.response_body,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_records.expires_at <= now()`,
		rec.Key, rec.UserID, rec.RequestHash, rec.StatusCode, rec.ResponseBody, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return storageErr("Save", err)
	}
	return nil
}

func (r *IdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_records WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, storageErr("PurgeExpired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("PurgeExpired: rows affected", err)
	}
	return n, nil
}
