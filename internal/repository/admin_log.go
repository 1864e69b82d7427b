package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
)

const adminLogColumns = `id, admin_id, action, target_user_id, target_id, details, created_at`

type AdminLogRepository struct {
	db *sql.DB
}

func NewAdminLogRepository(db *sql.DB) *AdminLogRepository {
	return &AdminLogRepository{db: db}
}

func (r *AdminLogRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.AdminLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details := entry.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO admin_logs (id, admin_id, action, target_user_id, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.AdminID, entry.Action, nullUUID(entry.TargetUserID), nullUUID(entry.TargetID),
		string(details), entry.CreatedAt,
	)
	if err != nil {
		return storageErr("Create", err)
	}
	return nil
}

func (r *AdminLogRepository) List(ctx context.Context, limit int) ([]domain.AdminLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adminLogColumns+` FROM admin_logs ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, storageErr("List", err)
	}
	defer rows.Close()

	var logs []domain.AdminLog
	for rows.Next() {
		l, err := scanAdminLog(rows)
		if err != nil {
			return nil, storageErr("List: scan", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("List: rows", err)
	}
	return logs, nil
}

func (r *AdminLogRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]domain.AdminLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adminLogColumns+` FROM admin_logs WHERE target_id = $1 ORDER BY created_at`, targetID,
	)
	if err != nil {
		return nil, storageErr("ListByTarget", err)
	}
	defer rows.Close()

	var logs []domain.AdminLog
	for rows.Next() {
		l, err := scanAdminLog(rows)
		if err != nil {
			return nil, storageErr("ListByTarget: scan", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListByTarget: rows", err)
	}
	return logs, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func scanAdminLog(s scanner) (*domain.AdminLog, error) {
	var l domain.AdminLog
	var targetUser, target uuid.NullUUID
	var details []byte
	err := s.Scan(&l.ID, &l.AdminID, &l.Action, &targetUser, &target, &details, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if targetUser.Valid {
		l.TargetUserID = &targetUser.UUID
	}
	if target.Valid {
		l.TargetID = &target.UUID
	}
	l.Details = details
	return &l, nil
}
