package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
)

// reversalEntry is a balance movement that must be paired with a log entry
// inside the same transaction.
type reversalEntry struct {
	account     *domain.Account
	entryType   domain.EntryType
	amount      decimal.Decimal
	description string
	recipient   *string
	transferID  *uuid.UUID
}

type appliedEntry struct {
	entry      *domain.TransactionEntry
	newBalance decimal.Decimal
}

func applyEntries(
	ctx context.Context,
	tx *sql.Tx,
	accounts accountRepository,
	entries entryRepository,
	reference string,
	moves []reversalEntry,
	now time.Time,
) ([]appliedEntry, error) {
	applied := make([]appliedEntry, 0, len(moves))
	for _, m := range moves {
		var (
			balance decimal.Decimal
			err     error
		)
		if m.entryType == domain.EntryTypeDebit {
			balance, err = accounts.Debit(ctx, tx, m.account.ID, m.amount)
		} else {
			balance, err = accounts.Credit(ctx, tx, m.account.ID, m.amount)
		}
		if err != nil {
			return nil, fmt.Errorf("applyEntries: %s %s: %w", m.entryType, m.account.ID, err)
		}

		entry := &domain.TransactionEntry{
			AccountID:       m.account.ID,
			TransferID:      m.transferID,
			Type:            m.entryType,
			Amount:          m.amount,
			Currency:        m.account.Currency,
			Description:     m.description,
			Recipient:       m.recipient,
			Status:          domain.EntryStatusCompleted,
			ReferenceNumber: reference,
			CreatedAt:       now,
		}
		if _, err := entries.Append(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("applyEntries: append %s: %w", m.account.ID, err)
		}

		applied = append(applied, appliedEntry{entry: entry, newBalance: balance})
	}
	return applied, nil
}

func nextReference(refs referenceSource, prefix string) (string, error) {
	ref, err := refs.Next(prefix)
	if err != nil {
		return "", fmt.Errorf("nextReference: %w", err)
	}
	return ref, nil
}

func writeAuditLog(
	ctx context.Context,
	tx *sql.Tx,
	logs adminLogRepository,
	adminID uuid.UUID,
	action domain.AdminAction,
	targetUserID, targetID *uuid.UUID,
	details any,
) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("writeAuditLog: marshal: %w", err)
	}

	entry := &domain.AdminLog{
		ID:           uuid.New(),
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		TargetID:     targetID,
		Details:      raw,
		CreatedAt:    time.Now().UTC(),
	}
	if err := logs.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("writeAuditLog: %s: %w", action, err)
	}
	return nil
}

func alertFor(user *domain.User, counterparty string, applied appliedEntry) notify.Alert {
	return notify.Alert{
		Email:          user.Email,
		Name:           user.DisplayName(),
		Counterparty:   counterparty,
		Amount:         applied.entry.Amount,
		Currency:       string(applied.entry.Currency),
		CurrentBalance: applied.newBalance,
		TransactionID:  applied.entry.ReferenceNumber,
		Timestamp:      applied.entry.CreatedAt,
	}
}

func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepository, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		if _, ok := result[id]; ok {
			continue
		}
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}

