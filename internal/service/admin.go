package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/refgen"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type accountLedger interface {
	EnsureAccount(ctx context.Context, userID uuid.UUID, defaults domain.AccountDefaults) (*domain.Account, error)
	Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, p Posting) (*Posted, error)
	Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, p Posting) (*Posted, error)
}

type AdminService struct {
	db       txRunner
	accounts accountRepository
	ledger   accountLedger
	entries  entryRepository
	users    userRepository
	audit    adminLogRepository
	refs     referenceSource
	alerts   alertSender
}

func NewAdminService(
	db txRunner,
	accounts accountRepository,
	ledger accountLedger,
	entries entryRepository,
	users userRepository,
	audit adminLogRepository,
	refs referenceSource,
	alerts alertSender,
) *AdminService {
	return &AdminService{
		db:       db,
		accounts: accounts,
		ledger:   ledger,
		entries:  entries,
		users:    users,
		audit:    audit,
		refs:     refs,
		alerts:   alerts,
	}
}

type AdjustBalanceRequest struct {
	UserID      uuid.UUID
	Direction   domain.EntryType
	Amount      decimal.Decimal
	Description string
}

type Adjustment struct {
	Account    *domain.Account
	Entry      *domain.TransactionEntry
	NewBalance decimal.Decimal
}

// AdjustBalance credits or debits a user's primary account. Crediting a user
// without an account opens one first.
func (s *AdminService) AdjustBalance(ctx context.Context, adminID uuid.UUID, req AdjustBalanceRequest) (*Adjustment, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}
	if req.Direction != domain.EntryTypeCredit && req.Direction != domain.EntryTypeDebit {
		return nil, fmt.Errorf("AdjustBalance: direction %q: %w", req.Direction, domain.ErrInvalidRequest)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}

	var acct *domain.Account
	if req.Direction == domain.EntryTypeCredit {
		acct, err = s.ledger.EnsureAccount(ctx, user.ID, domain.DefaultAccount)
	} else {
		acct, err = s.accounts.GetPrimaryActive(ctx, user.ID)
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrNoActiveAccount
		}
	}
	if err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Account credit"
		if req.Direction == domain.EntryTypeDebit {
			description = "Account debit"
		}
	}

	ref, err := nextReference(s.refs, refgen.PrefixAdmin)
	if err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}

	action := domain.AdminActionBalanceAdd
	post := s.ledger.Credit
	if req.Direction == domain.EntryTypeDebit {
		action = domain.AdminActionBalanceSubtract
		post = s.ledger.Debit
	}

	posted, err := post(ctx, acct.ID, req.Amount, Posting{
		Reference:   ref,
		Description: description,
		Within: func(ctx context.Context, tx *sql.Tx, p *Posted) error {
			return writeAuditLog(ctx, tx, s.audit, adminID, action, &user.ID, &acct.ID, map[string]any{
				"amount":           req.Amount,
				"new_balance":      p.NewBalance,
				"reference_number": ref,
				"description":      description,
			})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("AdjustBalance: %w", err)
	}

	log := logging.FromContext(ctx)
	log.Info("balance adjusted",
		"admin_id", adminID,
		"user_id", user.ID,
		"account_id", acct.ID,
		"direction", req.Direction,
		"amount", req.Amount,
	)

	alert := alertFor(user, "Heritage Bank", appliedEntry{entry: posted.Entry, newBalance: posted.NewBalance})
	if req.Direction == domain.EntryTypeCredit {
		err = s.alerts.SendCreditAlert(ctx, alert)
	} else {
		err = s.alerts.SendDebitAlert(ctx, alert)
	}
	if err != nil {
		log.Warn("adjustment alert failed", "user_id", user.ID, "error", err)
	}

	return &Adjustment{Account: posted.Account, Entry: posted.Entry, NewBalance: posted.NewBalance}, nil
}

// SetFees overrides the per-user transfer fees. A nil fee leaves the stored
// value unchanged.
func (s *AdminService) SetFees(ctx context.Context, adminID, userID uuid.UUID, bank, crypto *decimal.Decimal) error {
	for _, fee := range []*decimal.Decimal{bank, crypto} {
		if fee != nil && (fee.IsNegative() || !fee.Equal(fee.Round(2))) {
			return fmt.Errorf("SetFees: %w", domain.ErrInvalidAmount)
		}
	}
	if bank == nil && crypto == nil {
		return fmt.Errorf("SetFees: %w", domain.ErrInvalidRequest)
	}

	return s.inAuditedTx(ctx, "SetFees", adminID, userID, domain.AdminActionFeesUpdate,
		map[string]any{"bank_transfer_fee": bank, "crypto_transfer_fee": crypto},
		func(ctx context.Context, tx *sql.Tx) error {
			return s.users.UpdateFees(ctx, tx, userID, bank, crypto)
		})
}

func (s *AdminService) SetFlags(ctx context.Context, adminID, userID uuid.UUID, authCodeRequired, businessAccountRequired *bool) error {
	if authCodeRequired == nil && businessAccountRequired == nil {
		return fmt.Errorf("SetFlags: %w", domain.ErrInvalidRequest)
	}

	return s.inAuditedTx(ctx, "SetFlags", adminID, userID, domain.AdminActionFlagsUpdate,
		map[string]any{"auth_code_required": authCodeRequired, "business_account_required": businessAccountRequired},
		func(ctx context.Context, tx *sql.Tx) error {
			return s.users.UpdateFlags(ctx, tx, userID, authCodeRequired, businessAccountRequired)
		})
}

func (s *AdminService) SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, status domain.UserStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("SetUserStatus: status %q: %w", status, domain.ErrInvalidRequest)
	}

	return s.inAuditedTx(ctx, "SetUserStatus", adminID, userID, domain.AdminActionStatusUpdate,
		map[string]any{"status": status},
		func(ctx context.Context, tx *sql.Tx) error {
			return s.users.UpdateStatus(ctx, tx, userID, status)
		})
}

type CorrectEntryRequest struct {
	Description *string
	Recipient   *string
}

// CorrectEntry relabels an entry in place. Amount, type, account and
// reference never change; the previous labels go to the audit log.
func (s *AdminService) CorrectEntry(ctx context.Context, adminID, entryID uuid.UUID, req CorrectEntryRequest) (*domain.TransactionEntry, error) {
	if req.Description == nil && req.Recipient == nil {
		return nil, fmt.Errorf("CorrectEntry: %w", domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CorrectEntry: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.entries.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("CorrectEntry: %w", err)
	}

	before := map[string]any{"description": entry.Description, "recipient": entry.Recipient}

	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc == "" {
			return nil, fmt.Errorf("CorrectEntry: empty description: %w", domain.ErrInvalidRequest)
		}
		entry.Description = desc
	}
	if req.Recipient != nil {
		recipient := strings.TrimSpace(*req.Recipient)
		if recipient == "" {
			entry.Recipient = nil
		} else {
			entry.Recipient = &recipient
		}
	}

	if err := s.entries.UpdateLabels(ctx, tx, entry.ID, entry.Description, entry.Recipient); err != nil {
		return nil, fmt.Errorf("CorrectEntry: %w", err)
	}

	acct, err := s.accounts.GetByID(ctx, entry.AccountID)
	if err != nil {
		return nil, fmt.Errorf("CorrectEntry: %w", err)
	}

	err = writeAuditLog(ctx, tx, s.audit, adminID, domain.AdminActionTransactionCorrect, &acct.UserID, &entry.ID, map[string]any{
		"before": before,
		"after":  map[string]any{"description": entry.Description, "recipient": entry.Recipient},
	})
	if err != nil {
		return nil, fmt.Errorf("CorrectEntry: %w", err)
	}

	if err := s.db.Commit(tx); err != nil {
		return nil, fmt.Errorf("CorrectEntry: %w", err)
	}

	logging.FromContext(ctx).Info("transaction entry corrected", "admin_id", adminID, "entry_id", entry.ID)
	return entry, nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, limit int) ([]domain.AdminLog, error) {
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}

	logs, err := s.audit.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ListAuditLogs: %w", err)
	}
	return logs, nil
}

func (s *AdminService) inAuditedTx(
	ctx context.Context,
	op string,
	adminID, userID uuid.UUID,
	action domain.AdminAction,
	details map[string]any,
	fn func(ctx context.Context, tx *sql.Tx) error,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeAuditLog(ctx, tx, s.audit, adminID, action, &userID, nil, details); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.db.Commit(tx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logging.FromContext(ctx).Info("user settings updated", "admin_id", adminID, "user_id", userID, "action", action)
	return nil
}
