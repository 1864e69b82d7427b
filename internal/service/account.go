package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	accountNumberAttempts = 5
)

type AccountService struct {
	db       txRunner
	accounts accountRepository
	entries  entryRepository
	numbers  accountNumberSource
}

func NewAccountService(db txRunner, accounts accountRepository, entries entryRepository, numbers accountNumberSource) *AccountService {
	return &AccountService{db: db, accounts: accounts, entries: entries, numbers: numbers}
}

// EnsureAccount returns the user's primary active account, opening an empty
// one with the given defaults when the user has none.
func (s *AccountService) EnsureAccount(ctx context.Context, userID uuid.UUID, defaults domain.AccountDefaults) (*domain.Account, error) {
	acct, err := s.accounts.GetPrimaryActive(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("EnsureAccount: %w", err)
	}

	if !defaults.AccountType.IsValid() || !defaults.Currency.IsValid() {
		return nil, fmt.Errorf("EnsureAccount: %w", domain.ErrInvalidRequest)
	}

	for attempt := 1; attempt <= accountNumberAttempts; attempt++ {
		number, err := s.numbers.AccountNumber()
		if err != nil {
			return nil, fmt.Errorf("EnsureAccount: %w", err)
		}

		acct = &domain.Account{
			ID:            uuid.New(),
			UserID:        userID,
			AccountType:   defaults.AccountType,
			AccountNumber: number,
			Balance:       decimal.Zero,
			Currency:      defaults.Currency,
			Status:        domain.AccountStatusActive,
			Version:       1,
			CreatedAt:     time.Now().UTC(),
		}

		err = s.accounts.Create(ctx, acct)
		if err == nil {
			logging.FromContext(ctx).Info("account opened",
				"account_id", acct.ID,
				"user_id", userID,
				"account_type", acct.AccountType,
			)
			return acct, nil
		}
		if !errors.Is(err, domain.ErrAccountNumberConflict) {
			return nil, fmt.Errorf("EnsureAccount: %w", err)
		}
	}

	return nil, fmt.Errorf("EnsureAccount: %w", domain.ErrAccountNumberConflict)
}

func (s *AccountService) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("GetBalance: %w", err)
	}
	return acct.Balance, nil
}

// Posting labels the log entry written with a balance change. Within, when
// set, runs in the same transaction after the entry is appended.
type Posting struct {
	Reference   string
	Description string
	Within      func(ctx context.Context, tx *sql.Tx, posted *Posted) error
}

type Posted struct {
	Account    *domain.Account
	Entry      *domain.TransactionEntry
	NewBalance decimal.Decimal
}

// Debit removes amount from the account and appends a completed debit entry.
func (s *AccountService) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, p Posting) (*Posted, error) {
	posted, err := s.post(ctx, accountID, domain.EntryTypeDebit, amount, p)
	if err != nil {
		return nil, fmt.Errorf("Debit: %w", err)
	}
	return posted, nil
}

// Credit adds amount to the account and appends a completed credit entry.
func (s *AccountService) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, p Posting) (*Posted, error) {
	posted, err := s.post(ctx, accountID, domain.EntryTypeCredit, amount, p)
	if err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}
	return posted, nil
}

func (s *AccountService) post(ctx context.Context, accountID uuid.UUID, entryType domain.EntryType, amount decimal.Decimal, p Posting) (*Posted, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Reference) == "" || strings.TrimSpace(p.Description) == "" {
		return nil, fmt.Errorf("reference and description required: %w", domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}
	acct := locked[accountID]

	applied, err := applyEntries(ctx, tx, s.accounts, s.entries, p.Reference, []reversalEntry{{
		account:     acct,
		entryType:   entryType,
		amount:      amount,
		description: p.Description,
	}}, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	acct.Balance = applied[0].newBalance
	posted := &Posted{Account: acct, Entry: applied[0].entry, NewBalance: applied[0].newBalance}
	if p.Within != nil {
		if err := p.Within(ctx, tx, posted); err != nil {
			return nil, err
		}
	}

	if err := s.db.Commit(tx); err != nil {
		return nil, err
	}
	return posted, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// ListTransactions returns history for an account owned by userID. Accounts
// owned by someone else are reported as not found.
func (s *AccountService) ListTransactions(ctx context.Context, userID, accountID uuid.UUID, limit int, order domain.SortOrder) ([]domain.TransactionEntry, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("ListTransactions: %w", domain.ErrNotFound)
	}

	if order == "" {
		order = domain.SortDesc
	}
	if !order.IsValid() {
		return nil, fmt.Errorf("ListTransactions: order %q: %w", order, domain.ErrInvalidRequest)
	}

	entries, err := s.entries.ListForAccount(ctx, accountID, clampLimit(limit), order)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return entries, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}
