package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
	"github.com/josh-kwaku/heritage-ledger/internal/service/gate"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type txRunner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Commit(tx *sql.Tx) error
}

type accountRepo interface {
	GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error)
	GetPrimaryActive(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	Debit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

type entryRepo interface {
	Append(ctx context.Context, tx *sql.Tx, entry *domain.TransactionEntry) (uuid.UUID, error)
}

type transferRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transfer, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type authorizer interface {
	Authorize(ctx context.Context, userID uuid.UUID, kind domain.FeeKind, creds gate.Credentials) (*gate.Authorization, error)
}

type referenceSource interface {
	Next(prefix string) (string, error)
}

type alertSender interface {
	SendDebitAlert(ctx context.Context, alert notify.Alert) error
	SendCreditAlert(ctx context.Context, alert notify.Alert) error
}

type Service struct {
	db        txRunner
	accounts  accountRepo
	entries   entryRepo
	transfers transferRepo
	users     userRepo
	gate      authorizer
	refs      referenceSource
	alerts    alertSender
}

func NewService(
	db txRunner,
	accounts accountRepo,
	entries entryRepo,
	transfers transferRepo,
	users userRepo,
	gate authorizer,
	refs referenceSource,
	alerts alertSender,
) *Service {
	return &Service{
		db:        db,
		accounts:  accounts,
		entries:   entries,
		transfers: transfers,
		users:     users,
		gate:      gate,
		refs:      refs,
		alerts:    alerts,
	}
}

// GetTransfer returns a transfer initiated by actor. Other users' transfers
// are reported as not found.
func (s *Service) GetTransfer(ctx context.Context, actor, transferID uuid.UUID) (*domain.Transfer, error) {
	t, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("GetTransfer: %w", err)
	}
	if t.UserID != actor {
		return nil, fmt.Errorf("GetTransfer: %w", domain.ErrNotFound)
	}
	return t, nil
}

func (s *Service) ListTransfers(ctx context.Context, actor uuid.UUID, limit int) ([]domain.Transfer, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	transfers, err := s.transfers.ListByUser(ctx, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("ListTransfers: %w", err)
	}
	return transfers, nil
}

func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
