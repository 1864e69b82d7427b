package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/notify"
)

type txRunner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Commit(tx *sql.Tx) error
}

type accountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetPrimaryActive(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	Debit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

type entryRepository interface {
	Append(ctx context.Context, tx *sql.Tx, entry *domain.TransactionEntry) (uuid.UUID, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.TransactionEntry, error)
	ListForAccount(ctx context.Context, accountID uuid.UUID, limit int, order domain.SortOrder) ([]domain.TransactionEntry, error)
	SettleTransferEntries(ctx context.Context, tx *sql.Tx, transferID uuid.UUID, status domain.EntryStatus) (int64, error)
	UpdateLabels(ctx context.Context, tx *sql.Tx, id uuid.UUID, description string, recipient *string) error
}

type transferRepository interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transfer, error)
	ListPending(ctx context.Context) ([]domain.Transfer, error)
	Decide(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.TransferStatus, reviewerID uuid.UUID, reason *string, at time.Time) error
}

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateFees(ctx context.Context, tx *sql.Tx, userID uuid.UUID, bank, crypto *decimal.Decimal) error
	UpdateFlags(ctx context.Context, tx *sql.Tx, userID uuid.UUID, authCodeRequired, businessAccountRequired *bool) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, userID uuid.UUID, status domain.UserStatus) error
}

type adminLogRepository interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.AdminLog) error
	List(ctx context.Context, limit int) ([]domain.AdminLog, error)
}

type alertSender interface {
	SendDebitAlert(ctx context.Context, alert notify.Alert) error
	SendCreditAlert(ctx context.Context, alert notify.Alert) error
}

type referenceSource interface {
	Next(prefix string) (string, error)
}

type accountNumberSource interface {
	AccountNumber() (string, error)
}
