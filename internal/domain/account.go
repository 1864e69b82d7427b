package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const CurrencyUSD Currency = "USD"

func (c Currency) IsValid() bool {
	return len(c) == 3
}

type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBlocked AccountStatus = "blocked"
)

type Account struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountType   AccountType
	AccountNumber string
	Balance       decimal.Decimal
	Currency      Currency
	Status        AccountStatus
	Version       int64
	CreatedAt     time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// AccountDefaults describes the account opened when a user has none.
type AccountDefaults struct {
	AccountType AccountType
	Currency    Currency
}

var DefaultAccount = AccountDefaults{
	AccountType: AccountTypeChecking,
	Currency:    CurrencyUSD,
}
