package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeCredit   EntryType = "credit"
	EntryTypeDebit    EntryType = "debit"
	EntryTypeTransfer EntryType = "transfer"
)

type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusFailed    EntryStatus = "failed"
)

type TransactionEntry struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	TransferID      *uuid.UUID
	Type            EntryType
	Amount          decimal.Decimal
	Currency        Currency
	Description     string
	Recipient       *string
	Status          EntryStatus
	ReferenceNumber string
	CreatedAt       time.Time
}

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

func (o SortOrder) IsValid() bool {
	return o == SortDesc || o == SortAsc
}

var maxAmount = decimal.New(1, 13)

// ValidateAmount accepts positive amounts with at most two decimal places
// that fit the balance column.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) || amount.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}
