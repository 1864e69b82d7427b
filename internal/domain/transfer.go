package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferKind string

const (
	TransferKindInternal              TransferKind = "internal"
	TransferKindExternalLocal         TransferKind = "external_local"
	TransferKindExternalInternational TransferKind = "external_international"
)

func (k TransferKind) IsValid() bool {
	switch k {
	case TransferKindInternal, TransferKindExternalLocal, TransferKindExternalInternational:
		return true
	default:
		return false
	}
}

func (k TransferKind) IsExternal() bool {
	return k == TransferKindExternalLocal || k == TransferKindExternalInternational
}

func (k TransferKind) FeeKind() FeeKind {
	if k.IsExternal() {
		return FeeKindBank
	}
	return FeeKindNone
}

func (k TransferKind) TransferType() TransferType {
	if k == TransferKindExternalInternational {
		return TransferTypeInternational
	}
	return TransferTypeLocal
}

type FeeKind string

const (
	FeeKindNone   FeeKind = "none"
	FeeKindBank   FeeKind = "bank"
	FeeKindCrypto FeeKind = "crypto"
)

func (k FeeKind) IsValid() bool {
	return k == FeeKindNone || k == FeeKindBank || k == FeeKindCrypto
}

type TransferType string

const (
	TransferTypeLocal         TransferType = "local"
	TransferTypeInternational TransferType = "international"
)

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusFailed    TransferStatus = "failed"
)

func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed
}

type Transfer struct {
	ID                     uuid.UUID
	UserID                 uuid.UUID
	SourceAccountID        uuid.UUID
	RecipientName          string
	RecipientAccountNumber string
	RecipientBank          string
	RecipientCountry       *string
	RoutingCode            *string
	Amount                 decimal.Decimal
	Fee                    decimal.Decimal
	Currency               Currency
	TransferType           TransferType
	ReferenceNumber        string
	Status                 TransferStatus
	ApprovedBy             *uuid.UUID
	RejectionReason        *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
	DecidedAt              *time.Time
}

func (t *Transfer) Total() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}
