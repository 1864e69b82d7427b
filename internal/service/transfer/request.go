package transfer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/service/gate"
)

// Recipient describes the beneficiary. Internal transfers use Identifier, a
// username or account number; external transfers use the bank details.
type Recipient struct {
	Identifier    string
	Name          string
	AccountNumber string
	Bank          string
	Country       string
	RoutingCode   string
}

type Request struct {
	Kind        domain.TransferKind
	Recipient   Recipient
	Amount      decimal.Decimal
	Credentials gate.Credentials
}

// Validate checks the request shape only. Amount rules are enforced first by
// SubmitTransfer.
func (r Request) Validate() error {
	if !r.Kind.IsValid() {
		return domain.ErrInvalidRequest
	}

	rc := r.Recipient
	if r.Kind == domain.TransferKindInternal {
		if strings.TrimSpace(rc.Identifier) == "" {
			return domain.ErrInvalidRequest
		}
		return nil
	}

	if strings.TrimSpace(rc.Name) == "" || strings.TrimSpace(rc.AccountNumber) == "" || strings.TrimSpace(rc.Bank) == "" {
		return domain.ErrInvalidRequest
	}
	if r.Kind == domain.TransferKindExternalInternational && strings.TrimSpace(rc.Country) == "" {
		return domain.ErrInvalidRequest
	}
	return nil
}

type Receipt struct {
	Reference  string
	Amount     decimal.Decimal
	Fee        decimal.Decimal
	Total      decimal.Decimal
	NewBalance decimal.Decimal
	Currency   domain.Currency
	Status     domain.TransferStatus
	Timestamp  time.Time
	TransferID *uuid.UUID
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
