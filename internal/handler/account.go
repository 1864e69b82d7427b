package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
)

type accountService interface {
	EnsureAccount(ctx context.Context, userID uuid.UUID, defaults domain.AccountDefaults) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	ListTransactions(ctx context.Context, userID, accountID uuid.UUID, limit int, order domain.SortOrder) ([]domain.TransactionEntry, error)
}

type AccountHandler struct {
	accounts accountService
	defaults domain.AccountDefaults
}

func NewAccountHandler(accounts accountService, defaults domain.AccountDefaults) *AccountHandler {
	return &AccountHandler{accounts: accounts, defaults: defaults}
}

type accountDTO struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	AccountType   string    `json:"account_type"`
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		UserID:        a.UserID,
		AccountType:   string(a.AccountType),
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance.StringFixed(2),
		Currency:      string(a.Currency),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

type entryDTO struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       uuid.UUID  `json:"account_id"`
	TransferID      *uuid.UUID `json:"transfer_id,omitempty"`
	Type            string     `json:"type"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Description     string     `json:"description"`
	Recipient       *string    `json:"recipient,omitempty"`
	Status          string     `json:"status"`
	ReferenceNumber string     `json:"reference_number"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toEntryDTO(e *domain.TransactionEntry) entryDTO {
	return entryDTO{
		ID:              e.ID,
		AccountID:       e.AccountID,
		TransferID:      e.TransferID,
		Type:            string(e.Type),
		Amount:          e.Amount.StringFixed(2),
		Currency:        string(e.Currency),
		Description:     e.Description,
		Recipient:       e.Recipient,
		Status:          string(e.Status),
		ReferenceNumber: e.ReferenceNumber,
		CreatedAt:       e.CreatedAt,
	}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.EnsureAccount(r.Context(), userID, h.defaults)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to ensure account", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accountID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "limit", Message: "must be an integer"}})
			return
		}
		limit = n
	}

	entries, err := h.accounts.ListTransactions(r.Context(), userID, accountID, limit, domain.SortOrder(q.Get("order")))
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction history lookup failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	dtos := make([]entryDTO, len(entries))
	for i := range entries {
		dtos[i] = toEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
