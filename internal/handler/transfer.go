package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/service/gate"
	"github.com/josh-kwaku/heritage-ledger/internal/service/transfer"
)

type transferService interface {
	SubmitTransfer(ctx context.Context, actor uuid.UUID, req transfer.Request) (*transfer.Receipt, error)
	GetTransfer(ctx context.Context, actor, transferID uuid.UUID) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, actor uuid.UUID, limit int) ([]domain.Transfer, error)
}

type transferGate interface {
	Quote(ctx context.Context, userID uuid.UUID, kind domain.FeeKind) (*gate.Quote, error)
	IssueAuthCode(ctx context.Context, userID uuid.UUID) (time.Time, error)
}

type TransferHandler struct {
	transfers transferService
	gate      transferGate
}

func NewTransferHandler(transfers transferService, g transferGate) *TransferHandler {
	return &TransferHandler{transfers: transfers, gate: g}
}

type recipientPayload struct {
	Identifier    string `json:"identifier"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	Bank          string `json:"bank"`
	Country       string `json:"country"`
	RoutingCode   string `json:"routing_code"`
}

type submitTransferRequest struct {
	Kind            string           `json:"kind"`
	Recipient       recipientPayload `json:"recipient"`
	Amount          decimal.Decimal  `json:"amount"`
	Pin             string           `json:"pin"`
	FeeAcknowledged bool             `json:"fee_acknowledged"`
	AuthCode        string           `json:"auth_code"`
}

func (r submitTransferRequest) Validate() []FieldError {
	var errs []FieldError

	kind := domain.TransferKind(r.Kind)
	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !kind.IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be internal, external_local, or external_international"})
	}

	if kind == domain.TransferKindInternal && r.Recipient.Identifier == "" {
		errs = append(errs, FieldError{Field: "recipient.identifier", Message: "required"})
	}
	if kind.IsExternal() {
		if r.Recipient.Name == "" {
			errs = append(errs, FieldError{Field: "recipient.name", Message: "required"})
		}
		if r.Recipient.AccountNumber == "" {
			errs = append(errs, FieldError{Field: "recipient.account_number", Message: "required"})
		}
		if r.Recipient.Bank == "" {
			errs = append(errs, FieldError{Field: "recipient.bank", Message: "required"})
		}
	}
	if kind == domain.TransferKindExternalInternational && r.Recipient.Country == "" {
		errs = append(errs, FieldError{Field: "recipient.country", Message: "required"})
	}

	return errs
}

type receiptDTO struct {
	Reference  string     `json:"reference"`
	Amount     string     `json:"amount"`
	Fee        string     `json:"fee"`
	Total      string     `json:"total"`
	NewBalance string     `json:"new_balance"`
	Currency   string     `json:"currency"`
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	TransferID *uuid.UUID `json:"transfer_id,omitempty"`
}

func toReceiptDTO(rc *transfer.Receipt) receiptDTO {
	return receiptDTO{
		Reference:  rc.Reference,
		Amount:     rc.Amount.StringFixed(2),
		Fee:        rc.Fee.StringFixed(2),
		Total:      rc.Total.StringFixed(2),
		NewBalance: rc.NewBalance.StringFixed(2),
		Currency:   string(rc.Currency),
		Status:     string(rc.Status),
		Timestamp:  rc.Timestamp,
		TransferID: rc.TransferID,
	}
}

type transferDTO struct {
	ID                     uuid.UUID  `json:"id"`
	SourceAccountID        uuid.UUID  `json:"source_account_id"`
	RecipientName          string     `json:"recipient_name"`
	RecipientAccountNumber string     `json:"recipient_account_number"`
	RecipientBank          string     `json:"recipient_bank"`
	RecipientCountry       *string    `json:"recipient_country,omitempty"`
	RoutingCode            *string    `json:"routing_code,omitempty"`
	Amount                 string     `json:"amount"`
	Fee                    string     `json:"fee"`
	Total                  string     `json:"total"`
	Currency               string     `json:"currency"`
	TransferType           string     `json:"transfer_type"`
	ReferenceNumber        string     `json:"reference_number"`
	Status                 string     `json:"status"`
	RejectionReason        *string    `json:"rejection_reason,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	DecidedAt              *time.Time `json:"decided_at,omitempty"`
}

func toTransferDTO(t *domain.Transfer) transferDTO {
	return transferDTO{
		ID:                     t.ID,
		SourceAccountID:        t.SourceAccountID,
		RecipientName:          t.RecipientName,
		RecipientAccountNumber: t.RecipientAccountNumber,
		RecipientBank:          t.RecipientBank,
		RecipientCountry:       t.RecipientCountry,
		RoutingCode:            t.RoutingCode,
		Amount:                 t.Amount.StringFixed(2),
		Fee:                    t.Fee.StringFixed(2),
		Total:                  t.Total().StringFixed(2),
		Currency:               string(t.Currency),
		TransferType:           string(t.TransferType),
		ReferenceNumber:        t.ReferenceNumber,
		Status:                 string(t.Status),
		RejectionReason:        t.RejectionReason,
		CreatedAt:              t.CreatedAt,
		DecidedAt:              t.DecidedAt,
	}
}

func toTransferDTOs(ts []domain.Transfer) []transferDTO {
	dtos := make([]transferDTO, len(ts))
	for i := range ts {
		dtos[i] = toTransferDTO(&ts[i])
	}
	return dtos
}

type quoteRequest struct {
	Kind   string           `json:"kind"`
	Amount *decimal.Decimal `json:"amount"`
}

type quoteDTO struct {
	FeeKind          string  `json:"fee_kind"`
	Fee              string  `json:"fee"`
	Total            *string `json:"total,omitempty"`
	AuthCodeRequired bool    `json:"auth_code_required"`
	PinConfigured    bool    `json:"pin_configured"`
}

// feeKindFor accepts either a transfer kind or a fee kind.
func feeKindFor(kind string) (domain.FeeKind, bool) {
	if tk := domain.TransferKind(kind); tk.IsValid() {
		return tk.FeeKind(), true
	}
	fk := domain.FeeKind(kind)
	return fk, fk.IsValid()
}

func (h *TransferHandler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	feeKind, ok := feeKindFor(req.Kind)
	if !ok {
		RespondValidationError(w, []FieldError{{Field: "kind", Message: "must be a transfer kind, bank, crypto, or none"}})
		return
	}

	q, err := h.gate.Quote(r.Context(), userID, feeKind)
	if err != nil {
		logging.FromContext(r.Context()).Warn("fee quote failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	dto := quoteDTO{
		FeeKind:          string(feeKind),
		Fee:              q.Fee.StringFixed(2),
		AuthCodeRequired: q.AuthCodeRequired,
		PinConfigured:    q.PinConfigured,
	}
	if req.Amount != nil {
		total := req.Amount.Add(q.Fee).StringFixed(2)
		dto.Total = &total
	}

	RespondSuccess(w, http.StatusOK, dto)
}

func (h *TransferHandler) IssueAuthCode(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	expiresAt, err := h.gate.IssueAuthCode(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("authorization code issue failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusAccepted, map[string]time.Time{"expires_at": expiresAt})
}

func (h *TransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req submitTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	receipt, err := h.transfers.SubmitTransfer(r.Context(), userID, transfer.Request{
		Kind: domain.TransferKind(req.Kind),
		Recipient: transfer.Recipient{
			Identifier:    req.Recipient.Identifier,
			Name:          req.Recipient.Name,
			AccountNumber: req.Recipient.AccountNumber,
			Bank:          req.Recipient.Bank,
			Country:       req.Recipient.Country,
			RoutingCode:   req.Recipient.RoutingCode,
		},
		Amount: req.Amount,
		Credentials: gate.Credentials{
			Pin:             req.Pin,
			FeeAcknowledged: req.FeeAcknowledged,
			AuthCode:        req.AuthCode,
		},
	})
	if err != nil {
		log.Warn("transfer submission failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	if receipt.TransferID != nil {
		w.Header().Set("Location", fmt.Sprintf("/api/v1/transfers/%s", receipt.TransferID))
		RespondSuccess(w, http.StatusAccepted, toReceiptDTO(receipt))
		return
	}
	RespondSuccess(w, http.StatusCreated, toReceiptDTO(receipt))
}

func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transfers, err := h.transfers.ListTransfers(r.Context(), userID, limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transfers", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransferDTOs(transfers))
}

func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	transferID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.transfers.GetTransfer(r.Context(), userID, transferID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer lookup failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransferDTO(t))
}
