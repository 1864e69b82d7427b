package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
	"github.com/josh-kwaku/heritage-ledger/internal/service"
)

type approvalQueue interface {
	List(ctx context.Context) ([]domain.Transfer, error)
	Approve(ctx context.Context, transferID, reviewerID uuid.UUID) (*domain.Transfer, error)
	Reject(ctx context.Context, transferID, reviewerID uuid.UUID, reason string) (*domain.Transfer, error)
}

type adminService interface {
	AdjustBalance(ctx context.Context, adminID uuid.UUID, req service.AdjustBalanceRequest) (*service.Adjustment, error)
	SetFees(ctx context.Context, adminID, userID uuid.UUID, bank, crypto *decimal.Decimal) error
	SetFlags(ctx context.Context, adminID, userID uuid.UUID, authCodeRequired, businessAccountRequired *bool) error
	SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, status domain.UserStatus) error
	CorrectEntry(ctx context.Context, adminID, entryID uuid.UUID, req service.CorrectEntryRequest) (*domain.TransactionEntry, error)
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AdminLog, error)
}

type AdminHandler struct {
	queue approvalQueue
	admin adminService
}

func NewAdminHandler(queue approvalQueue, admin adminService) *AdminHandler {
	return &AdminHandler{queue: queue, admin: admin}
}

func (h *AdminHandler) PendingTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.queue.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list pending transfers", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransferDTOs(transfers))
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	reviewerID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	transferID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.queue.Approve(r.Context(), transferID, reviewerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer approval failed", "error", err, "transfer_id", transferID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransferDTO(t))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	reviewerID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	transferID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	t, err := h.queue.Reject(r.Context(), transferID, reviewerID, req.Reason)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer rejection failed", "error", err, "transfer_id", transferID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransferDTO(t))
}

type adjustBalanceRequest struct {
	UserID      uuid.UUID       `json:"user_id"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (r adjustBalanceRequest) Validate() []FieldError {
	var errs []FieldError
	if r.UserID == uuid.Nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "required"})
	}
	switch domain.EntryType(r.Direction) {
	case domain.EntryTypeCredit, domain.EntryTypeDebit:
	default:
		errs = append(errs, FieldError{Field: "direction", Message: "must be credit or debit"})
	}
	return errs
}

type adjustmentDTO struct {
	Account    accountDTO `json:"account"`
	Entry      entryDTO   `json:"entry"`
	NewBalance string     `json:"new_balance"`
}

func (h *AdminHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	adminID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	adj, err := h.admin.AdjustBalance(r.Context(), adminID, service.AdjustBalanceRequest{
		UserID:      req.UserID,
		Direction:   domain.EntryType(req.Direction),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance adjustment failed", "error", err, "user_id", req.UserID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, adjustmentDTO{
		Account:    toAccountDTO(adj.Account),
		Entry:      toEntryDTO(adj.Entry),
		NewBalance: adj.NewBalance.StringFixed(2),
	})
}

type setFeesRequest struct {
	BankTransferFee   *decimal.Decimal `json:"bank_transfer_fee"`
	CryptoTransferFee *decimal.Decimal `json:"crypto_transfer_fee"`
}

func (h *AdminHandler) SetFees(w http.ResponseWriter, r *http.Request) {
	adminID, userID, ok := adminAndTarget(w, r)
	if !ok {
		return
	}

	var req setFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.admin.SetFees(r.Context(), adminID, userID, req.BankTransferFee, req.CryptoTransferFee); err != nil {
		logging.FromContext(r.Context()).Warn("fee update failed", "error", err, "user_id", userID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"user_id": userID})
}

type setFlagsRequest struct {
	AuthCodeRequired        *bool `json:"auth_code_required"`
	BusinessAccountRequired *bool `json:"business_account_required"`
}

func (h *AdminHandler) SetFlags(w http.ResponseWriter, r *http.Request) {
	adminID, userID, ok := adminAndTarget(w, r)
	if !ok {
		return
	}

	var req setFlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.admin.SetFlags(r.Context(), adminID, userID, req.AuthCodeRequired, req.BusinessAccountRequired); err != nil {
		logging.FromContext(r.Context()).Warn("flag update failed", "error", err, "user_id", userID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"user_id": userID})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	adminID, userID, ok := adminAndTarget(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	status := domain.UserStatus(req.Status)
	if !status.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "status", Message: "must be active or blocked"}})
		return
	}

	if err := h.admin.SetUserStatus(r.Context(), adminID, userID, status); err != nil {
		logging.FromContext(r.Context()).Warn("status update failed", "error", err, "user_id", userID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{"user_id": userID, "status": status})
}

type correctEntryRequest struct {
	Description *string `json:"description"`
	Recipient   *string `json:"recipient"`
}

func (h *AdminHandler) CorrectEntry(w http.ResponseWriter, r *http.Request) {
	adminID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entryID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req correctEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	entry, err := h.admin.CorrectEntry(r.Context(), adminID, entryID, service.CorrectEntryRequest{
		Description: req.Description,
		Recipient:   req.Recipient,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("entry correction failed", "error", err, "entry_id", entryID)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toEntryDTO(entry))
}

type auditLogDTO struct {
	ID           uuid.UUID       `json:"id"`
	AdminID      uuid.UUID       `json:"admin_id"`
	Action       string          `json:"action"`
	TargetUserID *uuid.UUID      `json:"target_user_id,omitempty"`
	TargetID     *uuid.UUID      `json:"target_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.admin.ListAuditLogs(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list audit logs", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	dtos := make([]auditLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = auditLogDTO{
			ID:           l.ID,
			AdminID:      l.AdminID,
			Action:       string(l.Action),
			TargetUserID: l.TargetUserID,
			TargetID:     l.TargetID,
			Details:      l.Details,
			CreatedAt:    l.CreatedAt,
		}
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func adminAndTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	adminID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, uuid.Nil, false
	}

	userID, appErr := idFromPath(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return adminID, userID, true
}
