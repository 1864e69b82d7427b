package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/heritage-ledger/internal/domain"
	"github.com/josh-kwaku/heritage-ledger/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
	{domain.ErrStorage, ErrServiceUnavailable},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrAccountOnHold, ErrAccountOnHold},
	{domain.ErrNoPinConfigured, ErrNoPinConfigured},
	{domain.ErrIncorrectPin, ErrIncorrectPin},
	{domain.ErrInvalidPin, ErrInvalidPin},
	{domain.ErrPinMismatch, ErrPinMismatch},
	{domain.ErrAccountSuspended, ErrAccountSuspended},
	{domain.ErrFeeNotAcknowledged, ErrFeeNotAcknowledged},
	{domain.ErrInvalidAuthCode, ErrInvalidAuthCode},
	{domain.ErrNoActiveAccount, ErrNoActiveAccount},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrRecipientNotFound, ErrRecipientNotFound},
	{domain.ErrSelfTransfer, ErrSelfTransfer},
	{domain.ErrRecipientNoAccount, ErrRecipientNoAccount},
	{domain.ErrTransferNotPending, ErrTransferNotPending},
	{domain.ErrReasonRequired, ErrReasonRequired},
}

// appErrorFor maps a service error onto its user-facing response. Anything
// unrecognised is an internal error.
func appErrorFor(err error) *AppError {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	return ErrInternalError
}

func RespondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := appErrorFor(err)
	switch appErr {
	case ErrInternalError:
		logging.FromContext(ctx).Error("unhandled domain error", "error", err)
	case ErrServiceUnavailable:
		logging.FromContext(ctx).Error("storage unavailable", "error", err)
	}
	RespondAppError(w, appErr, nil)
}
