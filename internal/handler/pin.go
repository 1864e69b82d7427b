package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/heritage-ledger/internal/logging"
)

type pinService interface {
	SetupPin(ctx context.Context, userID uuid.UUID, pin, confirm string) error
}

type PinHandler struct {
	pins pinService
}

func NewPinHandler(pins pinService) *PinHandler {
	return &PinHandler{pins: pins}
}

type setupPinRequest struct {
	Pin        string `json:"pin"`
	ConfirmPin string `json:"confirm_pin"`
}

func (r setupPinRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Pin == "" {
		errs = append(errs, FieldError{Field: "pin", Message: "required"})
	}
	if r.ConfirmPin == "" {
		errs = append(errs, FieldError{Field: "confirm_pin", Message: "required"})
	}
	return errs
}

func (h *PinHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, appErr := actorFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req setupPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.pins.SetupPin(r.Context(), userID, req.Pin, req.ConfirmPin); err != nil {
		logging.FromContext(r.Context()).Warn("pin setup failed", "error", err)
		RespondDomainError(r.Context(), w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]bool{"pin_configured": true})
}
