package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Administrator access required"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrServiceUnavailable = &AppError{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, please try again"}

	ErrInvalidAmount      = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Please enter a valid amount greater than zero"}
	ErrAccountOnHold      = &AppError{http.StatusForbidden, "ACCOUNT_ON_HOLD", "Your account is on hold until it is upgraded to a business account"}
	ErrNoPinConfigured    = &AppError{http.StatusUnprocessableEntity, "NO_PIN_CONFIGURED", "Please set up your transfer PIN first"}
	ErrIncorrectPin       = &AppError{http.StatusUnauthorized, "INCORRECT_PIN", "Incorrect PIN"}
	ErrInvalidPin         = &AppError{http.StatusBadRequest, "INVALID_PIN", "PIN must be exactly 4 digits"}
	ErrPinMismatch        = &AppError{http.StatusBadRequest, "PIN_MISMATCH", "PIN confirmation does not match"}
	ErrAccountSuspended   = &AppError{http.StatusForbidden, "ACCOUNT_SUSPENDED", "Your account has been suspended, please contact support"}
	ErrFeeNotAcknowledged = &AppError{http.StatusUnprocessableEntity, "FEE_NOT_ACKNOWLEDGED", "Please acknowledge the transfer fee"}
	ErrInvalidAuthCode    = &AppError{http.StatusUnauthorized, "INVALID_AUTH_CODE", "Invalid or expired authorization code"}
	ErrNoActiveAccount    = &AppError{http.StatusUnprocessableEntity, "NO_ACTIVE_ACCOUNT", "You have no active account to send from"}
	ErrInsufficientFunds  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrRecipientNotFound  = &AppError{http.StatusUnprocessableEntity, "RECIPIENT_NOT_FOUND", "Recipient not found"}
	ErrSelfTransfer       = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "You cannot transfer to yourself"}
	ErrRecipientNoAccount = &AppError{http.StatusUnprocessableEntity, "RECIPIENT_NO_ACTIVE_ACCOUNT", "Recipient has no active account"}
	ErrTransferNotPending = &AppError{http.StatusConflict, "TRANSFER_NOT_PENDING", "Transfer has already been decided"}
	ErrReasonRequired     = &AppError{http.StatusBadRequest, "REJECTION_REASON_REQUIRED", "A rejection reason is required"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrRequestInFlight       = &AppError{http.StatusConflict, "REQUEST_IN_FLIGHT", "A request with this idempotency key is still being processed"}
)
