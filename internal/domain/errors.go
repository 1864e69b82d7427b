package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrStorage        = errors.New("storage unavailable")

	ErrInvalidAmount         = errors.New("amount must be greater than zero with at most two decimal places")
	ErrAccountOnHold         = errors.New("account on hold pending business account upgrade")
	ErrNoPinConfigured       = errors.New("no transfer pin configured")
	ErrIncorrectPin          = errors.New("incorrect pin")
	ErrInvalidPin            = errors.New("pin must be exactly 4 digits")
	ErrPinMismatch           = errors.New("pin confirmation does not match")
	ErrAccountSuspended      = errors.New("account suspended")
	ErrFeeNotAcknowledged    = errors.New("transfer fee not acknowledged")
	ErrInvalidAuthCode       = errors.New("invalid authorization code")
	ErrNoActiveAccount       = errors.New("no active account")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrSelfTransfer          = errors.New("cannot transfer to yourself")
	ErrRecipientNoAccount    = errors.New("recipient has no active account")
	ErrTransferNotPending    = errors.New("transfer is not pending")
	ErrReasonRequired        = errors.New("rejection reason required")
	ErrAccountNumberConflict = errors.New("account number already taken")
)
