package models

import "errors"

// Domain errors surfaced to callers. Services wrap these with context;
// handlers match with errors.Is to pick the HTTP status. Financial
// failures also leave a persisted status or note behind — none of these
// are ever silent.
var (
	ErrUnauthorized               = errors.New("actor is not allowed to perform this operation")
	ErrInvalidAmount              = errors.New("amount must be positive")
	ErrNotFound                   = errors.New("not found")
	ErrInsufficientEscrow         = errors.New("amount exceeds remaining project escrow")
	ErrManualReleaseLimitExceeded = errors.New("manual release limit exceeded")
	ErrInsufficientBalance        = errors.New("insufficient account balance")
	ErrMilestoneNotReady          = errors.New("milestone is not completed")
	ErrVerificationMismatch       = errors.New("gateway verification mismatch")
	ErrPaymentFailed              = errors.New("payment intent already failed; start a new checkout")
	ErrGateway                    = errors.New("payment gateway error")
)
