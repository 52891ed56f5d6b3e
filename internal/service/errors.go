package service

import (
	"errors"
	"fmt"
)

// Error taxonomy of the transaction engine. Every error is detected before any
// mutation is applied; callers map these to HTTP statuses or user messages.
var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrUnauthorized        = errors.New("project does not belong to this user")
	ErrAlreadyPaid         = errors.New("project already paid")
	ErrAmountMismatch      = errors.New("wallet and gateway amounts do not sum to the total")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrConcurrencyConflict = errors.New("wallet is locked by another operation")
)

// InsufficientBalanceError reports available vs required so callers can build a
// user-facing message.
type InsufficientBalanceError struct {
	AvailableCents int64
	RequiredCents  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: have %d, need %d", e.AvailableCents, e.RequiredCents)
}
