package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Budget line errors
	ErrLineNotFound = errors.New("budget line not found")
	ErrLineClosed   = errors.New("budget line belongs to a closed exercise")

	// Transfer errors
	ErrSameLine         = errors.New("cannot transfer to the same budget line")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrTransferNotFound = errors.New("credit transfer not found")
	ErrMissingFromLine  = errors.New("virement requires a source budget line")
	ErrReasonTooShort   = errors.New("reason is mandatory and too short")

	// Movement errors
	ErrMovementNotFound = errors.New("movement not found")

	// ErrInsufficientFunds is the sentinel matched by errors.Is; the
	// concrete error is always an *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient available funds")

	// ErrInvalidStateTransition is the sentinel for forbidden workflow
	// transitions; the concrete error is an *InvalidTransitionError.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrIntegrityViolation marks a broken internal invariant. Never caused
	// by user input; the triggering operation is aborted wholesale.
	ErrIntegrityViolation = errors.New("ledger integrity violation")
)

// InsufficientFundsError reports a rejected debit with its figures. Amounts
// are never clamped; the caller decides what to do with the shortfall.
type InsufficientFundsError struct {
	LineID    string
	Requested decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on line %s: requested %s, available %s, shortfall %s",
		e.LineID, e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// InvalidTransitionError reports an action attempted from a state that
// forbids it. No partial effect is ever applied.
type InvalidTransitionError struct {
	TransferID string
	From       TransferStatus
	Action     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transfer %s: cannot %s from status %s", e.TransferID, e.Action, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// IntegrityError carries the reconciliation detail behind an
// ErrIntegrityViolation for operator investigation.
type IntegrityError struct {
	LineID string
	Field  string
	Cached decimal.Decimal
	Replay decimal.Decimal
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation on line %s: %s cached=%s replayed=%s",
		e.LineID, e.Field, e.Cached, e.Replay)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrityViolation
}
