package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferType distinguishes a virement (line to line) from an ajustement
// (credit injection with no source line).
type TransferType string

const (
	TransferVirement   TransferType = "virement"
	TransferAjustement TransferType = "ajustement"
)

// TransferStatus is the workflow state of a credit transfer.
type TransferStatus string

const (
	TransferBrouillon TransferStatus = "brouillon"
	TransferSoumis    TransferStatus = "soumis"
	TransferValide    TransferStatus = "valide"
	TransferRejete    TransferStatus = "rejete"
	TransferExecute   TransferStatus = "execute"
	TransferAnnule    TransferStatus = "annule"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferRejete, TransferExecute, TransferAnnule:
		return true
	}
	return false
}

// LineSnapshot captures a line's figures around a transfer execution.
type LineSnapshot struct {
	DotationAvant   decimal.Decimal
	DotationApres   decimal.Decimal
	DisponibleAvant decimal.Decimal
	DisponibleApres decimal.Decimal
}

// CreditTransfer moves credits between budget lines, or injects credits for
// an ajustement. Only Execute has a balance effect; the other transitions
// are metadata.
type CreditTransfer struct {
	ID               string
	Code             string
	Exercise         int
	Type             TransferType
	Status           TransferStatus
	FromBudgetLineID *string
	ToBudgetLineID   string
	Amount           decimal.Decimal
	Motif            string
	Justification    string

	RequestedBy  string
	RequestedAt  time.Time
	SubmittedBy  string
	SubmittedAt  *time.Time
	ApprovedBy   string
	ApprovedAt   *time.Time
	RejectedBy   string
	RejectedAt   *time.Time
	Rejection    string
	ExecutedBy   string
	ExecutedAt   *time.Time
	CancelledBy  string
	CancelledAt  *time.Time
	CancelReason string

	FromSnapshot *LineSnapshot
	ToSnapshot   *LineSnapshot
}

// MinReasonLength is the floor for reject and cancel reasons.
const MinReasonLength = 10

// Validate checks a transfer at creation time.
func (t *CreditTransfer) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	switch t.Type {
	case TransferVirement:
		if t.FromBudgetLineID == nil || *t.FromBudgetLineID == "" {
			return ErrMissingFromLine
		}
		if *t.FromBudgetLineID == t.ToBudgetLineID {
			return ErrSameLine
		}
	case TransferAjustement:
		if t.FromBudgetLineID != nil {
			return ErrSameLine
		}
	}
	return nil
}

// ValidateReason enforces the mandatory minimum-length reason used by
// reject and cancel.
func ValidateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinReasonLength {
		return ErrReasonTooShort
	}
	return nil
}

func (t *CreditTransfer) transition(action string, from TransferStatus) error {
	if t.Status != from {
		return &InvalidTransitionError{TransferID: t.ID, From: t.Status, Action: action}
	}
	return nil
}

// Submit moves brouillon to soumis.
func (t *CreditTransfer) Submit(actor string, at time.Time) error {
	if err := t.transition("submit", TransferBrouillon); err != nil {
		return err
	}
	t.Status = TransferSoumis
	t.SubmittedBy = actor
	t.SubmittedAt = &at
	return nil
}

// Approve moves soumis to valide. Validation is a gate, not an application;
// no balance is touched.
func (t *CreditTransfer) Approve(actor string, at time.Time) error {
	if err := t.transition("validate", TransferSoumis); err != nil {
		return err
	}
	t.Status = TransferValide
	t.ApprovedBy = actor
	t.ApprovedAt = &at
	return nil
}

// Reject moves soumis to rejete with a mandatory reason.
func (t *CreditTransfer) Reject(actor, reason string, at time.Time) error {
	if err := ValidateReason(reason); err != nil {
		return err
	}
	if err := t.transition("reject", TransferSoumis); err != nil {
		return err
	}
	t.Status = TransferRejete
	t.RejectedBy = actor
	t.RejectedAt = &at
	t.Rejection = reason
	return nil
}

// MarkExecuted moves valide to execute. The balance work happens in the
// usecase transaction; this only flips the workflow state.
func (t *CreditTransfer) MarkExecuted(actor string, at time.Time) error {
	if err := t.transition("execute", TransferValide); err != nil {
		return err
	}
	t.Status = TransferExecute
	t.ExecutedBy = actor
	t.ExecutedAt = &at
	return nil
}

// Cancel moves valide to annule. Once executed a transfer is immutable;
// reversal means creating a new inverse transfer.
func (t *CreditTransfer) Cancel(actor, reason string, at time.Time) error {
	if err := ValidateReason(reason); err != nil {
		return err
	}
	if err := t.transition("cancel", TransferValide); err != nil {
		return err
	}
	t.Status = TransferAnnule
	t.CancelledBy = actor
	t.CancelledAt = &at
	t.CancelReason = reason
	return nil
}
