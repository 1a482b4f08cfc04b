package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

// CreateBudgetLineRequest represents a request to open a budget line.
type CreateBudgetLineRequest struct {
	Exercise         int             `json:"exercise"`
	Code             string          `json:"code"`
	Label            string          `json:"label"`
	DotationInitiale decimal.Decimal `json:"dotation_initiale"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBudgetLineRequest) ToUseCaseInput() usecase.CreateBudgetLineInput {
	return usecase.CreateBudgetLineInput{
		Exercise:         r.Exercise,
		Code:             r.Code,
		Label:            r.Label,
		DotationInitiale: r.DotationInitiale,
	}
}

// ReservationRequest represents a request to place or release a hold.
type ReservationRequest struct {
	Exercise   int             `json:"exercise"`
	Amount     decimal.Decimal `json:"amount"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Motif      string          `json:"motif"`
}

// ToUseCaseInput converts to use case input for the given line.
func (r *ReservationRequest) ToUseCaseInput(lineID string) usecase.ReservationInput {
	return usecase.ReservationInput{
		BudgetLineID: lineID,
		Exercise:     r.Exercise,
		Amount:       r.Amount,
		Entity:       domain.EntityRef{Kind: domain.EntityKind(r.EntityType), ID: r.EntityID},
		Motif:        r.Motif,
	}
}

// EngagementRequest represents a request to record an engagement.
type EngagementRequest struct {
	Exercise int             `json:"exercise"`
	Amount   decimal.Decimal `json:"amount"`
	// ReservedAmount is the portion already held by a reservation for the
	// same document, released in the same transaction.
	ReservedAmount decimal.Decimal `json:"reserved_amount"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Motif          string          `json:"motif"`
}

// ToUseCaseInput converts to use case input for the given line.
func (r *EngagementRequest) ToUseCaseInput(lineID string) usecase.EngagementInput {
	return usecase.EngagementInput{
		BudgetLineID:   lineID,
		Exercise:       r.Exercise,
		Amount:         r.Amount,
		ReservedAmount: r.ReservedAmount,
		Entity:         domain.EntityRef{Kind: domain.EntityKind(r.EntityType), ID: r.EntityID},
		Motif:          r.Motif,
	}
}

// ChainRequest represents a request for a post-engagement chain stage.
type ChainRequest struct {
	Exercise   int             `json:"exercise"`
	Amount     decimal.Decimal `json:"amount"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Motif      string          `json:"motif"`
}

// ToUseCaseInput converts to use case input for the given line.
func (r *ChainRequest) ToUseCaseInput(lineID string) usecase.ChainInput {
	return usecase.ChainInput{
		BudgetLineID: lineID,
		Exercise:     r.Exercise,
		Amount:       r.Amount,
		Entity:       domain.EntityRef{Kind: domain.EntityKind(r.EntityType), ID: r.EntityID},
		Motif:        r.Motif,
	}
}

// CreateTransferRequest represents a request to open a transfer draft.
type CreateTransferRequest struct {
	Exercise         int             `json:"exercise"`
	Type             string          `json:"type"`
	FromBudgetLineID *string         `json:"from_budget_line_id,omitempty"`
	ToBudgetLineID   string          `json:"to_budget_line_id"`
	Amount           decimal.Decimal `json:"amount"`
	Motif            string          `json:"motif"`
	Justification    string          `json:"justification"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.CreateTransferInput {
	return usecase.CreateTransferInput{
		Exercise:         r.Exercise,
		Type:             domain.TransferType(r.Type),
		FromBudgetLineID: r.FromBudgetLineID,
		ToBudgetLineID:   r.ToBudgetLineID,
		Amount:           r.Amount,
		Motif:            r.Motif,
		Justification:    r.Justification,
	}
}

// UpdateDraftRequest carries the fields a draft may still change.
type UpdateDraftRequest struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Motif         *string          `json:"motif,omitempty"`
	Justification *string          `json:"justification,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateDraftRequest) ToUseCaseInput() usecase.UpdateDraftInput {
	return usecase.UpdateDraftInput{
		Amount:        r.Amount,
		Motif:         r.Motif,
		Justification: r.Justification,
	}
}

// ReasonRequest carries the mandatory reason for reject and cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}
