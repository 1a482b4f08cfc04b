package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
)

// BudgetLineResponse represents a budget line in API responses.
type BudgetLineResponse struct {
	ID               string           `json:"id"`
	Exercise         int              `json:"exercise"`
	Code             string           `json:"code"`
	Label            string           `json:"label"`
	DotationInitiale decimal.Decimal  `json:"dotation_initiale"`
	DotationModifiee *decimal.Decimal `json:"dotation_modifiee,omitempty"`
	DotationActuelle decimal.Decimal  `json:"dotation_actuelle"`
	TotalEngage      decimal.Decimal  `json:"total_engage"`
	MontantReserve   decimal.Decimal  `json:"montant_reserve"`
	TotalPaye        decimal.Decimal  `json:"total_paye"`
	DisponibleNet    decimal.Decimal  `json:"disponible_net"`
	Closed           bool             `json:"closed"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// BudgetLineFromDomain converts a domain line to a response.
func BudgetLineFromDomain(l *domain.BudgetLine) *BudgetLineResponse {
	return &BudgetLineResponse{
		ID:               l.ID,
		Exercise:         l.Exercise,
		Code:             l.Code,
		Label:            l.Label,
		DotationInitiale: l.DotationInitiale,
		DotationModifiee: l.DotationModifiee,
		DotationActuelle: l.DotationActuelle(),
		TotalEngage:      l.TotalEngage,
		MontantReserve:   l.MontantReserve,
		TotalPaye:        l.TotalPaye,
		DisponibleNet:    l.DisponibleNet(),
		Closed:           l.Closed,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// BudgetLinesFromDomain converts domain lines to responses.
func BudgetLinesFromDomain(lines []*domain.BudgetLine) []*BudgetLineResponse {
	result := make([]*BudgetLineResponse, len(lines))
	for i, l := range lines {
		result[i] = BudgetLineFromDomain(l)
	}
	return result
}

// AvailabilityResponse represents the availability view of a line.
type AvailabilityResponse struct {
	LineID           string          `json:"line_id"`
	Exercise         int             `json:"exercise"`
	DotationActuelle decimal.Decimal `json:"dotation_actuelle"`
	TotalEngage      decimal.Decimal `json:"total_engage"`
	MontantReserve   decimal.Decimal `json:"montant_reserve"`
	DisponibleBrut   decimal.Decimal `json:"disponible_brut"`
	DisponibleNet    decimal.Decimal `json:"disponible_net"`
}

// AvailabilityFromDomain converts a domain availability to a response.
func AvailabilityFromDomain(a domain.Availability) *AvailabilityResponse {
	return &AvailabilityResponse{
		LineID:           a.LineID,
		Exercise:         a.Exercise,
		DotationActuelle: a.DotationActuelle,
		TotalEngage:      a.TotalEngage,
		MontantReserve:   a.MontantReserve,
		DisponibleBrut:   a.DisponibleBrut,
		DisponibleNet:    a.DisponibleNet,
	}
}

// MovementResponse represents a journal movement in API responses.
type MovementResponse struct {
	ID              string          `json:"id"`
	BudgetLineID    string          `json:"budget_line_id"`
	Type            string          `json:"type"`
	Montant         decimal.Decimal `json:"montant"`
	Sens            string          `json:"sens"`
	DisponibleAvant decimal.Decimal `json:"disponible_avant"`
	DisponibleApres decimal.Decimal `json:"disponible_apres"`
	ReserveAvant    decimal.Decimal `json:"reserve_avant"`
	ReserveApres    decimal.Decimal `json:"reserve_apres"`
	EntityType      string          `json:"entity_type,omitempty"`
	EntityID        string          `json:"entity_id,omitempty"`
	Exercise        int             `json:"exercise"`
	Motif           string          `json:"motif,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	Statut          string          `json:"statut"`
}

// MovementFromDomain converts a domain movement to a response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:              m.ID,
		BudgetLineID:    m.BudgetLineID,
		Type:            string(m.Type),
		Montant:         m.Montant,
		Sens:            string(m.Sens),
		DisponibleAvant: m.DisponibleAvant,
		DisponibleApres: m.DisponibleApres,
		ReserveAvant:    m.ReserveAvant,
		ReserveApres:    m.ReserveApres,
		EntityType:      string(m.Entity.Kind),
		EntityID:        m.Entity.ID,
		Exercise:        m.Exercise,
		Motif:           m.Motif,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		Statut:          string(m.Statut),
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// SnapshotResponse represents a line snapshot taken at execution.
type SnapshotResponse struct {
	DotationAvant   decimal.Decimal `json:"dotation_avant"`
	DotationApres   decimal.Decimal `json:"dotation_apres"`
	DisponibleAvant decimal.Decimal `json:"disponible_avant"`
	DisponibleApres decimal.Decimal `json:"disponible_apres"`
}

func snapshotFromDomain(s *domain.LineSnapshot) *SnapshotResponse {
	if s == nil {
		return nil
	}
	return &SnapshotResponse{
		DotationAvant:   s.DotationAvant,
		DotationApres:   s.DotationApres,
		DisponibleAvant: s.DisponibleAvant,
		DisponibleApres: s.DisponibleApres,
	}
}

// TransferResponse represents a credit transfer in API responses.
type TransferResponse struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"`
	Exercise         int             `json:"exercise"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	FromBudgetLineID *string         `json:"from_budget_line_id,omitempty"`
	ToBudgetLineID   string          `json:"to_budget_line_id"`
	Amount           decimal.Decimal `json:"amount"`
	Motif            string          `json:"motif"`
	Justification    string          `json:"justification,omitempty"`

	RequestedBy  string     `json:"requested_by"`
	RequestedAt  time.Time  `json:"requested_at"`
	SubmittedBy  string     `json:"submitted_by,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedBy   string     `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	Rejection    string     `json:"rejection,omitempty"`
	ExecutedBy   string     `json:"executed_by,omitempty"`
	ExecutedAt   *time.Time `json:"executed_at,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`

	FromSnapshot *SnapshotResponse `json:"from_snapshot,omitempty"`
	ToSnapshot   *SnapshotResponse `json:"to_snapshot,omitempty"`
}

// TransferFromDomain converts a domain transfer to a response.
func TransferFromDomain(t *domain.CreditTransfer) *TransferResponse {
	return &TransferResponse{
		ID:               t.ID,
		Code:             t.Code,
		Exercise:         t.Exercise,
		Type:             string(t.Type),
		Status:           string(t.Status),
		FromBudgetLineID: t.FromBudgetLineID,
		ToBudgetLineID:   t.ToBudgetLineID,
		Amount:           t.Amount,
		Motif:            t.Motif,
		Justification:    t.Justification,
		RequestedBy:      t.RequestedBy,
		RequestedAt:      t.RequestedAt,
		SubmittedBy:      t.SubmittedBy,
		SubmittedAt:      t.SubmittedAt,
		ApprovedBy:       t.ApprovedBy,
		ApprovedAt:       t.ApprovedAt,
		RejectedBy:       t.RejectedBy,
		RejectedAt:       t.RejectedAt,
		Rejection:        t.Rejection,
		ExecutedBy:       t.ExecutedBy,
		ExecutedAt:       t.ExecutedAt,
		CancelledBy:      t.CancelledBy,
		CancelledAt:      t.CancelledAt,
		CancelReason:     t.CancelReason,
		FromSnapshot:     snapshotFromDomain(t.FromSnapshot),
		ToSnapshot:       snapshotFromDomain(t.ToSnapshot),
	}
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.CreditTransfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// HistoryResponse represents a budget history row in API responses.
type HistoryResponse struct {
	ID              string          `json:"id"`
	BudgetLineID    string          `json:"budget_line_id"`
	EventType       string          `json:"event_type"`
	Delta           decimal.Decimal `json:"delta"`
	DotationAvant   decimal.Decimal `json:"dotation_avant"`
	DotationApres   decimal.Decimal `json:"dotation_apres"`
	DisponibleAvant decimal.Decimal `json:"disponible_avant"`
	DisponibleApres decimal.Decimal `json:"disponible_apres"`
	RefCode         string          `json:"ref_code,omitempty"`
	RefID           string          `json:"ref_id,omitempty"`
	Exercise        int             `json:"exercise"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// HistoryFromDomain converts a domain history row to a response.
func HistoryFromDomain(h *domain.BudgetHistory) *HistoryResponse {
	return &HistoryResponse{
		ID:              h.ID,
		BudgetLineID:    h.BudgetLineID,
		EventType:       string(h.EventType),
		Delta:           h.Delta,
		DotationAvant:   h.DotationAvant,
		DotationApres:   h.DotationApres,
		DisponibleAvant: h.DisponibleAvant,
		DisponibleApres: h.DisponibleApres,
		RefCode:         h.RefCode,
		RefID:           h.RefID,
		Exercise:        h.Exercise,
		CreatedBy:       h.CreatedBy,
		CreatedAt:       h.CreatedAt,
	}
}

// HistoriesFromDomain converts domain history rows to responses.
func HistoriesFromDomain(rows []*domain.BudgetHistory) []*HistoryResponse {
	result := make([]*HistoryResponse, len(rows))
	for i, h := range rows {
		result[i] = HistoryFromDomain(h)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
