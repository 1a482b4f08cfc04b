package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType enumerates every event that can touch a line's numbers.
type MovementType string

const (
	MovementReservation           MovementType = "reservation"
	MovementLiberationReservation MovementType = "liberation_reservation"
	MovementEngagement            MovementType = "engagement"
	MovementAnnulationEngagement  MovementType = "annulation_engagement"
	MovementLiquidation           MovementType = "liquidation"
	MovementOrdonnancement        MovementType = "ordonnancement"
	MovementPaiement              MovementType = "paiement"
	MovementVirementEntrant       MovementType = "virement_entrant"
	MovementVirementSortant       MovementType = "virement_sortant"
	MovementAjustement            MovementType = "ajustement"
	MovementClotureExercice       MovementType = "cloture_exercice"
)

// Sens is the direction of a movement.
type Sens string

const (
	SensDebit  Sens = "debit"
	SensCredit Sens = "credit"
)

// sensByType is the fixed sign convention. Ajustement and cloture are
// caller-signed and absent from the table.
var sensByType = map[MovementType]Sens{
	MovementReservation:           SensDebit,
	MovementEngagement:            SensDebit,
	MovementLiquidation:           SensDebit,
	MovementOrdonnancement:        SensDebit,
	MovementPaiement:              SensDebit,
	MovementVirementSortant:       SensDebit,
	MovementLiberationReservation: SensCredit,
	MovementAnnulationEngagement:  SensCredit,
	MovementVirementEntrant:       SensCredit,
}

// SensFor returns the fixed direction for a movement type and whether the
// type carries one (ajustement and cloture_exercice are caller-signed).
func SensFor(t MovementType) (Sens, bool) {
	s, ok := sensByType[t]
	return s, ok
}

// MovementStatus marks whether a movement counts toward the line's state.
type MovementStatus string

const (
	MovementStatusValide MovementStatus = "valide"
	MovementStatusAnnule MovementStatus = "annule"
)

// Movement is one append-only ledger record. Immutable once valide.
type Movement struct {
	ID              string
	BudgetLineID    string
	Type            MovementType
	Montant         decimal.Decimal
	Sens            Sens
	DisponibleAvant decimal.Decimal
	DisponibleApres decimal.Decimal
	ReserveAvant    decimal.Decimal
	ReserveApres    decimal.Decimal
	Entity          EntityRef
	Exercise        int
	Motif           string
	CreatedBy       string
	CreatedAt       time.Time
	Statut          MovementStatus
}

// Validate checks the record against the sign convention.
func (m *Movement) Validate() error {
	if m.Montant.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if sens, fixed := SensFor(m.Type); fixed && m.Sens != sens {
		return &IntegrityError{
			LineID: m.BudgetLineID,
			Field:  "sens(" + string(m.Type) + ")",
			Cached: decimal.Zero,
			Replay: decimal.Zero,
		}
	}
	if !m.Entity.IsZero() {
		return m.Entity.Validate()
	}
	return nil
}

// Signed returns the movement amount with its direction applied.
func (m *Movement) Signed() decimal.Decimal {
	if m.Sens == SensDebit {
		return m.Montant.Neg()
	}
	return m.Montant
}
