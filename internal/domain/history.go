package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEvent enumerates the audit-facing events recorded on a line.
type HistoryEvent string

const (
	HistoryImportInitial         HistoryEvent = "import_initial"
	HistoryVirementRecu          HistoryEvent = "virement_recu"
	HistoryVirementEmis          HistoryEvent = "virement_emis"
	HistoryAjustement            HistoryEvent = "ajustement"
	HistoryReservation           HistoryEvent = "reservation"
	HistoryLiberationReservation HistoryEvent = "liberation_reservation"
	HistoryEngagement            HistoryEvent = "engagement"
	HistoryAnnulationEngagement  HistoryEvent = "annulation_engagement"
	HistoryLiquidation           HistoryEvent = "liquidation"
	HistoryOrdonnancement        HistoryEvent = "ordonnancement"
	HistoryPaiement              HistoryEvent = "paiement"
)

// signByEvent is the fixed sign convention: +1 credits the line, -1 debits
// it. Ajustement is caller-signed and absent.
var signByEvent = map[HistoryEvent]int{
	HistoryImportInitial:         +1,
	HistoryVirementRecu:          +1,
	HistoryLiberationReservation: +1,
	HistoryAnnulationEngagement:  +1,
	HistoryVirementEmis:          -1,
	HistoryEngagement:            -1,
	HistoryLiquidation:           -1,
	HistoryOrdonnancement:        -1,
	HistoryPaiement:              -1,
	HistoryReservation:           -1,
}

// SignFor returns the fixed sign for a history event and whether the event
// carries one.
func SignFor(e HistoryEvent) (int, bool) {
	s, ok := signByEvent[e]
	return s, ok
}

// SignedDelta applies the fixed convention to an absolute amount. For
// caller-signed events (ajustement) the amount is returned unchanged.
func SignedDelta(e HistoryEvent, amount decimal.Decimal) decimal.Decimal {
	if sign, ok := SignFor(e); ok && sign < 0 {
		return amount.Neg()
	}
	return amount
}

// BudgetHistory is one audit row. Exactly one row is written per committing
// event, in the same transaction as the line update. Append-only.
type BudgetHistory struct {
	ID              string
	BudgetLineID    string
	EventType       HistoryEvent
	Delta           decimal.Decimal
	DotationAvant   decimal.Decimal
	DotationApres   decimal.Decimal
	DisponibleAvant decimal.Decimal
	DisponibleApres decimal.Decimal
	RefCode         string
	RefID           string
	Exercise        int
	CreatedBy       string
	CreatedAt       time.Time
}
