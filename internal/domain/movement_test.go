package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSensFor(t *testing.T) {
	debits := []MovementType{
		MovementReservation,
		MovementEngagement,
		MovementLiquidation,
		MovementOrdonnancement,
		MovementPaiement,
		MovementVirementSortant,
	}
	credits := []MovementType{
		MovementLiberationReservation,
		MovementAnnulationEngagement,
		MovementVirementEntrant,
	}

	for _, mt := range debits {
		if sens, ok := SensFor(mt); !ok || sens != SensDebit {
			t.Errorf("%s: expected fixed debit, got %s (fixed=%v)", mt, sens, ok)
		}
	}
	for _, mt := range credits {
		if sens, ok := SensFor(mt); !ok || sens != SensCredit {
			t.Errorf("%s: expected fixed credit, got %s (fixed=%v)", mt, sens, ok)
		}
	}

	// Caller-signed types carry no fixed direction.
	if _, ok := SensFor(MovementAjustement); ok {
		t.Error("ajustement should be caller-signed")
	}
	if _, ok := SensFor(MovementClotureExercice); ok {
		t.Error("cloture_exercice should be caller-signed")
	}
}

func TestMovement_Validate(t *testing.T) {
	t.Run("fixed sens mismatch is an integrity violation", func(t *testing.T) {
		m := Movement{
			BudgetLineID: "line-1",
			Type:         MovementReservation,
			Montant:      decimal.NewFromInt(100),
			Sens:         SensCredit,
		}
		if err := m.Validate(); !errors.Is(err, ErrIntegrityViolation) {
			t.Errorf("expected ErrIntegrityViolation, got %v", err)
		}
	})

	t.Run("non positive amount", func(t *testing.T) {
		m := Movement{Type: MovementReservation, Montant: decimal.Zero, Sens: SensDebit}
		if err := m.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("entity kind outside closed set", func(t *testing.T) {
		m := Movement{
			Type:    MovementEngagement,
			Montant: decimal.NewFromInt(100),
			Sens:    SensDebit,
			Entity:  EntityRef{Kind: "facture", ID: "f-1"},
		}
		if err := m.Validate(); !errors.Is(err, ErrUnknownEntityKind) {
			t.Errorf("expected ErrUnknownEntityKind, got %v", err)
		}
	})

	t.Run("valid movement", func(t *testing.T) {
		m := Movement{
			Type:    MovementEngagement,
			Montant: decimal.NewFromInt(100),
			Sens:    SensDebit,
			Entity:  EntityRef{Kind: EntityDossier, ID: "d-1"},
		}
		if err := m.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestMovement_Signed(t *testing.T) {
	m := Movement{Montant: decimal.NewFromInt(100), Sens: SensDebit}
	if !m.Signed().Equal(decimal.NewFromInt(-100)) {
		t.Errorf("expected -100, got %s", m.Signed())
	}

	m.Sens = SensCredit
	if !m.Signed().Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100, got %s", m.Signed())
	}
}

func TestSignedDelta(t *testing.T) {
	amount := decimal.NewFromInt(250)

	if !SignedDelta(HistoryVirementEmis, amount).Equal(amount.Neg()) {
		t.Error("virement_emis should debit the line")
	}
	if !SignedDelta(HistoryVirementRecu, amount).Equal(amount) {
		t.Error("virement_recu should credit the line")
	}
	// Ajustement keeps the caller's sign.
	if !SignedDelta(HistoryAjustement, amount.Neg()).Equal(amount.Neg()) {
		t.Error("ajustement should be caller-signed")
	}
}
