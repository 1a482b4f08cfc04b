package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetLine represents the funding state of a single budget line for one
// fiscal exercise. The cached columns (DotationModifiee, TotalEngage,
// MontantReserve, TotalPaye) are the source of truth and are written only
// inside the engine's transactions.
type BudgetLine struct {
	ID               string
	Exercise         int
	Code             string
	Label            string
	DotationInitiale decimal.Decimal
	// DotationModifiee is the current authorized funding after executed
	// transfers. Nil means the line was never adjusted.
	DotationModifiee *decimal.Decimal
	TotalEngage      decimal.Decimal
	MontantReserve   decimal.Decimal
	TotalPaye        decimal.Decimal
	Closed           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DotationActuelle returns the authorized funding ceiling in force.
func (l *BudgetLine) DotationActuelle() decimal.Decimal {
	if l.DotationModifiee != nil {
		return *l.DotationModifiee
	}
	return l.DotationInitiale
}

// DisponibleBrut returns the funding not yet committed.
func (l *BudgetLine) DisponibleBrut() decimal.Decimal {
	return l.DotationActuelle().Sub(l.TotalEngage)
}

// DisponibleNet returns the funding not committed nor softly held.
func (l *BudgetLine) DisponibleNet() decimal.Decimal {
	return l.DisponibleBrut().Sub(l.MontantReserve)
}

// ValidateDebit checks whether amount can be taken from the net available
// balance. Returns an InsufficientFundsError carrying the shortfall figures.
func (l *BudgetLine) ValidateDebit(amount decimal.Decimal) error {
	available := l.DisponibleNet()
	if amount.GreaterThan(available) {
		return &InsufficientFundsError{
			LineID:    l.ID,
			Requested: amount,
			Available: available,
			Shortfall: amount.Sub(available),
		}
	}
	return nil
}

// SetDotation replaces the current dotation with d.
func (l *BudgetLine) SetDotation(d decimal.Decimal) {
	v := d
	l.DotationModifiee = &v
}

// Availability is the derived balance view of a budget line.
type Availability struct {
	LineID           string
	Exercise         int
	DotationActuelle decimal.Decimal
	TotalEngage      decimal.Decimal
	MontantReserve   decimal.Decimal
	DisponibleBrut   decimal.Decimal
	DisponibleNet    decimal.Decimal
}

// AvailabilityOf derives the availability view from a line's cached state.
func AvailabilityOf(l *BudgetLine) Availability {
	return Availability{
		LineID:           l.ID,
		Exercise:         l.Exercise,
		DotationActuelle: l.DotationActuelle(),
		TotalEngage:      l.TotalEngage,
		MontantReserve:   l.MontantReserve,
		DisponibleBrut:   l.DisponibleBrut(),
		DisponibleNet:    l.DisponibleNet(),
	}
}
