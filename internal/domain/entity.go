package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownEntityKind rejects an entity reference outside the closed set.
var ErrUnknownEntityKind = errors.New("unknown entity kind")

// EntityKind is the closed set of document kinds that may originate a
// movement. The engine does not interpret them; the set is validated at the
// boundary so the loosely-typed pair never carries arbitrary strings.
type EntityKind string

const (
	EntityEngagement     EntityKind = "engagement"
	EntityLiquidation    EntityKind = "liquidation"
	EntityOrdonnancement EntityKind = "ordonnancement"
	EntityReglement      EntityKind = "reglement"
	EntityDossier        EntityKind = "dossier"
	EntityCreditTransfer EntityKind = "credit_transfer"
	EntityNoteAEF        EntityKind = "note_aef"
)

var validEntityKinds = map[EntityKind]bool{
	EntityEngagement:     true,
	EntityLiquidation:    true,
	EntityOrdonnancement: true,
	EntityReglement:      true,
	EntityDossier:        true,
	EntityCreditTransfer: true,
	EntityNoteAEF:        true,
}

// EntityRef links a movement to the spending-chain document that caused it.
// The zero value means "no originating document".
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// IsZero reports whether the reference is absent.
func (r EntityRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// Validate checks the reference against the closed kind set.
func (r EntityRef) Validate() error {
	if r.IsZero() {
		return nil
	}
	if !validEntityKinds[r.Kind] {
		return fmt.Errorf("%w: %q", ErrUnknownEntityKind, r.Kind)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: missing id for kind %q", ErrUnknownEntityKind, r.Kind)
	}
	return nil
}
