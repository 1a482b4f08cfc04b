package domain

import "time"

// Event types
const (
	EventTypeReservationCreated  = "reservation.created"
	EventTypeReservationReleased = "reservation.released"
	EventTypeEngagementRecorded  = "engagement.recorded"
	EventTypePaiementRecorded    = "paiement.recorded"
	EventTypeTransferCreated     = "transfer.created"
	EventTypeTransferExecuted    = "transfer.executed"
	EventTypeTransferRejected    = "transfer.rejected"
	EventTypeLineCreated         = "budget_line.created"
)

// Aggregate types
const (
	AggregateTypeBudgetLine = "budget_line"
	AggregateTypeTransfer   = "credit_transfer"
	AggregateTypeMovement   = "movement"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and published asynchronously.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
