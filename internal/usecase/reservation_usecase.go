package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/infrastructure/metrics"
)

// ReservationUseCase manages soft, reversible holds against a line's net
// available balance. Every operation is one atomic unit: the movement row
// and the cached montant_reserve either both commit or neither does.
type ReservationUseCase struct {
	txManager    TransactionManager
	lineRepo     BudgetLineRepository
	movementRepo MovementRepository
	historyRepo  HistoryRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewReservationUseCase creates a new ReservationUseCase.
func NewReservationUseCase(
	txManager TransactionManager,
	lineRepo BudgetLineRepository,
	movementRepo MovementRepository,
	historyRepo HistoryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ReservationUseCase {
	return &ReservationUseCase{
		txManager:    txManager,
		lineRepo:     lineRepo,
		movementRepo: movementRepo,
		historyRepo:  historyRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// ReservationInput represents input for creating or releasing a reservation.
type ReservationInput struct {
	BudgetLineID string
	Exercise     int
	Amount       decimal.Decimal
	Entity       domain.EntityRef
	Motif        string
}

// CreateReservation places a hold on a line. The availability check runs
// against the row-locked line, so two concurrent reservations serialize and
// the second sees the first one's reserve.
func (uc *ReservationUseCase) CreateReservation(ctx context.Context, input ReservationInput) (*domain.Movement, error) {
	start := time.Now()

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := input.Entity.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	line, err := uc.lineRepo.GetByIDForUpdate(txCtx, tx, input.BudgetLineID)
	if err != nil {
		return nil, err
	}
	if line.Closed {
		return nil, domain.ErrLineClosed
	}

	if err := line.ValidateDebit(input.Amount); err != nil {
		if uc.metrics != nil {
			uc.metrics.ReservationsRejected.Inc()
		}
		return nil, err
	}

	now := time.Now().UTC()
	availBefore := line.DisponibleNet()
	reserveBefore := line.MontantReserve
	newReserve := reserveBefore.Add(input.Amount)

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		Type:            domain.MovementReservation,
		Montant:         input.Amount,
		Sens:            domain.SensDebit,
		DisponibleAvant: availBefore,
		DisponibleApres: availBefore.Sub(input.Amount),
		ReserveAvant:    reserveBefore,
		ReserveApres:    newReserve,
		Entity:          input.Entity,
		Exercise:        input.Exercise,
		Motif:           input.Motif,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
		Statut:          domain.MovementStatusValide,
	}
	if err := movement.Validate(); err != nil {
		return nil, err
	}
	if err := uc.movementRepo.Create(txCtx, tx, movement); err != nil {
		return nil, err
	}

	if err := uc.lineRepo.UpdateReserve(txCtx, tx, line.ID, newReserve, now); err != nil {
		return nil, err
	}

	row := &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		EventType:       domain.HistoryReservation,
		Delta:           input.Amount.Neg(),
		DotationAvant:   line.DotationActuelle(),
		DotationApres:   line.DotationActuelle(),
		DisponibleAvant: availBefore,
		DisponibleApres: availBefore.Sub(input.Amount),
		RefID:           input.Entity.ID,
		Exercise:        input.Exercise,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
	}
	if err := uc.historyRepo.Create(txCtx, tx, row); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   movement.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeReservationCreated,
		Payload: map[string]any{
			"movement_id":    movement.ID,
			"budget_line_id": line.ID,
			"exercise":       input.Exercise,
			"amount":         input.Amount.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReservationsCreated.Inc()
		uc.metrics.ReservationDuration.Observe(time.Since(start).Seconds())
	}

	return movement, nil
}

// ReleaseReservation lifts a hold. The resulting reserve is floored at
// zero instead of failing: releases run from best-effort cleanup paths and
// must not themselves wedge a stuck document. The movement records the
// effective released amount, so replaying the ledger matches the cached
// reserve exactly. Releasing against an empty reserve writes nothing and
// returns a nil movement.
func (uc *ReservationUseCase) ReleaseReservation(ctx context.Context, input ReservationInput) (*domain.Movement, error) {
	start := time.Now()

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := input.Entity.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	line, err := uc.lineRepo.GetByIDForUpdate(txCtx, tx, input.BudgetLineID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	availBefore := line.DisponibleNet()
	reserveBefore := line.MontantReserve

	newReserve := reserveBefore.Sub(input.Amount)
	if newReserve.IsNegative() {
		newReserve = decimal.Zero
	}
	released := reserveBefore.Sub(newReserve)
	if released.IsZero() {
		return nil, nil
	}

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		Type:            domain.MovementLiberationReservation,
		Montant:         released,
		Sens:            domain.SensCredit,
		DisponibleAvant: availBefore,
		DisponibleApres: availBefore.Add(released),
		ReserveAvant:    reserveBefore,
		ReserveApres:    newReserve,
		Entity:          input.Entity,
		Exercise:        input.Exercise,
		Motif:           input.Motif,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
		Statut:          domain.MovementStatusValide,
	}
	if err := uc.movementRepo.Create(txCtx, tx, movement); err != nil {
		return nil, err
	}

	if err := uc.lineRepo.UpdateReserve(txCtx, tx, line.ID, newReserve, now); err != nil {
		return nil, err
	}

	row := &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		EventType:       domain.HistoryLiberationReservation,
		Delta:           released,
		DotationAvant:   line.DotationActuelle(),
		DotationApres:   line.DotationActuelle(),
		DisponibleAvant: availBefore,
		DisponibleApres: availBefore.Add(released),
		RefID:           input.Entity.ID,
		Exercise:        input.Exercise,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
	}
	if err := uc.historyRepo.Create(txCtx, tx, row); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   movement.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeReservationReleased,
		Payload: map[string]any{
			"movement_id":    movement.ID,
			"budget_line_id": line.ID,
			"exercise":       input.Exercise,
			"amount":         released.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReservationsReleased.Inc()
		uc.metrics.ReservationDuration.Observe(time.Since(start).Seconds())
	}

	return movement, nil
}
