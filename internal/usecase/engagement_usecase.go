package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/infrastructure/metrics"
)

// EngagementUseCase records the spending chain against a line: engagement,
// then liquidation, ordonnancement and paiement. Only engagement and its
// cancellation move the cached balance columns; the downstream stages are
// journal entries within the already engaged amount.
type EngagementUseCase struct {
	txManager    TransactionManager
	lineRepo     BudgetLineRepository
	movementRepo MovementRepository
	historyRepo  HistoryRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewEngagementUseCase creates a new EngagementUseCase.
func NewEngagementUseCase(
	txManager TransactionManager,
	lineRepo BudgetLineRepository,
	movementRepo MovementRepository,
	historyRepo HistoryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *EngagementUseCase {
	return &EngagementUseCase{
		txManager:    txManager,
		lineRepo:     lineRepo,
		movementRepo: movementRepo,
		historyRepo:  historyRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// EngagementInput represents input for recording an engagement.
type EngagementInput struct {
	BudgetLineID string
	Exercise     int
	Amount       decimal.Decimal
	// ReservedAmount is the portion already held by a reservation for the
	// same document. It is released in the same transaction, so converting
	// a reservation never fails for funds the hold itself is covering.
	ReservedAmount decimal.Decimal
	Entity         domain.EntityRef
	Motif          string
}

// ChainInput represents input for the post-engagement chain stages.
type ChainInput struct {
	BudgetLineID string
	Exercise     int
	Amount       decimal.Decimal
	Entity       domain.EntityRef
	Motif        string
}

// RecordEngagement turns committed intent into a firm charge. Any covering
// reservation is released atomically with the engagement.
func (uc *EngagementUseCase) RecordEngagement(ctx context.Context, input EngagementInput) (*domain.Movement, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.ReservedAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
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

	newReserve := line.MontantReserve.Sub(input.ReservedAmount)
	if newReserve.IsNegative() {
		newReserve = decimal.Zero
	}
	released := line.MontantReserve.Sub(newReserve)

	// Availability is checked with the covering reservation already lifted.
	afterRelease := line.DotationActuelle().Sub(line.TotalEngage).Sub(newReserve)
	if input.Amount.GreaterThan(afterRelease) {
		if uc.metrics != nil {
			uc.metrics.ReservationsRejected.Inc()
		}
		shortfall := input.Amount.Sub(afterRelease)
		return nil, &domain.InsufficientFundsError{
			LineID:    line.ID,
			Requested: input.Amount,
			Available: afterRelease,
			Shortfall: shortfall,
		}
	}

	now := time.Now().UTC()
	availBefore := line.DisponibleNet()
	newEngage := line.TotalEngage.Add(input.Amount)
	availAfter := line.DotationActuelle().Sub(newEngage).Sub(newReserve)

	if released.IsPositive() {
		release := &domain.Movement{
			ID:              uc.idGen.Generate(),
			BudgetLineID:    line.ID,
			Type:            domain.MovementLiberationReservation,
			Montant:         released,
			Sens:            domain.SensCredit,
			DisponibleAvant: availBefore,
			DisponibleApres: availBefore.Add(released),
			ReserveAvant:    line.MontantReserve,
			ReserveApres:    newReserve,
			Entity:          input.Entity,
			Exercise:        input.Exercise,
			Motif:           input.Motif,
			CreatedBy:       domain.ActorID(ctx),
			CreatedAt:       now,
			Statut:          domain.MovementStatusValide,
		}
		if err := uc.movementRepo.Create(txCtx, tx, release); err != nil {
			return nil, err
		}
		if err := uc.historyRepo.Create(txCtx, tx, &domain.BudgetHistory{
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
		}); err != nil {
			return nil, err
		}
	}

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		Type:            domain.MovementEngagement,
		Montant:         input.Amount,
		Sens:            domain.SensDebit,
		DisponibleAvant: availBefore.Add(released),
		DisponibleApres: availAfter,
		ReserveAvant:    newReserve,
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

	if err := uc.lineRepo.UpdateEngage(txCtx, tx, line.ID, newEngage, newReserve, now); err != nil {
		return nil, err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		EventType:       domain.HistoryEngagement,
		Delta:           input.Amount.Neg(),
		DotationAvant:   line.DotationActuelle(),
		DotationApres:   line.DotationActuelle(),
		DisponibleAvant: availBefore.Add(released),
		DisponibleApres: availAfter,
		RefID:           input.Entity.ID,
		Exercise:        input.Exercise,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   movement.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeEngagementRecorded,
		Payload: map[string]any{
			"movement_id":    movement.ID,
			"budget_line_id": line.ID,
			"exercise":       input.Exercise,
			"amount":         input.Amount.String(),
		},
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SpendingRecorded.WithLabelValues(string(domain.MovementEngagement)).Inc()
	}

	return movement, nil
}

// CancelEngagement reverses a previously recorded engagement. The resulting
// total is floored at zero and the movement carries the effective cancelled
// amount. Cancelling against a zero engagement writes nothing and returns a
// nil movement.
func (uc *EngagementUseCase) CancelEngagement(ctx context.Context, input ChainInput) (*domain.Movement, error) {
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

	newEngage := line.TotalEngage.Sub(input.Amount)
	if newEngage.IsNegative() {
		newEngage = decimal.Zero
	}
	cancelled := line.TotalEngage.Sub(newEngage)
	if cancelled.IsZero() {
		return nil, nil
	}

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		Type:            domain.MovementAnnulationEngagement,
		Montant:         cancelled,
		Sens:            domain.SensCredit,
		DisponibleAvant: availBefore,
		DisponibleApres: availBefore.Add(cancelled),
		ReserveAvant:    line.MontantReserve,
		ReserveApres:    line.MontantReserve,
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

	if err := uc.lineRepo.UpdateEngage(txCtx, tx, line.ID, newEngage, line.MontantReserve, now); err != nil {
		return nil, err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		EventType:       domain.HistoryAnnulationEngagement,
		Delta:           cancelled,
		DotationAvant:   line.DotationActuelle(),
		DotationApres:   line.DotationActuelle(),
		DisponibleAvant: availBefore,
		DisponibleApres: availBefore.Add(cancelled),
		RefID:           input.Entity.ID,
		Exercise:        input.Exercise,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SpendingRecorded.WithLabelValues(string(domain.MovementAnnulationEngagement)).Inc()
	}

	return movement, nil
}

// RecordLiquidation records the certification of a delivered engagement.
// Cached balances do not move; the entry lives in the journal only.
func (uc *EngagementUseCase) RecordLiquidation(ctx context.Context, input ChainInput) (*domain.Movement, error) {
	return uc.recordChainStage(ctx, input, domain.MovementLiquidation, domain.HistoryLiquidation)
}

// RecordOrdonnancement records the payment order for a liquidated amount.
func (uc *EngagementUseCase) RecordOrdonnancement(ctx context.Context, input ChainInput) (*domain.Movement, error) {
	return uc.recordChainStage(ctx, input, domain.MovementOrdonnancement, domain.HistoryOrdonnancement)
}

// RecordPaiement records an effective payment and advances total_paye.
func (uc *EngagementUseCase) RecordPaiement(ctx context.Context, input ChainInput) (*domain.Movement, error) {
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
	avail := line.DisponibleNet()
	newPaye := line.TotalPaye.Add(input.Amount)

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		Type:            domain.MovementPaiement,
		Montant:         input.Amount,
		Sens:            domain.SensDebit,
		DisponibleAvant: avail,
		DisponibleApres: avail,
		ReserveAvant:    line.MontantReserve,
		ReserveApres:    line.MontantReserve,
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

	if err := uc.lineRepo.UpdatePaye(txCtx, tx, line.ID, newPaye, now); err != nil {
		return nil, err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		EventType:       domain.HistoryPaiement,
		Delta:           input.Amount.Neg(),
		DotationAvant:   line.DotationActuelle(),
		DotationApres:   line.DotationActuelle(),
		DisponibleAvant: avail,
		DisponibleApres: avail,
		RefID:           input.Entity.ID,
		Exercise:        input.Exercise,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   movement.ID,
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypePaiementRecorded,
		Payload: map[string]any{
			"movement_id":    movement.ID,
			"budget_line_id": line.ID,
			"exercise":       input.Exercise,
			"amount":         input.Amount.String(),
		},
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SpendingRecorded.WithLabelValues(string(domain.MovementPaiement)).Inc()
	}

	return movement, nil
}

func (uc *EngagementUseCase) recordChainStage(ctx context.Context, input ChainInput, mt domain.MovementType, he domain.HistoryEvent) (*domain.Movement, error) {
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
	avail := line.DisponibleNet()

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		Type:            mt,
		Montant:         input.Amount,
		Sens:            domain.SensDebit,
		DisponibleAvant: avail,
		DisponibleApres: avail,
		ReserveAvant:    line.MontantReserve,
		ReserveApres:    line.MontantReserve,
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

	if err := uc.historyRepo.Create(txCtx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    line.ID,
		EventType:       he,
		Delta:           input.Amount.Neg(),
		DotationAvant:   line.DotationActuelle(),
		DotationApres:   line.DotationActuelle(),
		DisponibleAvant: avail,
		DisponibleApres: avail,
		RefID:           input.Entity.ID,
		Exercise:        input.Exercise,
		CreatedBy:       domain.ActorID(ctx),
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SpendingRecorded.WithLabelValues(string(mt)).Inc()
	}

	return movement, nil
}
