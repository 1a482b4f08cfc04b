package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/infrastructure/metrics"
)

// TransferUseCase drives the credit transfer workflow. Every transition
// except Execute is pure metadata; Execute is the single balance-effecting
// operation and re-checks availability against row-locked lines.
type TransferUseCase struct {
	txManager    TransactionManager
	transferRepo TransferRepository
	lineRepo     BudgetLineRepository
	movementRepo MovementRepository
	historyRepo  HistoryRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	codeGen      CodeGenerator
	retrier      Retrier
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	transferRepo TransferRepository,
	lineRepo BudgetLineRepository,
	movementRepo MovementRepository,
	historyRepo HistoryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	codeGen CodeGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		transferRepo: transferRepo,
		lineRepo:     lineRepo,
		movementRepo: movementRepo,
		historyRepo:  historyRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		codeGen:      codeGen,
		retrier:      retrier,
		metrics:      metrics,
	}
}

// CreateTransferInput represents input for creating a transfer draft.
type CreateTransferInput struct {
	Exercise         int
	Type             domain.TransferType
	FromBudgetLineID *string
	ToBudgetLineID   string
	Amount           decimal.Decimal
	Motif            string
	Justification    string
}

// UpdateDraftInput carries the fields a brouillon may still change.
type UpdateDraftInput struct {
	Amount        *decimal.Decimal
	Motif         *string
	Justification *string
}

// CreateTransfer opens a new draft. The code is allocated from the
// per-exercise counter inside the same transaction, so a failed create does
// not leave a phantom code behind.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, input CreateTransferInput) (*domain.CreditTransfer, error) {
	if err := domain.ValidateExercise(input.Exercise); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transfer := &domain.CreditTransfer{
		ID:               uc.idGen.Generate(),
		Exercise:         input.Exercise,
		Type:             input.Type,
		Status:           domain.TransferBrouillon,
		FromBudgetLineID: input.FromBudgetLineID,
		ToBudgetLineID:   input.ToBudgetLineID,
		Amount:           input.Amount,
		Motif:            input.Motif,
		Justification:    input.Justification,
		RequestedBy:      domain.ActorID(ctx),
		RequestedAt:      now,
	}
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	err := uc.retrier.Retry(txCtx, func() error {
		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		// Fail fast if either endpoint is unknown or outside the exercise.
		to, err := uc.lineRepo.GetByID(txCtx, input.ToBudgetLineID)
		if err != nil {
			return err
		}
		if to.Exercise != input.Exercise {
			return domain.ErrLineNotFound
		}
		if input.FromBudgetLineID != nil {
			from, err := uc.lineRepo.GetByID(txCtx, *input.FromBudgetLineID)
			if err != nil {
				return err
			}
			if from.Exercise != input.Exercise {
				return domain.ErrLineNotFound
			}
		}

		code, err := uc.codeGen.Next(txCtx, tx, input.Exercise, input.Type)
		if err != nil {
			return err
		}
		transfer.Code = code

		if err := uc.transferRepo.Create(txCtx, tx, transfer); err != nil {
			return err
		}

		if err := uc.outboxRepo.Create(txCtx, tx, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   transfer.ID,
			AggregateType: domain.AggregateTypeTransfer,
			EventType:     domain.EventTypeTransferCreated,
			Payload: map[string]any{
				"transfer_id": transfer.ID,
				"code":        transfer.Code,
				"exercise":    transfer.Exercise,
				"type":        string(transfer.Type),
				"amount":      transfer.Amount.String(),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCreated.Inc()
	}

	return transfer, nil
}

// UpdateDraft amends a transfer that is still in brouillon. Any other state
// refuses the change.
func (uc *TransferUseCase) UpdateDraft(ctx context.Context, id string, input UpdateDraftInput) (*domain.CreditTransfer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transfer, err := uc.transferRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Status != domain.TransferBrouillon {
		return nil, &domain.InvalidTransitionError{TransferID: id, From: transfer.Status, Action: "update_draft"}
	}

	if input.Amount != nil {
		transfer.Amount = *input.Amount
	}
	if input.Motif != nil {
		transfer.Motif = *input.Motif
	}
	if input.Justification != nil {
		transfer.Justification = *input.Justification
	}
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	if err := uc.transferRepo.Update(txCtx, tx, transfer); err != nil {
		return nil, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return transfer, nil
}

// SubmitTransfer moves a brouillon into validation.
func (uc *TransferUseCase) SubmitTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return uc.applyTransition(ctx, id, func(t *domain.CreditTransfer, now time.Time) error {
		return t.Submit(domain.ActorID(ctx), now)
	}, "")
}

// ValidateTransfer approves a submitted transfer. No balance moves; the
// line may still lose its funds before Execute runs.
func (uc *TransferUseCase) ValidateTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return uc.applyTransition(ctx, id, func(t *domain.CreditTransfer, now time.Time) error {
		return t.Approve(domain.ActorID(ctx), now)
	}, "")
}

// RejectTransfer refuses a submitted transfer with a mandatory reason.
func (uc *TransferUseCase) RejectTransfer(ctx context.Context, id, reason string) (*domain.CreditTransfer, error) {
	transfer, err := uc.applyTransition(ctx, id, func(t *domain.CreditTransfer, now time.Time) error {
		return t.Reject(domain.ActorID(ctx), reason, now)
	}, domain.EventTypeTransferRejected)
	if err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.TransfersRejected.Inc()
	}
	return transfer, nil
}

// CancelTransfer abandons an approved transfer before execution.
func (uc *TransferUseCase) CancelTransfer(ctx context.Context, id, reason string) (*domain.CreditTransfer, error) {
	return uc.applyTransition(ctx, id, func(t *domain.CreditTransfer, now time.Time) error {
		return t.Cancel(domain.ActorID(ctx), reason, now)
	}, "")
}

// applyTransition runs one metadata state change under a row lock on the
// transfer. eventType, when non-empty, adds an outbox event.
func (uc *TransferUseCase) applyTransition(ctx context.Context, id string, apply func(*domain.CreditTransfer, time.Time) error, eventType string) (*domain.CreditTransfer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transfer, err := uc.transferRepo.GetByIDForUpdate(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := apply(transfer, now); err != nil {
		return nil, err
	}

	if err := uc.transferRepo.Update(txCtx, tx, transfer); err != nil {
		return nil, err
	}

	if eventType != "" {
		if err := uc.outboxRepo.Create(txCtx, tx, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   transfer.ID,
			AggregateType: domain.AggregateTypeTransfer,
			EventType:     eventType,
			Payload: map[string]any{
				"transfer_id": transfer.ID,
				"code":        transfer.Code,
				"status":      string(transfer.Status),
			},
			CreatedAt: now,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return transfer, nil
}

// ExecuteTransfer applies an approved transfer to the lines. The source
// availability is re-checked against the locked rows, not the figures seen
// at validation time: approval is a gate, execution is the judge.
func (uc *TransferUseCase) ExecuteTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	start := time.Now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var transfer *domain.CreditTransfer
	err := uc.retrier.Retry(txCtx, func() error {
		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		transfer, err = uc.transferRepo.GetByIDForUpdate(txCtx, tx, id)
		if err != nil {
			return err
		}
		if transfer.Status != domain.TransferValide {
			return &domain.InvalidTransitionError{TransferID: id, From: transfer.Status, Action: "execute"}
		}

		now := time.Now().UTC()

		switch transfer.Type {
		case domain.TransferVirement:
			if err := uc.executeVirement(txCtx, tx, transfer, now); err != nil {
				return err
			}
		case domain.TransferAjustement:
			if err := uc.executeAjustement(txCtx, tx, transfer, now); err != nil {
				return err
			}
		default:
			return domain.ErrInvalidStateTransition
		}

		if err := transfer.MarkExecuted(domain.ActorID(ctx), now); err != nil {
			return err
		}
		if err := uc.transferRepo.Update(txCtx, tx, transfer); err != nil {
			return err
		}

		if err := uc.outboxRepo.Create(txCtx, tx, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   transfer.ID,
			AggregateType: domain.AggregateTypeTransfer,
			EventType:     domain.EventTypeTransferExecuted,
			Payload: map[string]any{
				"transfer_id": transfer.ID,
				"code":        transfer.Code,
				"exercise":    transfer.Exercise,
				"type":        string(transfer.Type),
				"amount":      transfer.Amount.String(),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.TransferErrors.WithLabelValues(errorLabel(err)).Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersExecuted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		amt, _ := transfer.Amount.Float64()
		uc.metrics.TransferAmount.Observe(amt)
	}

	return transfer, nil
}

// executeVirement locks both lines in sorted ID order, debits the source
// and credits the destination.
func (uc *TransferUseCase) executeVirement(ctx context.Context, tx Transaction, transfer *domain.CreditTransfer, now time.Time) error {
	fromID := *transfer.FromBudgetLineID
	toID := transfer.ToBudgetLineID

	ids := []string{fromID, toID}
	sort.Strings(ids)
	lines, err := uc.lineRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return err
	}

	var from, to *domain.BudgetLine
	for _, l := range lines {
		switch l.ID {
		case fromID:
			from = l
		case toID:
			to = l
		}
	}
	if from == nil || to == nil {
		return domain.ErrLineNotFound
	}
	if from.Closed || to.Closed {
		return domain.ErrLineClosed
	}

	if err := from.ValidateDebit(transfer.Amount); err != nil {
		return err
	}

	ref := domain.EntityRef{Kind: domain.EntityCreditTransfer, ID: transfer.ID}

	fromAvail := from.DisponibleNet()
	toAvail := to.DisponibleNet()
	fromDotation := from.DotationActuelle()
	toDotation := to.DotationActuelle()
	newFromDotation := fromDotation.Sub(transfer.Amount)
	newToDotation := toDotation.Add(transfer.Amount)

	transfer.FromSnapshot = &domain.LineSnapshot{
		DotationAvant:   fromDotation,
		DotationApres:   newFromDotation,
		DisponibleAvant: fromAvail,
		DisponibleApres: fromAvail.Sub(transfer.Amount),
	}
	transfer.ToSnapshot = &domain.LineSnapshot{
		DotationAvant:   toDotation,
		DotationApres:   newToDotation,
		DisponibleAvant: toAvail,
		DisponibleApres: toAvail.Add(transfer.Amount),
	}

	if err := uc.lineRepo.UpdateDotation(ctx, tx, from.ID, newFromDotation, now); err != nil {
		return err
	}
	if err := uc.lineRepo.UpdateDotation(ctx, tx, to.ID, newToDotation, now); err != nil {
		return err
	}

	out := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    from.ID,
		Type:            domain.MovementVirementSortant,
		Montant:         transfer.Amount,
		Sens:            domain.SensDebit,
		DisponibleAvant: fromAvail,
		DisponibleApres: fromAvail.Sub(transfer.Amount),
		ReserveAvant:    from.MontantReserve,
		ReserveApres:    from.MontantReserve,
		Entity:          ref,
		Exercise:        transfer.Exercise,
		Motif:           transfer.Motif,
		CreatedBy:       transfer.ApprovedBy,
		CreatedAt:       now,
		Statut:          domain.MovementStatusValide,
	}
	if err := uc.movementRepo.Create(ctx, tx, out); err != nil {
		return err
	}

	in := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    to.ID,
		Type:            domain.MovementVirementEntrant,
		Montant:         transfer.Amount,
		Sens:            domain.SensCredit,
		DisponibleAvant: toAvail,
		DisponibleApres: toAvail.Add(transfer.Amount),
		ReserveAvant:    to.MontantReserve,
		ReserveApres:    to.MontantReserve,
		Entity:          ref,
		Exercise:        transfer.Exercise,
		Motif:           transfer.Motif,
		CreatedBy:       transfer.ApprovedBy,
		CreatedAt:       now,
		Statut:          domain.MovementStatusValide,
	}
	if err := uc.movementRepo.Create(ctx, tx, in); err != nil {
		return err
	}

	if err := uc.historyRepo.Create(ctx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    from.ID,
		EventType:       domain.HistoryVirementEmis,
		Delta:           transfer.Amount.Neg(),
		DotationAvant:   fromDotation,
		DotationApres:   newFromDotation,
		DisponibleAvant: fromAvail,
		DisponibleApres: fromAvail.Sub(transfer.Amount),
		RefCode:         transfer.Code,
		RefID:           transfer.ID,
		Exercise:        transfer.Exercise,
		CreatedBy:       transfer.ApprovedBy,
		CreatedAt:       now,
	}); err != nil {
		return err
	}

	return uc.historyRepo.Create(ctx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    to.ID,
		EventType:       domain.HistoryVirementRecu,
		Delta:           transfer.Amount,
		DotationAvant:   toDotation,
		DotationApres:   newToDotation,
		DisponibleAvant: toAvail,
		DisponibleApres: toAvail.Add(transfer.Amount),
		RefCode:         transfer.Code,
		RefID:           transfer.ID,
		Exercise:        transfer.Exercise,
		CreatedBy:       transfer.ApprovedBy,
		CreatedAt:       now,
	})
}

// executeAjustement credits the destination line with no source.
func (uc *TransferUseCase) executeAjustement(ctx context.Context, tx Transaction, transfer *domain.CreditTransfer, now time.Time) error {
	to, err := uc.lineRepo.GetByIDForUpdate(ctx, tx, transfer.ToBudgetLineID)
	if err != nil {
		return err
	}
	if to.Closed {
		return domain.ErrLineClosed
	}

	ref := domain.EntityRef{Kind: domain.EntityCreditTransfer, ID: transfer.ID}

	toAvail := to.DisponibleNet()
	toDotation := to.DotationActuelle()
	newToDotation := toDotation.Add(transfer.Amount)

	transfer.ToSnapshot = &domain.LineSnapshot{
		DotationAvant:   toDotation,
		DotationApres:   newToDotation,
		DisponibleAvant: toAvail,
		DisponibleApres: toAvail.Add(transfer.Amount),
	}

	if err := uc.lineRepo.UpdateDotation(ctx, tx, to.ID, newToDotation, now); err != nil {
		return err
	}

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    to.ID,
		Type:            domain.MovementAjustement,
		Montant:         transfer.Amount,
		Sens:            domain.SensCredit,
		DisponibleAvant: toAvail,
		DisponibleApres: toAvail.Add(transfer.Amount),
		ReserveAvant:    to.MontantReserve,
		ReserveApres:    to.MontantReserve,
		Entity:          ref,
		Exercise:        transfer.Exercise,
		Motif:           transfer.Motif,
		CreatedBy:       transfer.ApprovedBy,
		CreatedAt:       now,
		Statut:          domain.MovementStatusValide,
	}
	if err := uc.movementRepo.Create(ctx, tx, movement); err != nil {
		return err
	}

	return uc.historyRepo.Create(ctx, tx, &domain.BudgetHistory{
		ID:              uc.idGen.Generate(),
		BudgetLineID:    to.ID,
		EventType:       domain.HistoryAjustement,
		Delta:           transfer.Amount,
		DotationAvant:   toDotation,
		DotationApres:   newToDotation,
		DisponibleAvant: toAvail,
		DisponibleApres: toAvail.Add(transfer.Amount),
		RefCode:         transfer.Code,
		RefID:           transfer.ID,
		Exercise:        transfer.Exercise,
		CreatedBy:       transfer.ApprovedBy,
		CreatedAt:       now,
	})
}

// GetTransfer returns a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfers returns transfers matching the filter.
func (uc *TransferUseCase) ListTransfers(ctx context.Context, filter TransferFilter) ([]*domain.CreditTransfer, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	transfers, err := uc.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if transfers == nil {
		transfers = []*domain.CreditTransfer{}
	}
	return transfers, nil
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_transition"
	default:
		return "internal"
	}
}
