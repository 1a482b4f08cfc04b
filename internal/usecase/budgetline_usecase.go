package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
)

// BudgetLineUseCase handles budget line lifecycle and reads.
type BudgetLineUseCase struct {
	txManager   TransactionManager
	lineRepo    BudgetLineRepository
	historyRepo HistoryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
}

// NewBudgetLineUseCase creates a new BudgetLineUseCase.
func NewBudgetLineUseCase(
	txManager TransactionManager,
	lineRepo BudgetLineRepository,
	historyRepo HistoryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *BudgetLineUseCase {
	return &BudgetLineUseCase{
		txManager:   txManager,
		lineRepo:    lineRepo,
		historyRepo: historyRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// CreateBudgetLineInput represents input for creating a budget line.
type CreateBudgetLineInput struct {
	Exercise         int
	Code             string
	Label            string
	DotationInitiale decimal.Decimal
}

// CreateBudgetLine opens a line for an exercise. When the line carries
// initial funding an import_initial history row is written in the same
// transaction.
func (uc *BudgetLineUseCase) CreateBudgetLine(ctx context.Context, input CreateBudgetLineInput) (*domain.BudgetLine, error) {
	if err := domain.ValidateExercise(input.Exercise); err != nil {
		return nil, err
	}
	if err := domain.ValidateLineCode(input.Code); err != nil {
		return nil, err
	}
	if input.DotationInitiale.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	line := &domain.BudgetLine{
		ID:               uc.idGen.Generate(),
		Exercise:         input.Exercise,
		Code:             input.Code,
		Label:            input.Label,
		DotationInitiale: input.DotationInitiale,
		TotalEngage:      decimal.Zero,
		MontantReserve:   decimal.Zero,
		TotalPaye:        decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.lineRepo.CreateTx(txCtx, tx, line); err != nil {
		return nil, err
	}

	if input.DotationInitiale.IsPositive() {
		row := &domain.BudgetHistory{
			ID:              uc.idGen.Generate(),
			BudgetLineID:    line.ID,
			EventType:       domain.HistoryImportInitial,
			Delta:           input.DotationInitiale,
			DotationAvant:   decimal.Zero,
			DotationApres:   input.DotationInitiale,
			DisponibleAvant: decimal.Zero,
			DisponibleApres: input.DotationInitiale,
			Exercise:        input.Exercise,
			CreatedBy:       domain.ActorID(ctx),
			CreatedAt:       now,
		}
		if err := uc.historyRepo.Create(txCtx, tx, row); err != nil {
			return nil, err
		}
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   line.ID,
		AggregateType: domain.AggregateTypeBudgetLine,
		EventType:     domain.EventTypeLineCreated,
		Payload: map[string]any{
			"budget_line_id": line.ID,
			"exercise":       line.Exercise,
			"code":           line.Code,
			"dotation":       line.DotationInitiale.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return line, nil
}

// GetBudgetLine retrieves a line by ID.
func (uc *BudgetLineUseCase) GetBudgetLine(ctx context.Context, id string) (*domain.BudgetLine, error) {
	return uc.lineRepo.GetByID(ctx, id)
}

// ListBudgetLinesInput represents input for listing lines of an exercise.
type ListBudgetLinesInput struct {
	Exercise int
	Limit    int
	Offset   int
}

// ListBudgetLines lists the lines of an exercise.
func (uc *BudgetLineUseCase) ListBudgetLines(ctx context.Context, input ListBudgetLinesInput) ([]*domain.BudgetLine, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.lineRepo.ListByExercise(ctx, input.Exercise, limit, offset)
}
