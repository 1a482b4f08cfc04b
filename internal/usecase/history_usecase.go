package usecase

import (
	"context"

	"github.com/iho/budgetledger/internal/domain"
)

// HistoryUseCase serves read access to the movement ledger and the
// audit-facing history log.
type HistoryUseCase struct {
	movementRepo MovementRepository
	historyRepo  HistoryRepository
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(movementRepo MovementRepository, historyRepo HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{
		movementRepo: movementRepo,
		historyRepo:  historyRepo,
	}
}

// GetMovement returns one ledger record by ID.
func (uc *HistoryUseCase) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	return uc.movementRepo.GetByID(ctx, id)
}

// ListMovements returns a line's ledger, newest first. An unknown line
// yields an empty slice, not an error; reads never fail on absence.
func (uc *HistoryUseCase) ListMovements(ctx context.Context, lineID string, exercise, limit, offset int) ([]*domain.Movement, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	movements, err := uc.movementRepo.ListByLine(ctx, lineID, exercise, limit, offset)
	if err != nil {
		return nil, err
	}
	if movements == nil {
		movements = []*domain.Movement{}
	}
	return movements, nil
}

// ListMovementsByEntity returns the ledger records originated by one
// spending-chain document.
func (uc *HistoryUseCase) ListMovementsByEntity(ctx context.Context, entity domain.EntityRef, limit, offset int) ([]*domain.Movement, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	movements, err := uc.movementRepo.ListByEntity(ctx, entity, limit, offset)
	if err != nil {
		return nil, err
	}
	if movements == nil {
		movements = []*domain.Movement{}
	}
	return movements, nil
}

// ListHistory returns a line's audit history, newest first.
func (uc *HistoryUseCase) ListHistory(ctx context.Context, lineID string, limit, offset int) ([]*domain.BudgetHistory, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	rows, err := uc.historyRepo.ListByLine(ctx, lineID, limit, offset)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*domain.BudgetHistory{}
	}
	return rows, nil
}

// ListHistoryByRef returns every history row referencing one source
// document, across lines. A transfer shows both sides here.
func (uc *HistoryUseCase) ListHistoryByRef(ctx context.Context, refID string) ([]*domain.BudgetHistory, error) {
	rows, err := uc.historyRepo.ListByRef(ctx, refID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*domain.BudgetHistory{}
	}
	return rows, nil
}
