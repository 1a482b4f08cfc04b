package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
)

// BudgetLineRepository defines data access for budget lines.
type BudgetLineRepository interface {
	Create(ctx context.Context, line *domain.BudgetLine) error
	CreateTx(ctx context.Context, tx Transaction, line *domain.BudgetLine) error
	GetByID(ctx context.Context, id string) (*domain.BudgetLine, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.BudgetLine, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.BudgetLine, error)
	UpdateReserve(ctx context.Context, tx Transaction, id string, montantReserve decimal.Decimal, updatedAt time.Time) error
	UpdateEngage(ctx context.Context, tx Transaction, id string, totalEngage, montantReserve decimal.Decimal, updatedAt time.Time) error
	UpdatePaye(ctx context.Context, tx Transaction, id string, totalPaye decimal.Decimal, updatedAt time.Time) error
	UpdateDotation(ctx context.Context, tx Transaction, id string, dotationModifiee decimal.Decimal, updatedAt time.Time) error
	ListByExercise(ctx context.Context, exercise, limit, offset int) ([]*domain.BudgetLine, error)
}

// MovementRepository defines data access for the append-only movement ledger.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.Movement) error
	GetByID(ctx context.Context, id string) (*domain.Movement, error)
	ListByLine(ctx context.Context, lineID string, exercise, limit, offset int) ([]*domain.Movement, error)
	ListValidByLine(ctx context.Context, lineID string) ([]*domain.Movement, error)
	ListByEntity(ctx context.Context, entity domain.EntityRef, limit, offset int) ([]*domain.Movement, error)
}

// TransferFilter narrows transfer listings.
type TransferFilter struct {
	Exercise int
	Status   domain.TransferStatus
	Type     domain.TransferType
	LineID   string
	Limit    int
	Offset   int
}

// TransferRepository defines data access for credit transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.CreditTransfer) error
	GetByID(ctx context.Context, id string) (*domain.CreditTransfer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.CreditTransfer, error)
	Update(ctx context.Context, tx Transaction, transfer *domain.CreditTransfer) error
	List(ctx context.Context, filter TransferFilter) ([]*domain.CreditTransfer, error)
	// SumExecutedByLine returns the executed amounts received and emitted by
	// a line, for reconciliation.
	SumExecutedByLine(ctx context.Context, lineID string) (in, out decimal.Decimal, err error)
	// SumExecutedByExercise returns net virement and ajustement totals.
	SumExecutedByExercise(ctx context.Context, exercise int) (virements, ajustements decimal.Decimal, err error)
}

// HistoryRepository defines data access for the audit-facing history log.
type HistoryRepository interface {
	Create(ctx context.Context, tx Transaction, row *domain.BudgetHistory) error
	ListByLine(ctx context.Context, lineID string, limit, offset int) ([]*domain.BudgetHistory, error)
	ListByRef(ctx context.Context, refID string) ([]*domain.BudgetHistory, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// CodeGenerator allocates exercise-scoped sequential transfer codes. The
// allocation happens inside the caller's transaction so a rolled-back create
// never burns a visible code gap larger than the database sequence would.
type CodeGenerator interface {
	Next(ctx context.Context, tx Transaction, exercise int, transferType domain.TransferType) (string, error)
}

// Retrier retries operations that failed with transient database errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations for advisory read models.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
