package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

// MockBudgetLineRepository is a mock implementation of BudgetLineRepository.
type MockBudgetLineRepository struct {
	mu    sync.RWMutex
	lines map[string]*domain.BudgetLine

	CreateFunc            func(ctx context.Context, line *domain.BudgetLine) error
	CreateTxFunc          func(ctx context.Context, tx usecase.Transaction, line *domain.BudgetLine) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.BudgetLine, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.BudgetLine, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.BudgetLine, error)
	UpdateReserveFunc     func(ctx context.Context, tx usecase.Transaction, id string, montantReserve decimal.Decimal, updatedAt time.Time) error
	UpdateEngageFunc      func(ctx context.Context, tx usecase.Transaction, id string, totalEngage, montantReserve decimal.Decimal, updatedAt time.Time) error
	UpdatePayeFunc        func(ctx context.Context, tx usecase.Transaction, id string, totalPaye decimal.Decimal, updatedAt time.Time) error
	UpdateDotationFunc    func(ctx context.Context, tx usecase.Transaction, id string, dotationModifiee decimal.Decimal, updatedAt time.Time) error
	ListByExerciseFunc    func(ctx context.Context, exercise, limit, offset int) ([]*domain.BudgetLine, error)
}

func NewMockBudgetLineRepository() *MockBudgetLineRepository {
	return &MockBudgetLineRepository{
		lines: make(map[string]*domain.BudgetLine),
	}
}

// Seed stores a line directly, bypassing the Create hooks.
func (m *MockBudgetLineRepository) Seed(line *domain.BudgetLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = line
}

func (m *MockBudgetLineRepository) Create(ctx context.Context, line *domain.BudgetLine) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, line)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = line
	return nil
}

func (m *MockBudgetLineRepository) CreateTx(ctx context.Context, tx usecase.Transaction, line *domain.BudgetLine) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, line)
	}
	return m.Create(ctx, line)
}

func (m *MockBudgetLineRepository) GetByID(ctx context.Context, id string) (*domain.BudgetLine, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if line, ok := m.lines[id]; ok {
		cp := *line
		return &cp, nil
	}
	return nil, domain.ErrLineNotFound
}

func (m *MockBudgetLineRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BudgetLine, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockBudgetLineRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.BudgetLine, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var lines []*domain.BudgetLine
	for _, id := range ids {
		if line, ok := m.lines[id]; ok {
			cp := *line
			lines = append(lines, &cp)
		}
	}
	return lines, nil
}

func (m *MockBudgetLineRepository) UpdateReserve(ctx context.Context, tx usecase.Transaction, id string, montantReserve decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateReserveFunc != nil {
		return m.UpdateReserveFunc(ctx, tx, id, montantReserve, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[id]; ok {
		line.MontantReserve = montantReserve
		line.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockBudgetLineRepository) UpdateEngage(ctx context.Context, tx usecase.Transaction, id string, totalEngage, montantReserve decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateEngageFunc != nil {
		return m.UpdateEngageFunc(ctx, tx, id, totalEngage, montantReserve, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[id]; ok {
		line.TotalEngage = totalEngage
		line.MontantReserve = montantReserve
		line.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockBudgetLineRepository) UpdatePaye(ctx context.Context, tx usecase.Transaction, id string, totalPaye decimal.Decimal, updatedAt time.Time) error {
	if m.UpdatePayeFunc != nil {
		return m.UpdatePayeFunc(ctx, tx, id, totalPaye, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[id]; ok {
		line.TotalPaye = totalPaye
		line.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockBudgetLineRepository) UpdateDotation(ctx context.Context, tx usecase.Transaction, id string, dotationModifiee decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateDotationFunc != nil {
		return m.UpdateDotationFunc(ctx, tx, id, dotationModifiee, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if line, ok := m.lines[id]; ok {
		d := dotationModifiee
		line.DotationModifiee = &d
		line.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockBudgetLineRepository) ListByExercise(ctx context.Context, exercise, limit, offset int) ([]*domain.BudgetLine, error) {
	if m.ListByExerciseFunc != nil {
		return m.ListByExerciseFunc(ctx, exercise, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var lines []*domain.BudgetLine
	for _, line := range m.lines {
		if line.Exercise == exercise {
			cp := *line
			lines = append(lines, &cp)
		}
	}
	if offset >= len(lines) {
		return nil, nil
	}
	lines = lines[offset:]
	if len(lines) > limit {
		lines = lines[:limit]
	}
	return lines, nil
}

// MockMovementRepository is a mock implementation of MovementRepository.
type MockMovementRepository struct {
	mu        sync.RWMutex
	movements []*domain.Movement

	CreateFunc func(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error
}

func NewMockMovementRepository() *MockMovementRepository {
	return &MockMovementRepository{}
}

func (m *MockMovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, movement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, movement)
	return nil
}

func (m *MockMovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mv := range m.movements {
		if mv.ID == id {
			return mv, nil
		}
	}
	return nil, domain.ErrMovementNotFound
}

func (m *MockMovementRepository) ListByLine(ctx context.Context, lineID string, exercise, limit, offset int) ([]*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Movement
	for _, mv := range m.movements {
		if mv.BudgetLineID == lineID && (exercise == 0 || mv.Exercise == exercise) {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *MockMovementRepository) ListValidByLine(ctx context.Context, lineID string) ([]*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Movement
	for _, mv := range m.movements {
		if mv.BudgetLineID == lineID && mv.Statut == domain.MovementStatusValide {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *MockMovementRepository) ListByEntity(ctx context.Context, entity domain.EntityRef, limit, offset int) ([]*domain.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Movement
	for _, mv := range m.movements {
		if mv.Entity == entity {
			out = append(out, mv)
		}
	}
	return out, nil
}

// All returns every stored movement, for assertions.
func (m *MockMovementRepository) All() []*domain.Movement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Movement, len(m.movements))
	copy(out, m.movements)
	return out
}

// MockTransferRepository is a mock implementation of TransferRepository.
type MockTransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]*domain.CreditTransfer

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, transfer *domain.CreditTransfer) error
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.CreditTransfer, error)
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make(map[string]*domain.CreditTransfer),
	}
}

func (m *MockTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.CreditTransfer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *transfer
	m.transfers[transfer.ID] = &cp
	return nil
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transfers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTransferNotFound
}

func (m *MockTransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CreditTransfer, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTransferRepository) Update(ctx context.Context, tx usecase.Transaction, transfer *domain.CreditTransfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transfers[transfer.ID]; !ok {
		return domain.ErrTransferNotFound
	}
	cp := *transfer
	m.transfers[transfer.ID] = &cp
	return nil
}

func (m *MockTransferRepository) List(ctx context.Context, filter usecase.TransferFilter) ([]*domain.CreditTransfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CreditTransfer
	for _, t := range m.transfers {
		if filter.Exercise != 0 && t.Exercise != filter.Exercise {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.LineID != "" && t.ToBudgetLineID != filter.LineID &&
			(t.FromBudgetLineID == nil || *t.FromBudgetLineID != filter.LineID) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTransferRepository) SumExecutedByLine(ctx context.Context, lineID string) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, out := decimal.Zero, decimal.Zero
	for _, t := range m.transfers {
		if t.Status != domain.TransferExecute || t.Type != domain.TransferVirement {
			continue
		}
		if t.ToBudgetLineID == lineID {
			in = in.Add(t.Amount)
		}
		if t.FromBudgetLineID != nil && *t.FromBudgetLineID == lineID {
			out = out.Add(t.Amount)
		}
	}
	return in, out, nil
}

func (m *MockTransferRepository) SumExecutedByExercise(ctx context.Context, exercise int) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	virements, ajustements := decimal.Zero, decimal.Zero
	for _, t := range m.transfers {
		if t.Status != domain.TransferExecute || t.Exercise != exercise {
			continue
		}
		switch t.Type {
		case domain.TransferVirement:
			virements = virements.Add(t.Amount)
		case domain.TransferAjustement:
			ajustements = ajustements.Add(t.Amount)
		}
	}
	return virements, ajustements, nil
}

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mu   sync.RWMutex
	rows []*domain.BudgetHistory

	CreateFunc func(ctx context.Context, tx usecase.Transaction, row *domain.BudgetHistory) error
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

func (m *MockHistoryRepository) Create(ctx context.Context, tx usecase.Transaction, row *domain.BudgetHistory) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, row)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return nil
}

func (m *MockHistoryRepository) ListByLine(ctx context.Context, lineID string, limit, offset int) ([]*domain.BudgetHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.BudgetHistory
	for _, r := range m.rows {
		if r.BudgetLineID == lineID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockHistoryRepository) ListByRef(ctx context.Context, refID string) ([]*domain.BudgetHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.BudgetHistory
	for _, r := range m.rows {
		if r.RefID == refID {
			out = append(out, r)
		}
	}
	return out, nil
}

// All returns every stored history row, for assertions.
func (m *MockHistoryRepository) All() []*domain.BudgetHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.BudgetHistory, len(m.rows))
	copy(out, m.rows)
	return out
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// All returns every stored event, for assertions.
func (m *MockOutboxRepository) All() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockTransactionManager is a mock implementation of TransactionManager.
// With Serialize set, Begin blocks until the previous transaction commits
// or rolls back, which mimics row-lock serialization for concurrency tests.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	Serialize bool
	mu        sync.Mutex
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if !m.Serialize {
		return &MockTransaction{}, nil
	}
	m.mu.Lock()
	tx := &MockTransaction{}
	var once sync.Once
	release := func(context.Context) error {
		once.Do(m.mu.Unlock)
		return nil
	}
	tx.CommitFunc = release
	tx.RollbackFunc = release
	return tx, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockCodeGenerator is a mock implementation of CodeGenerator.
type MockCodeGenerator struct {
	NextFunc func(ctx context.Context, tx usecase.Transaction, exercise int, transferType domain.TransferType) (string, error)
	mu       sync.Mutex
	seq      map[string]int
}

func NewMockCodeGenerator() *MockCodeGenerator {
	return &MockCodeGenerator{seq: make(map[string]int)}
}

func (m *MockCodeGenerator) Next(ctx context.Context, tx usecase.Transaction, exercise int, transferType domain.TransferType) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tx, exercise, transferType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := "VIR"
	if transferType == domain.TransferAjustement {
		prefix = "AJT"
	}
	key := fmt.Sprintf("%s:%d", prefix, exercise)
	m.seq[key]++
	return fmt.Sprintf("%s/%d/%04d", prefix, exercise, m.seq[key]), nil
}

// MockRetrier is a pass-through Retrier.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
