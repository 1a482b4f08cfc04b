package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/adapter/repository/postgres"
	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/infrastructure/eventpublisher"
	"github.com/iho/budgetledger/internal/usecase"
	"github.com/iho/budgetledger/tests/testutil"
)

func TestOutboxEventCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	lineRepo := postgres.NewBudgetLineRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	codeGen := postgres.NewCodeGenerator()
	retrier := postgres.NewRetrier(zerolog.Nop())

	transferUC := usecase.NewTransferUseCase(txManager, transferRepo, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, codeGen, retrier, nil)

	from := testDB.CreateTestLine(ctx, 2025, "6011-AA-01", "fournitures", decimal.NewFromInt(1000))
	to := testDB.CreateTestLine(ctx, 2025, "6012-BB-01", "carburant", decimal.NewFromInt(0))

	transfer, err := transferUC.CreateTransfer(ctx, usecase.CreateTransferInput{
		Exercise:         2025,
		Type:             domain.TransferVirement,
		FromBudgetLineID: &from.ID,
		ToBudgetLineID:   to.ID,
		Amount:           decimal.NewFromInt(100),
		Motif:            "virement observe",
	})
	if err != nil {
		t.Fatalf("failed to create transfer: %v", err)
	}

	events, err := outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get unpublished events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least one unpublished event")
	}

	var created *domain.OutboxEvent
	for _, event := range events {
		if event.EventType == domain.EventTypeTransferCreated && event.AggregateID == transfer.ID {
			created = event
			break
		}
	}
	if created == nil {
		t.Fatal("transfer created event not found in outbox")
	}

	if created.AggregateType != domain.AggregateTypeTransfer {
		t.Errorf("expected aggregate type %s, got %s", domain.AggregateTypeTransfer, created.AggregateType)
	}
	if created.Published {
		t.Error("event should not be published yet")
	}
	if created.Payload == nil {
		t.Fatal("event payload is nil")
	}
	if created.Payload["transfer_id"] != transfer.ID {
		t.Errorf("payload transfer_id mismatch: expected %s, got %v", transfer.ID, created.Payload["transfer_id"])
	}
	if created.Payload["code"] != transfer.Code {
		t.Errorf("payload code mismatch: expected %s, got %v", transfer.Code, created.Payload["code"])
	}
}

func TestEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	lineRepo := postgres.NewBudgetLineRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()

	reservationUC := usecase.NewReservationUseCase(txManager, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, nil)

	line := testDB.CreateTestLine(ctx, 2025, "6011-AA-02", "fournitures", decimal.NewFromInt(1000))

	if _, err := reservationUC.CreateReservation(ctx, usecase.ReservationInput{
		BudgetLineID: line.ID,
		Exercise:     2025,
		Amount:       decimal.NewFromInt(100),
		Entity:       domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()},
		Motif:        "reservation observee",
	}); err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	capture := &capturePublisher{}
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  capture,
		BatchSize:  10,
	})

	publisherCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	go publisher.Start(publisherCtx)

	time.Sleep(100 * time.Millisecond)

	published := capture.All()
	if len(published) == 0 {
		t.Fatal("no events were published")
	}

	unpublished, err := outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get unpublished events: %v", err)
	}
	if len(unpublished) > 0 {
		t.Errorf("expected 0 unpublished events after publishing, got %d", len(unpublished))
	}
}

type capturePublisher struct {
	mu        sync.Mutex
	published []*domain.OutboxEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *capturePublisher) All() []*domain.OutboxEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.OutboxEvent{}, p.published...)
}
