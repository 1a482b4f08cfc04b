package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/adapter/repository/postgres"
	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
	"github.com/iho/budgetledger/tests/testutil"
)

func TestConcurrentReservations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	lineRepo := postgres.NewBudgetLineRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	outboxRepo := postgres.NewNullOutboxRepository()

	reservationUC := usecase.NewReservationUseCase(txManager, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, nil)

	t.Run("100 concurrent reservations never overcommit the line", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		// Funding covers exactly 100 reservations of 10.
		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-01", "fournitures", decimal.NewFromInt(1000))

		numReservations := 100
		amount := decimal.NewFromInt(10)

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errorCount   atomic.Int32
		)

		wg.Add(numReservations)

		for i := range numReservations {
			go func(n int) {
				defer wg.Done()

				_, err := reservationUC.CreateReservation(ctx, usecase.ReservationInput{
					BudgetLineID: line.ID,
					Exercise:     2025,
					Amount:       amount,
					Entity:       domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()},
					Motif:        "charge concurrente",
				})
				if err != nil {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}(i)
		}

		wg.Wait()

		if successCount.Load() != int32(numReservations) {
			t.Errorf("expected %d successful reservations, got %d (errors: %d)",
				numReservations, successCount.Load(), errorCount.Load())
		}

		got, err := lineRepo.GetByID(ctx, line.ID)
		if err != nil {
			t.Fatalf("failed to reload line: %v", err)
		}
		if !got.MontantReserve.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected montant_reserve 1000, got %s", got.MontantReserve)
		}
		if !got.DisponibleNet().IsZero() {
			t.Errorf("expected disponible_net 0, got %s", got.DisponibleNet())
		}
	})

	t.Run("reservation beyond availability fails with shortfall", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-02", "fournitures", decimal.NewFromInt(100))

		_, err := reservationUC.CreateReservation(ctx, usecase.ReservationInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(150),
			Entity:       domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()},
			Motif:        "trop grand",
		})
		if err == nil {
			t.Fatal("expected insufficient funds error")
		}

		var insufficientErr *domain.InsufficientFundsError
		if !errors.As(err, &insufficientErr) {
			t.Fatalf("expected InsufficientFundsError, got %v", err)
		}
		if !insufficientErr.Shortfall.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected shortfall 50, got %s", insufficientErr.Shortfall)
		}
	})

	t.Run("concurrent reservations over scarce funds admit only what fits", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		// 10 goroutines compete for funding that covers 4.
		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-03", "fournitures", decimal.NewFromInt(100))

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(10)

		for range 10 {
			go func() {
				defer wg.Done()

				_, err := reservationUC.CreateReservation(ctx, usecase.ReservationInput{
					BudgetLineID: line.ID,
					Exercise:     2025,
					Amount:       decimal.NewFromInt(25),
					Entity:       domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()},
					Motif:        "course aux fonds",
				})
				if err == nil {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != 4 {
			t.Errorf("expected exactly 4 successful reservations, got %d", successCount.Load())
		}

		got, err := lineRepo.GetByID(ctx, line.ID)
		if err != nil {
			t.Fatalf("failed to reload line: %v", err)
		}
		if !got.MontantReserve.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected montant_reserve 100, got %s", got.MontantReserve)
		}
	})
}
