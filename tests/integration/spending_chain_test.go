package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/adapter/repository/postgres"
	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
	"github.com/iho/budgetledger/tests/testutil"
)

type spendingDeps struct {
	lineRepo      *postgres.BudgetLineRepository
	movementRepo  *postgres.MovementRepository
	reservationUC *usecase.ReservationUseCase
	engagementUC  *usecase.EngagementUseCase
}

func newSpendingDeps(testDB *testutil.TestDB) spendingDeps {
	pool := testDB.Pool
	lineRepo := postgres.NewBudgetLineRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	outboxRepo := postgres.NewNullOutboxRepository()

	return spendingDeps{
		lineRepo:      lineRepo,
		movementRepo:  movementRepo,
		reservationUC: usecase.NewReservationUseCase(txManager, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, nil),
		engagementUC:  usecase.NewEngagementUseCase(txManager, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, nil),
	}
}

func TestSpendingChain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	deps := newSpendingDeps(testDB)

	t.Run("full chain from reservation to paiement", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-01", "fournitures", decimal.NewFromInt(1000))
		dossier := domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()}

		if _, err := deps.reservationUC.CreateReservation(ctx, usecase.ReservationInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(300),
			Entity:       dossier,
			Motif:        "commande papeterie",
		}); err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}

		got, _ := deps.lineRepo.GetByID(ctx, line.ID)
		if !got.MontantReserve.Equal(decimal.NewFromInt(300)) {
			t.Fatalf("expected reserve 300, got %s", got.MontantReserve)
		}
		if !got.DisponibleNet().Equal(decimal.NewFromInt(700)) {
			t.Fatalf("expected disponible_net 700, got %s", got.DisponibleNet())
		}

		// Converting the reservation releases the hold and books the charge
		// in one transaction.
		engagement := domain.EntityRef{Kind: domain.EntityEngagement, ID: testutil.GenerateID()}
		if _, err := deps.engagementUC.RecordEngagement(ctx, usecase.EngagementInput{
			BudgetLineID:   line.ID,
			Exercise:       2025,
			Amount:         decimal.NewFromInt(300),
			ReservedAmount: decimal.NewFromInt(300),
			Entity:         engagement,
			Motif:          "bon de commande papeterie",
		}); err != nil {
			t.Fatalf("failed to engage: %v", err)
		}

		got, _ = deps.lineRepo.GetByID(ctx, line.ID)
		if !got.MontantReserve.IsZero() {
			t.Errorf("expected reserve released, got %s", got.MontantReserve)
		}
		if !got.TotalEngage.Equal(decimal.NewFromInt(300)) {
			t.Errorf("expected total_engage 300, got %s", got.TotalEngage)
		}
		if !got.DisponibleNet().Equal(decimal.NewFromInt(700)) {
			t.Errorf("expected disponible_net unchanged at 700, got %s", got.DisponibleNet())
		}

		if _, err := deps.engagementUC.RecordLiquidation(ctx, usecase.ChainInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(300),
			Entity:       domain.EntityRef{Kind: domain.EntityLiquidation, ID: testutil.GenerateID()},
			Motif:        "service fait",
		}); err != nil {
			t.Fatalf("failed to liquidate: %v", err)
		}

		if _, err := deps.engagementUC.RecordOrdonnancement(ctx, usecase.ChainInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(300),
			Entity:       domain.EntityRef{Kind: domain.EntityOrdonnancement, ID: testutil.GenerateID()},
			Motif:        "ordre de payer",
		}); err != nil {
			t.Fatalf("failed to order payment: %v", err)
		}

		// Journal-only stages leave cached totals alone.
		got, _ = deps.lineRepo.GetByID(ctx, line.ID)
		if !got.TotalEngage.Equal(decimal.NewFromInt(300)) || !got.TotalPaye.IsZero() {
			t.Errorf("expected engage 300 / paye 0 before paiement, got %s / %s", got.TotalEngage, got.TotalPaye)
		}

		if _, err := deps.engagementUC.RecordPaiement(ctx, usecase.ChainInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(300),
			Entity:       domain.EntityRef{Kind: domain.EntityReglement, ID: testutil.GenerateID()},
			Motif:        "reglement fournisseur",
		}); err != nil {
			t.Fatalf("failed to pay: %v", err)
		}

		got, _ = deps.lineRepo.GetByID(ctx, line.ID)
		if !got.TotalPaye.Equal(decimal.NewFromInt(300)) {
			t.Errorf("expected total_paye 300, got %s", got.TotalPaye)
		}

		movements, err := deps.movementRepo.ListByLine(ctx, line.ID, 2025, 50, 0)
		if err != nil {
			t.Fatalf("failed to list movements: %v", err)
		}
		// reservation, liberation, engagement, liquidation, ordonnancement, paiement
		if len(movements) != 6 {
			t.Errorf("expected 6 journal entries, got %d", len(movements))
		}
	})

	t.Run("release returns held funds", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-02", "fournitures", decimal.NewFromInt(500))
		dossier := domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()}

		if _, err := deps.reservationUC.CreateReservation(ctx, usecase.ReservationInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(200),
			Entity:       dossier,
			Motif:        "commande annulable",
		}); err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}

		if _, err := deps.reservationUC.ReleaseReservation(ctx, usecase.ReservationInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(200),
			Entity:       dossier,
			Motif:        "commande annulee",
		}); err != nil {
			t.Fatalf("failed to release: %v", err)
		}

		got, _ := deps.lineRepo.GetByID(ctx, line.ID)
		if !got.MontantReserve.IsZero() {
			t.Errorf("expected reserve back to zero, got %s", got.MontantReserve)
		}
		if !got.DisponibleNet().Equal(decimal.NewFromInt(500)) {
			t.Errorf("expected full availability restored, got %s", got.DisponibleNet())
		}
	})

	t.Run("closed line refuses new charges", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-03", "fournitures", decimal.NewFromInt(500))
		testDB.CloseLine(ctx, line.ID)

		_, err := deps.reservationUC.CreateReservation(ctx, usecase.ReservationInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(100),
			Entity:       domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()},
			Motif:        "trop tard",
		})
		if !errors.Is(err, domain.ErrLineClosed) {
			t.Fatalf("expected line closed error, got %v", err)
		}
	})

	t.Run("actor from context lands on the journal entry", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		line := testDB.CreateTestLine(ctx, 2025, "6011-AA-04", "fournitures", decimal.NewFromInt(500))
		actorCtx := domain.ContextWithActor(ctx, domain.Actor{ID: "alice", Role: "gestionnaire"})

		movement, err := deps.reservationUC.CreateReservation(actorCtx, usecase.ReservationInput{
			BudgetLineID: line.ID,
			Exercise:     2025,
			Amount:       decimal.NewFromInt(100),
			Entity:       domain.EntityRef{Kind: domain.EntityDossier, ID: testutil.GenerateID()},
			Motif:        "commande tracee",
		})
		if err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}
		if movement.CreatedBy != "alice" {
			t.Errorf("expected created_by alice, got %s", movement.CreatedBy)
		}
	})
}
