package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/budgetledger/internal/usecase"
	"github.com/iho/budgetledger/internal/usecase/mocks"
)

func TestAvailabilityUseCase_GetAvailability(t *testing.T) {
	lineRepo := mocks.NewMockBudgetLineRepository()
	seedLine(lineRepo, "line-1", 1_000_000, 500_000, 300_000)
	uc := usecase.NewAvailabilityUseCase(lineRepo, nil)

	t.Run("derives the three balances", func(t *testing.T) {
		avail, err := uc.GetAvailability(context.Background(), "line-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail.DotationActuelle.Equal(decimal.NewFromInt(1_000_000)) {
			t.Errorf("dotation = %s", avail.DotationActuelle)
		}
		if !avail.DisponibleBrut.Equal(decimal.NewFromInt(500_000)) {
			t.Errorf("brut = %s, want 500000", avail.DisponibleBrut)
		}
		if !avail.DisponibleNet.Equal(decimal.NewFromInt(200_000)) {
			t.Errorf("net = %s, want 200000", avail.DisponibleNet)
		}
	})

	t.Run("unknown line yields a zeroed view", func(t *testing.T) {
		avail, err := uc.GetAvailability(context.Background(), "nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !avail.DisponibleNet.IsZero() || !avail.DotationActuelle.IsZero() {
			t.Errorf("expected zeroed availability, got %+v", avail)
		}
	})
}

func TestAvailabilityUseCase_GetSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lineRepo := mocks.NewMockBudgetLineRepository()
	seedLine(lineRepo, "line-1", 1_000_000, 400_000, 100_000)
	seedLine(lineRepo, "line-2", 500_000, 500_000, 0)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "summary:2025").Return("", nil)
	cache.EXPECT().Set(gomock.Any(), "summary:2025", gomock.Any(), usecase.SummaryCacheTTL).Return(nil)

	uc := usecase.NewAvailabilityUseCase(lineRepo, cache)
	summary, err := uc.GetSummary(context.Background(), 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.LineCount != 2 {
		t.Errorf("line count = %d, want 2", summary.LineCount)
	}
	if !summary.TotalDotationActuelle.Equal(decimal.NewFromInt(1_500_000)) {
		t.Errorf("dotation = %s, want 1500000", summary.TotalDotationActuelle)
	}
	if !summary.TotalEngage.Equal(decimal.NewFromInt(900_000)) {
		t.Errorf("engage = %s, want 900000", summary.TotalEngage)
	}
	if !summary.TotalDisponible.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("disponible = %s, want 500000", summary.TotalDisponible)
	}
	// 900000 engaged against 1500000: 60%.
	if !summary.TauxEngagement.Equal(decimal.NewFromInt(60)) {
		t.Errorf("taux = %s, want 60", summary.TauxEngagement)
	}
	if summary.OvercommittedCount != 0 {
		t.Errorf("overcommitted = %d, want 0", summary.OvercommittedCount)
	}
}

func TestAvailabilityUseCase_InvalidateSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Delete(gomock.Any(), "summary:2025").Return(nil)

	uc := usecase.NewAvailabilityUseCase(mocks.NewMockBudgetLineRepository(), cache)
	uc.InvalidateSummary(context.Background(), 2025)
}
