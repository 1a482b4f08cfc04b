package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
)

// AvailabilityUseCase derives available balances from committed line state.
// It never writes; safe to call repeatedly.
type AvailabilityUseCase struct {
	lineRepo BudgetLineRepository
	cache    Cache
}

// NewAvailabilityUseCase creates a new AvailabilityUseCase. cache may be nil.
func NewAvailabilityUseCase(lineRepo BudgetLineRepository, cache Cache) *AvailabilityUseCase {
	return &AvailabilityUseCase{lineRepo: lineRepo, cache: cache}
}

// GetAvailability returns the derived balance view of a line. A missing
// line yields a zeroed view, not an error.
func (uc *AvailabilityUseCase) GetAvailability(ctx context.Context, lineID string) (domain.Availability, error) {
	line, err := uc.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, domain.ErrLineNotFound) {
			return domain.Availability{LineID: lineID}, nil
		}
		return domain.Availability{}, err
	}

	return domain.AvailabilityOf(line), nil
}

// ExerciseSummary aggregates the lines of one exercise.
type ExerciseSummary struct {
	Exercise              int             `json:"exercise"`
	TotalDotationInitiale decimal.Decimal `json:"total_dotation_initiale"`
	TotalDotationActuelle decimal.Decimal `json:"total_dotation_actuelle"`
	TotalEngage           decimal.Decimal `json:"total_engage"`
	TotalReserve          decimal.Decimal `json:"total_reserve"`
	TotalDisponible       decimal.Decimal `json:"total_disponible"`
	TauxEngagement        decimal.Decimal `json:"taux_engagement"`
	LineCount             int             `json:"line_count"`
	OvercommittedCount    int             `json:"overcommitted_count"`
}

// GetSummary aggregates all lines of an exercise. The result is advisory
// and may be served from a short-lived cache; committed reads always go
// through GetAvailability.
func (uc *AvailabilityUseCase) GetSummary(ctx context.Context, exercise int) (*ExerciseSummary, error) {
	cacheKey := fmt.Sprintf("summary:%d", exercise)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var summary ExerciseSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary := &ExerciseSummary{
		Exercise:              exercise,
		TotalDotationInitiale: decimal.Zero,
		TotalDotationActuelle: decimal.Zero,
		TotalEngage:           decimal.Zero,
		TotalReserve:          decimal.Zero,
		TotalDisponible:       decimal.Zero,
		TauxEngagement:        decimal.Zero,
	}

	const pageSize = 1000
	for offset := 0; ; offset += pageSize {
		lines, err := uc.lineRepo.ListByExercise(ctx, exercise, pageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, line := range lines {
			summary.TotalDotationInitiale = summary.TotalDotationInitiale.Add(line.DotationInitiale)
			summary.TotalDotationActuelle = summary.TotalDotationActuelle.Add(line.DotationActuelle())
			summary.TotalEngage = summary.TotalEngage.Add(line.TotalEngage)
			summary.TotalReserve = summary.TotalReserve.Add(line.MontantReserve)
			summary.TotalDisponible = summary.TotalDisponible.Add(line.DisponibleNet())
			if line.DisponibleNet().IsNegative() {
				summary.OvercommittedCount++
			}
			summary.LineCount++
		}

		if len(lines) < pageSize {
			break
		}
	}

	if summary.TotalDotationActuelle.IsPositive() {
		summary.TauxEngagement = summary.TotalEngage.
			Div(summary.TotalDotationActuelle).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	if uc.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, string(data), SummaryCacheTTL)
		}
	}

	return summary, nil
}

// InvalidateSummary drops the cached summary after a committing operation.
func (uc *AvailabilityUseCase) InvalidateSummary(ctx context.Context, exercise int) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, fmt.Sprintf("summary:%d", exercise))
	}
}
