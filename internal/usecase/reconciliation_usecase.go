package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/infrastructure/metrics"
)

// LineReport is the outcome of replaying one line's ledger against its
// cached columns.
type LineReport struct {
	LineID            string                   `json:"line_id"`
	Consistent        bool                     `json:"consistent"`
	CachedDotation    decimal.Decimal          `json:"cached_dotation"`
	ReplayDotation    decimal.Decimal          `json:"replay_dotation"`
	CachedEngage      decimal.Decimal          `json:"cached_engage"`
	ReplayEngage      decimal.Decimal          `json:"replay_engage"`
	CachedReserve     decimal.Decimal          `json:"cached_reserve"`
	ReplayReserve     decimal.Decimal          `json:"replay_reserve"`
	CachedPaye        decimal.Decimal          `json:"cached_paye"`
	ReplayPaye        decimal.Decimal          `json:"replay_paye"`
	MovementsReplayed int                      `json:"movements_replayed"`
	Violations        []*domain.IntegrityError `json:"violations,omitempty"`
}

// ExerciseReport is the outcome of the exercise-wide conservation check.
type ExerciseReport struct {
	Exercise          int             `json:"exercise"`
	LinesChecked      int             `json:"lines_checked"`
	DotationDelta     decimal.Decimal `json:"dotation_delta"`
	AjustementsTotal  decimal.Decimal `json:"ajustements_total"`
	VirementsTotal    decimal.Decimal `json:"virements_total"`
	Conserved         bool            `json:"conserved"`
	InconsistentLines []string        `json:"inconsistent_lines,omitempty"`
}

// ReconciliationUseCase replays the movement ledger against the cached line
// columns. The cached columns are authoritative for operations; the replay
// is the audit that proves they have not drifted.
type ReconciliationUseCase struct {
	lineRepo     BudgetLineRepository
	movementRepo MovementRepository
	transferRepo TransferRepository
	metrics      *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	lineRepo BudgetLineRepository,
	movementRepo MovementRepository,
	transferRepo TransferRepository,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		lineRepo:     lineRepo,
		movementRepo: movementRepo,
		transferRepo: transferRepo,
		metrics:      metrics,
	}
}

// ReconcileLine replays every valid movement of a line and compares the
// result with the cached columns field by field.
func (uc *ReconciliationUseCase) ReconcileLine(ctx context.Context, lineID string) (*LineReport, error) {
	line, err := uc.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		return nil, err
	}

	movements, err := uc.movementRepo.ListValidByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	dotation := line.DotationInitiale
	engage := decimal.Zero
	reserve := decimal.Zero
	paye := decimal.Zero

	for _, m := range movements {
		switch m.Type {
		case domain.MovementReservation:
			reserve = reserve.Add(m.Montant)
		case domain.MovementLiberationReservation:
			reserve = reserve.Sub(m.Montant)
		case domain.MovementEngagement:
			engage = engage.Add(m.Montant)
		case domain.MovementAnnulationEngagement:
			engage = engage.Sub(m.Montant)
		case domain.MovementPaiement:
			paye = paye.Add(m.Montant)
		case domain.MovementVirementEntrant, domain.MovementVirementSortant,
			domain.MovementAjustement, domain.MovementClotureExercice:
			dotation = dotation.Add(m.Signed())
		}
	}

	report := &LineReport{
		LineID:            line.ID,
		CachedDotation:    line.DotationActuelle(),
		ReplayDotation:    dotation,
		CachedEngage:      line.TotalEngage,
		ReplayEngage:      engage,
		CachedReserve:     line.MontantReserve,
		ReplayReserve:     reserve,
		CachedPaye:        line.TotalPaye,
		ReplayPaye:        paye,
		MovementsReplayed: len(movements),
	}

	check := func(field string, cached, replayed decimal.Decimal) {
		if !cached.Equal(replayed) {
			report.Violations = append(report.Violations, &domain.IntegrityError{
				LineID: line.ID,
				Field:  field,
				Cached: cached,
				Replay: replayed,
			})
		}
	}
	check("dotation_actuelle", line.DotationActuelle(), dotation)
	check("total_engage", line.TotalEngage, engage)
	check("montant_reserve", line.MontantReserve, reserve)
	check("total_paye", line.TotalPaye, paye)

	report.Consistent = len(report.Violations) == 0

	if uc.metrics != nil {
		result := "ok"
		if !report.Consistent {
			result = "violation"
			uc.metrics.IntegrityViolations.Add(float64(len(report.Violations)))
		}
		uc.metrics.ReconciliationRuns.WithLabelValues(result).Inc()
	}

	return report, nil
}

// ReconcileExercise checks conservation across a whole exercise: executed
// virements move credits around but never create them, so the sum of
// dotation deltas must equal the sum of executed ajustements.
func (uc *ReconciliationUseCase) ReconcileExercise(ctx context.Context, exercise int) (*ExerciseReport, error) {
	if err := domain.ValidateExercise(exercise); err != nil {
		return nil, err
	}

	virements, ajustements, err := uc.transferRepo.SumExecutedByExercise(ctx, exercise)
	if err != nil {
		return nil, err
	}

	report := &ExerciseReport{
		Exercise:         exercise,
		VirementsTotal:   virements,
		AjustementsTotal: ajustements,
		DotationDelta:    decimal.Zero,
	}

	const pageSize = 1000
	for offset := 0; ; offset += pageSize {
		lines, err := uc.lineRepo.ListByExercise(ctx, exercise, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			report.LinesChecked++
			report.DotationDelta = report.DotationDelta.Add(line.DotationActuelle().Sub(line.DotationInitiale))

			lineReport, err := uc.ReconcileLine(ctx, line.ID)
			if err != nil {
				return nil, err
			}
			if !lineReport.Consistent {
				report.InconsistentLines = append(report.InconsistentLines, line.ID)
			}
		}
		if len(lines) < pageSize {
			break
		}
	}

	report.Conserved = report.DotationDelta.Equal(report.AjustementsTotal) && len(report.InconsistentLines) == 0

	if uc.metrics != nil {
		result := "ok"
		if !report.Conserved {
			result = "violation"
		}
		uc.metrics.ReconciliationRuns.WithLabelValues(result).Inc()
	}

	return report, nil
}
