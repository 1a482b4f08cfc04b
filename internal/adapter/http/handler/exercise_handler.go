package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/budgetledger/internal/usecase"
)

// ExerciseHandler handles exercise-level aggregate requests.
type ExerciseHandler struct {
	availabilityUC   *usecase.AvailabilityUseCase
	reconciliationUC *usecase.ReconciliationUseCase
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(availabilityUC *usecase.AvailabilityUseCase, reconciliationUC *usecase.ReconciliationUseCase) *ExerciseHandler {
	return &ExerciseHandler{
		availabilityUC:   availabilityUC,
		reconciliationUC: reconciliationUC,
	}
}

// Summary aggregates all lines of an exercise.
func (h *ExerciseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	exercise, err := strconv.Atoi(chi.URLParam(r, "exercise"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exercise", err.Error())
		return
	}

	summary, err := h.availabilityUC.GetSummary(r.Context(), exercise)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Reconcile replays the journal of every line of an exercise and checks
// the conservation of credits.
func (h *ExerciseHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	exercise, err := strconv.Atoi(chi.URLParam(r, "exercise"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exercise", err.Error())
		return
	}

	report, err := h.reconciliationUC.ReconcileExercise(r.Context(), exercise)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile exercise", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ReconcileLine replays a single line's journal against its cached columns.
func (h *ExerciseHandler) ReconcileLine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	report, err := h.reconciliationUC.ReconcileLine(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}
