package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/budgetledger/internal/adapter/http/dto"
	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

// BudgetLineService defines the line operations needed by BudgetLineHandler.
type BudgetLineService interface {
	CreateBudgetLine(ctx context.Context, input usecase.CreateBudgetLineInput) (*domain.BudgetLine, error)
	GetBudgetLine(ctx context.Context, id string) (*domain.BudgetLine, error)
	ListBudgetLines(ctx context.Context, input usecase.ListBudgetLinesInput) ([]*domain.BudgetLine, error)
}

// AvailabilityService defines the availability read needed by BudgetLineHandler.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, lineID string) (domain.Availability, error)
}

// JournalService defines the journal reads needed by BudgetLineHandler.
type JournalService interface {
	ListMovements(ctx context.Context, lineID string, exercise, limit, offset int) ([]*domain.Movement, error)
	ListHistory(ctx context.Context, lineID string, limit, offset int) ([]*domain.BudgetHistory, error)
}

// BudgetLineHandler handles budget line HTTP requests.
type BudgetLineHandler struct {
	lineUC         BudgetLineService
	availabilityUC AvailabilityService
	historyUC      JournalService
}

// NewBudgetLineHandler creates a new BudgetLineHandler.
func NewBudgetLineHandler(
	lineUC BudgetLineService,
	availabilityUC AvailabilityService,
	historyUC JournalService,
) *BudgetLineHandler {
	return &BudgetLineHandler{
		lineUC:         lineUC,
		availabilityUC: availabilityUC,
		historyUC:      historyUC,
	}
}

// Create opens a new budget line.
func (h *BudgetLineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBudgetLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	line, err := h.lineUC.CreateBudgetLine(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create budget line", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.BudgetLineFromDomain(line))
}

// Get retrieves a budget line by ID.
func (h *BudgetLineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	line, err := h.lineUC.GetBudgetLine(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get budget line", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetLineFromDomain(line))
}

// List lists the budget lines of an exercise.
func (h *BudgetLineHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.lineUC.ListBudgetLines(r.Context(), usecase.ListBudgetLinesInput{
		Exercise: parseIntQuery(r, "exercise", 0),
		Limit:    parseIntQuery(r, "limit", 50),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list budget lines", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetLinesFromDomain(lines))
}

// Availability returns the availability view of a line.
func (h *BudgetLineHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	availability, err := h.availabilityUC.GetAvailability(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute availability", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AvailabilityFromDomain(availability))
}

// Movements lists the journal movements of a line.
func (h *BudgetLineHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	movements, err := h.historyUC.ListMovements(r.Context(), id,
		parseIntQuery(r, "exercise", 0),
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list movements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementsFromDomain(movements))
}

// History lists the budget history rows of a line.
func (h *BudgetLineHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	rows, err := h.historyUC.ListHistory(r.Context(), id,
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoriesFromDomain(rows))
}
