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

// SpendingHandler handles reservations and the spending chain of a line.
type SpendingHandler struct {
	reservationUC *usecase.ReservationUseCase
	engagementUC  *usecase.EngagementUseCase
}

// NewSpendingHandler creates a new SpendingHandler.
func NewSpendingHandler(reservationUC *usecase.ReservationUseCase, engagementUC *usecase.EngagementUseCase) *SpendingHandler {
	return &SpendingHandler{
		reservationUC: reservationUC,
		engagementUC:  engagementUC,
	}
}

// CreateReservation places a hold on a line.
func (h *SpendingHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	h.runReservation(w, r, h.reservationUC.CreateReservation, "failed to create reservation")
}

// ReleaseReservation lifts a hold, floored at the current reserve.
func (h *SpendingHandler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	h.runReservation(w, r, h.reservationUC.ReleaseReservation, "failed to release reservation")
}

func (h *SpendingHandler) runReservation(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, input usecase.ReservationInput) (*domain.Movement, error),
	failMsg string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	var req dto.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := op(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), failMsg, err.Error())
		return
	}
	if movement == nil {
		// Release against an empty reserve is a no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// RecordEngagement turns a reservation or free credit into a firm charge.
func (h *SpendingHandler) RecordEngagement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	var req dto.EngagementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := h.engagementUC.RecordEngagement(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record engagement", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// CancelEngagement restores engaged credits, floored at the current total.
func (h *SpendingHandler) CancelEngagement(w http.ResponseWriter, r *http.Request) {
	h.runChain(w, r, h.engagementUC.CancelEngagement, "failed to cancel engagement")
}

// RecordLiquidation journals a liquidation. Balances are untouched.
func (h *SpendingHandler) RecordLiquidation(w http.ResponseWriter, r *http.Request) {
	h.runChain(w, r, h.engagementUC.RecordLiquidation, "failed to record liquidation")
}

// RecordOrdonnancement journals an ordonnancement. Balances are untouched.
func (h *SpendingHandler) RecordOrdonnancement(w http.ResponseWriter, r *http.Request) {
	h.runChain(w, r, h.engagementUC.RecordOrdonnancement, "failed to record ordonnancement")
}

// RecordPaiement advances the paid total of a line.
func (h *SpendingHandler) RecordPaiement(w http.ResponseWriter, r *http.Request) {
	h.runChain(w, r, h.engagementUC.RecordPaiement, "failed to record paiement")
}

func (h *SpendingHandler) runChain(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, input usecase.ChainInput) (*domain.Movement, error),
	failMsg string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing budget line ID", "")
		return
	}

	var req dto.ChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := op(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeError(w, mapDomainError(err), failMsg, err.Error())
		return
	}
	if movement == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}
