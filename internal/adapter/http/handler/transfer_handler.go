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

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.CreditTransfer, error)
	GetTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error)
	ListTransfers(ctx context.Context, filter usecase.TransferFilter) ([]*domain.CreditTransfer, error)
	UpdateDraft(ctx context.Context, id string, input usecase.UpdateDraftInput) (*domain.CreditTransfer, error)
	SubmitTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error)
	ValidateTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error)
	RejectTransfer(ctx context.Context, id, reason string) (*domain.CreditTransfer, error)
	ExecuteTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error)
	CancelTransfer(ctx context.Context, id, reason string) (*domain.CreditTransfer, error)
}

// TransferHandler handles credit transfer HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Create opens a new transfer draft.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transfer, err := h.transferUC.CreateTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// List lists transfers matching the query filters.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	transfers, err := h.transferUC.ListTransfers(r.Context(), usecase.TransferFilter{
		Exercise: parseIntQuery(r, "exercise", 0),
		Status:   domain.TransferStatus(q.Get("status")),
		Type:     domain.TransferType(q.Get("type")),
		LineID:   q.Get("line_id"),
		Limit:    parseIntQuery(r, "limit", 50),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}

// UpdateDraft amends a transfer still in brouillon.
func (h *TransferHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	var req dto.UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transfer, err := h.transferUC.UpdateDraft(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update draft", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// Submit moves a draft to soumis.
func (h *TransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.transferUC.SubmitTransfer, "failed to submit transfer")
}

// Validate approves a submitted transfer.
func (h *TransferHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.transferUC.ValidateTransfer, "failed to validate transfer")
}

// Execute applies an approved transfer to the lines.
func (h *TransferHandler) Execute(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.transferUC.ExecuteTransfer, "failed to execute transfer")
}

// Reject refuses a submitted transfer. The reason is mandatory.
func (h *TransferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.reasoned(w, r, h.transferUC.RejectTransfer, "failed to reject transfer")
}

// Cancel abandons an approved transfer. The reason is mandatory.
func (h *TransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.reasoned(w, r, h.transferUC.CancelTransfer, "failed to cancel transfer")
}

func (h *TransferHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (*domain.CreditTransfer, error),
	failMsg string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := op(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), failMsg, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

func (h *TransferHandler) reasoned(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id, reason string) (*domain.CreditTransfer, error),
	failMsg string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	var req dto.ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transfer, err := op(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), failMsg, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}
