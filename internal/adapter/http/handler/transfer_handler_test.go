package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/budgetledger/internal/adapter/http/dto"
	"github.com/iho/budgetledger/internal/domain"
	"github.com/iho/budgetledger/internal/usecase"
)

type transferServiceStub struct {
	createFn   func(ctx context.Context, input usecase.CreateTransferInput) (*domain.CreditTransfer, error)
	getFn      func(ctx context.Context, id string) (*domain.CreditTransfer, error)
	listFn     func(ctx context.Context, filter usecase.TransferFilter) ([]*domain.CreditTransfer, error)
	updateFn   func(ctx context.Context, id string, input usecase.UpdateDraftInput) (*domain.CreditTransfer, error)
	submitFn   func(ctx context.Context, id string) (*domain.CreditTransfer, error)
	validateFn func(ctx context.Context, id string) (*domain.CreditTransfer, error)
	rejectFn   func(ctx context.Context, id, reason string) (*domain.CreditTransfer, error)
	executeFn  func(ctx context.Context, id string) (*domain.CreditTransfer, error)
	cancelFn   func(ctx context.Context, id, reason string) (*domain.CreditTransfer, error)
}

func (s *transferServiceStub) CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*domain.CreditTransfer, error) {
	return s.createFn(ctx, input)
}

func (s *transferServiceStub) GetTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return s.getFn(ctx, id)
}

func (s *transferServiceStub) ListTransfers(ctx context.Context, filter usecase.TransferFilter) ([]*domain.CreditTransfer, error) {
	return s.listFn(ctx, filter)
}

func (s *transferServiceStub) UpdateDraft(ctx context.Context, id string, input usecase.UpdateDraftInput) (*domain.CreditTransfer, error) {
	return s.updateFn(ctx, id, input)
}

func (s *transferServiceStub) SubmitTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return s.submitFn(ctx, id)
}

func (s *transferServiceStub) ValidateTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return s.validateFn(ctx, id)
}

func (s *transferServiceStub) RejectTransfer(ctx context.Context, id, reason string) (*domain.CreditTransfer, error) {
	return s.rejectFn(ctx, id, reason)
}

func (s *transferServiceStub) ExecuteTransfer(ctx context.Context, id string) (*domain.CreditTransfer, error) {
	return s.executeFn(ctx, id)
}

func (s *transferServiceStub) CancelTransfer(ctx context.Context, id, reason string) (*domain.CreditTransfer, error) {
	return s.cancelFn(ctx, id, reason)
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}

func TestTransferHandler_Create_Success(t *testing.T) {
	from := "line-a"
	transfer := &domain.CreditTransfer{
		ID:     "tr-1",
		Code:   "VIR/2025/0001",
		Status: domain.TransferBrouillon,
		Amount: decimal.NewFromInt(200000),
	}
	var captured usecase.CreateTransferInput

	h := NewTransferHandler(&transferServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransferInput) (*domain.CreditTransfer, error) {
			captured = input
			return transfer, nil
		},
	})

	body, _ := json.Marshal(dto.CreateTransferRequest{
		Exercise:         2025,
		Type:             "virement",
		FromBudgetLineID: &from,
		ToBudgetLineID:   "line-b",
		Amount:           decimal.NewFromInt(200000),
		Motif:            "renfort ligne b",
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	if captured.Type != domain.TransferVirement || captured.ToBudgetLineID != "line-b" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "VIR/2025/0001" {
		t.Fatalf("expected allocated code, got %s", resp.Code)
	}
}

func TestTransferHandler_Create_InvalidBody(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransferInput) (*domain.CreditTransfer, error) {
			t.Fatal("CreateTransfer should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString("{bad json"))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransferHandler_Create_InsufficientFunds(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransferInput) (*domain.CreditTransfer, error) {
			return nil, &domain.InsufficientFundsError{
				LineID:    "line-a",
				Requested: decimal.NewFromInt(600000),
				Available: decimal.NewFromInt(200000),
				Shortfall: decimal.NewFromInt(400000),
			}
		},
	})

	body, _ := json.Marshal(dto.CreateTransferRequest{
		Exercise:       2025,
		Type:           "ajustement",
		ToBudgetLineID: "line-b",
		Amount:         decimal.NewFromInt(600000),
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTransferHandler_Execute_InvalidTransition(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		executeFn: func(ctx context.Context, id string) (*domain.CreditTransfer, error) {
			return nil, &domain.InvalidTransitionError{
				TransferID: id,
				From:       domain.TransferBrouillon,
				Action:     "execute",
			}
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers/tr-1/execute", nil)
	req = setChiURLParam(req, "id", "tr-1")
	rec := httptest.NewRecorder()

	h.Execute(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestTransferHandler_Reject_PassesReason(t *testing.T) {
	var gotID, gotReason string

	h := NewTransferHandler(&transferServiceStub{
		rejectFn: func(ctx context.Context, id, reason string) (*domain.CreditTransfer, error) {
			gotID, gotReason = id, reason
			return &domain.CreditTransfer{ID: id, Status: domain.TransferRejete}, nil
		},
	})

	body, _ := json.Marshal(dto.ReasonRequest{Reason: "budget non justifie"})
	req := httptest.NewRequest(http.MethodPost, "/transfers/tr-1/reject", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "tr-1")
	rec := httptest.NewRecorder()

	h.Reject(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "tr-1" || gotReason != "budget non justifie" {
		t.Fatalf("expected reason to propagate, got id=%s reason=%q", gotID, gotReason)
	}
}

func TestTransferHandler_List_Filters(t *testing.T) {
	var captured usecase.TransferFilter

	h := NewTransferHandler(&transferServiceStub{
		listFn: func(ctx context.Context, filter usecase.TransferFilter) ([]*domain.CreditTransfer, error) {
			captured = filter
			return []*domain.CreditTransfer{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transfers?exercise=2025&status=valide&type=virement&limit=10", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Exercise != 2025 || captured.Status != domain.TransferValide || captured.Limit != 10 {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}

func TestTransferHandler_Get_NotFound(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.CreditTransfer, error) {
			return nil, domain.ErrTransferNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transfers/missing", nil)
	req = setChiURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
