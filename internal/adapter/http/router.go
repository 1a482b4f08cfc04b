package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/budgetledger/internal/adapter/http/handler"
	"github.com/iho/budgetledger/internal/adapter/http/middleware"
	"github.com/iho/budgetledger/internal/infrastructure/metrics"
	"github.com/iho/budgetledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BudgetLineHandler *handler.BudgetLineHandler
	SpendingHandler   *handler.SpendingHandler
	TransferHandler   *handler.TransferHandler
	ExerciseHandler   *handler.ExerciseHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).Wrap)
		}

		// Budget lines and their spending chain
		r.Route("/budget-lines", func(r chi.Router) {
			r.Post("/", cfg.BudgetLineHandler.Create)
			r.Get("/", cfg.BudgetLineHandler.List)
			r.Get("/{id}", cfg.BudgetLineHandler.Get)
			r.Get("/{id}/availability", cfg.BudgetLineHandler.Availability)
			r.Get("/{id}/movements", cfg.BudgetLineHandler.Movements)
			r.Get("/{id}/history", cfg.BudgetLineHandler.History)
			r.Get("/{id}/reconciliation", cfg.ExerciseHandler.ReconcileLine)

			r.Post("/{id}/reservations", cfg.SpendingHandler.CreateReservation)
			r.Post("/{id}/releases", cfg.SpendingHandler.ReleaseReservation)
			r.Post("/{id}/engagements", cfg.SpendingHandler.RecordEngagement)
			r.Post("/{id}/engagements/cancel", cfg.SpendingHandler.CancelEngagement)
			r.Post("/{id}/liquidations", cfg.SpendingHandler.RecordLiquidation)
			r.Post("/{id}/ordonnancements", cfg.SpendingHandler.RecordOrdonnancement)
			r.Post("/{id}/paiements", cfg.SpendingHandler.RecordPaiement)
		})

		// Credit transfers
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Create)
			r.Get("/", cfg.TransferHandler.List)
			r.Get("/{id}", cfg.TransferHandler.Get)
			r.Patch("/{id}", cfg.TransferHandler.UpdateDraft)
			r.Post("/{id}/submit", cfg.TransferHandler.Submit)
			r.Post("/{id}/validate", cfg.TransferHandler.Validate)
			r.Post("/{id}/reject", cfg.TransferHandler.Reject)
			r.Post("/{id}/execute", cfg.TransferHandler.Execute)
			r.Post("/{id}/cancel", cfg.TransferHandler.Cancel)
		})

		// Exercise aggregates
		r.Route("/exercises", func(r chi.Router) {
			r.Get("/{exercise}/summary", cfg.ExerciseHandler.Summary)
			r.Get("/{exercise}/reconciliation", cfg.ExerciseHandler.Reconcile)
		})
	})

	return r
}
