package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/budgetledger/internal/adapter/http"
	"github.com/iho/budgetledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/budgetledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/budgetledger/internal/adapter/repository/redis"
	"github.com/iho/budgetledger/internal/infrastructure/config"
	"github.com/iho/budgetledger/internal/infrastructure/eventpublisher"
	"github.com/iho/budgetledger/internal/infrastructure/logger"
	"github.com/iho/budgetledger/internal/infrastructure/metrics"
	"github.com/iho/budgetledger/internal/infrastructure/postgres"
	"github.com/iho/budgetledger/internal/infrastructure/redis"
	"github.com/iho/budgetledger/internal/usecase"
)

func main() {
	// Optional .env overlay for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	ctx := context.Background()

	// Run migrations before opening the pool
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, path); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	lineRepo := postgresRepo.NewBudgetLineRepository(pool)
	movementRepo := postgresRepo.NewMovementRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	historyRepo := postgresRepo.NewHistoryRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	codeGen := postgresRepo.NewCodeGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient, m)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Use cases
	lineUC := usecase.NewBudgetLineUseCase(txManager, lineRepo, historyRepo, outboxRepo, idGen)
	availabilityUC := usecase.NewAvailabilityUseCase(lineRepo, cache)
	historyUC := usecase.NewHistoryUseCase(movementRepo, historyRepo)
	reservationUC := usecase.NewReservationUseCase(txManager, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, m)
	engagementUC := usecase.NewEngagementUseCase(txManager, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, m)
	transferUC := usecase.NewTransferUseCase(txManager, transferRepo, lineRepo, movementRepo, historyRepo, outboxRepo, idGen, codeGen, retrier, m)
	reconciliationUC := usecase.NewReconciliationUseCase(lineRepo, movementRepo, transferRepo, m)

	// Handlers
	budgetLineHandler := handler.NewBudgetLineHandler(lineUC, availabilityUC, historyUC)
	spendingHandler := handler.NewSpendingHandler(reservationUC, engagementUC)
	transferHandler := handler.NewTransferHandler(transferUC)
	exerciseHandler := handler.NewExerciseHandler(availabilityUC, reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BudgetLineHandler: budgetLineHandler,
		SpendingHandler:   spendingHandler,
		TransferHandler:   transferHandler,
		ExerciseHandler:   exerciseHandler,
		HealthHandler:     healthHandler,
		IdempotencyStore:  idempotencyStore,
		Metrics:           m,
		Logger:            appLogger,
	})

	// Outbox publisher drains events written by the engine transactions
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(nil),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
