package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/villaridge/duespay/internal/adapter/http"
	"github.com/villaridge/duespay/internal/adapter/http/handler"
	"github.com/villaridge/duespay/internal/adapter/http/middleware"
	postgresRepo "github.com/villaridge/duespay/internal/adapter/repository/postgres"
	redisRepo "github.com/villaridge/duespay/internal/adapter/repository/redis"
	"github.com/villaridge/duespay/internal/infrastructure/config"
	"github.com/villaridge/duespay/internal/infrastructure/eventpublisher"
	"github.com/villaridge/duespay/internal/infrastructure/logger"
	"github.com/villaridge/duespay/internal/infrastructure/metrics"
	"github.com/villaridge/duespay/internal/infrastructure/postgres"
	"github.com/villaridge/duespay/internal/infrastructure/redis"
	"github.com/villaridge/duespay/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zlog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = zlog

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Metrics registry
	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	billRepo := postgresRepo.NewBillRepository(pool)
	creditRepo := postgresRepo.NewCreditRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	previewCache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(m)

	// Initialize use cases
	paymentUC := usecase.NewPaymentUseCase(
		txManager, billRepo, creditRepo, txnRepo, outboxRepo, auditRepo,
		idGen, idempotencyStore, previewCache, retrier, m,
	)
	billUC := usecase.NewBillUseCase(billRepo)
	creditUC := usecase.NewCreditUseCase(txManager, creditRepo, outboxRepo, auditRepo, idGen, m)
	ledgerUC := usecase.NewLedgerUseCase(billRepo, creditRepo, m)
	importUC := usecase.NewImportUseCase(paymentUC, txManager, auditRepo, idGen, zlog, m)

	// Initialize handlers
	paymentHandler := handler.NewPaymentHandler(paymentUC)
	billHandler := handler.NewBillHandler(billUC)
	creditHandler := handler.NewCreditHandler(creditUC)
	transactionHandler := handler.NewTransactionHandler(txnRepo)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	importHandler := handler.NewImportHandler(importUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	rateLimiter := middleware.NewRateLimiter(50, 100)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PaymentHandler:     paymentHandler,
		BillHandler:        billHandler,
		CreditHandler:      creditHandler,
		TransactionHandler: transactionHandler,
		LedgerHandler:      ledgerHandler,
		ImportHandler:      importHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logger:             zlog,
	})

	// Outbox publisher worker
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	// Drop idle per-IP limiters every hour so the map does not grow
	// without bound.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-publisherCtx.Done():
				return
			case <-ticker.C:
				rateLimiter.Reset()
			}
		}
	}()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewRedisPublisher(redisClient, ""),
		Logger:     slog.Default(),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
