package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/villaridge/duespay/internal/adapter/http/handler"
	"github.com/villaridge/duespay/internal/adapter/http/middleware"
	"github.com/villaridge/duespay/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PaymentHandler     *handler.PaymentHandler
	BillHandler        *handler.BillHandler
	CreditHandler      *handler.CreditHandler
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	ImportHandler      *handler.ImportHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)
	r.Use(middleware.Identity)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/units/{unitID}", func(r chi.Router) {
			r.Get("/bills", cfg.BillHandler.ListOutstanding)
			r.Get("/credit", cfg.CreditHandler.Get)
			r.Get("/transactions", cfg.TransactionHandler.ListByUnit)

			// Payment.Record carries its own idempotency key through the
			// use case, so no response-caching middleware here.
			r.Post("/payments/preview", cfg.PaymentHandler.Preview)
			r.Post("/payments", cfg.PaymentHandler.Record)

			r.Group(func(r chi.Router) {
				if cfg.IdempotencyStore != nil {
					r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).Wrap)
				}

				r.Post("/credit/starting-balance", cfg.CreditHandler.SeedStartingBalance)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/{id}", cfg.TransactionHandler.Get)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.CheckAll)
			r.Get("/consistency/{unitID}", cfg.LedgerHandler.CheckUnit)
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", cfg.ImportHandler.Run)
			r.Get("/{batchID}", cfg.ImportHandler.Progress)
		})
	})

	return r
}
