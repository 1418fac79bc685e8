package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iho/splitledger/internal/adapter/http/handler"
	"github.com/iho/splitledger/internal/adapter/http/middleware"
	"github.com/iho/splitledger/internal/infrastructure/auth"
	"github.com/iho/splitledger/internal/infrastructure/logging"
	"github.com/iho/splitledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ExpenseHandler    *handler.ExpenseHandler
	BalanceHandler    *handler.BalanceHandler
	SettlementHandler *handler.SettlementHandler
	HealthHandler     *handler.HealthHandler
	JWTManager        *auth.JWTManager
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
	RequestLogger     *logging.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.RequestLogger != nil {
		r.Use(middleware.NewLoggingMiddleware(cfg.RequestLogger).Wrap)
	}
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTManager))

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/groups/{groupID}", func(r chi.Router) {
			// Expenses
			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", cfg.ExpenseHandler.Create)
				r.Get("/", cfg.ExpenseHandler.List)
				r.Get("/{expenseID}", cfg.ExpenseHandler.Get)
				r.Patch("/{expenseID}", cfg.ExpenseHandler.Update)
				r.Delete("/{expenseID}", cfg.ExpenseHandler.Delete)
				r.Post("/{expenseID}/settle", cfg.SettlementHandler.SettleShares)
			})

			// Balances
			r.Route("/balances", func(r chi.Router) {
				r.Get("/", cfg.BalanceHandler.GroupBalances)
				r.Post("/recalculate", cfg.BalanceHandler.Recalculate)
			})

			// Settlements
			r.Route("/settlements", func(r chi.Router) {
				r.Post("/", cfg.SettlementHandler.Create)
				r.Get("/", cfg.SettlementHandler.ListByGroup)
			})

			// Per-member views
			r.Route("/members/{userID}", func(r chi.Router) {
				r.Get("/balance", cfg.BalanceHandler.UserBalance)
				r.Get("/settlements", cfg.SettlementHandler.ListByUser)
				r.Get("/summary", cfg.ExpenseHandler.UserSummary)
			})
		})
	})

	return r
}
