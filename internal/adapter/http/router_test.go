package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/splitledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/splitledger/internal/adapter/http/middleware"
	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/auth"
	"github.com/iho/splitledger/internal/usecase"
	"github.com/iho/splitledger/internal/usecase/fakes"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router, _ := newTestRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_APIRequiresAuthentication(t *testing.T) {
	router, _ := newTestRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/grp-1/balances/", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestNewRouter_AuthenticatedBalanceRequest(t *testing.T) {
	router, jwtManager := newTestRouter()

	token, err := jwtManager.Generate("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/grp-1/balances/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a member, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router, _ := newTestRouter(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	})

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router, jwtManager := newTestRouter(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	})

	token, err := jwtManager.Generate("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{"from_user_id":"bob","to_user_id":"alice","amount":"10.00","currency":"EUR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/groups/grp-1/settlements/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router, _ := newTestRouter()

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/groups/{groupID}/expenses/",
		"GET /api/v1/groups/{groupID}/expenses/",
		"GET /api/v1/groups/{groupID}/expenses/{expenseID}",
		"PATCH /api/v1/groups/{groupID}/expenses/{expenseID}",
		"DELETE /api/v1/groups/{groupID}/expenses/{expenseID}",
		"POST /api/v1/groups/{groupID}/expenses/{expenseID}/settle",
		"GET /api/v1/groups/{groupID}/balances/",
		"POST /api/v1/groups/{groupID}/balances/recalculate",
		"POST /api/v1/groups/{groupID}/settlements/",
		"GET /api/v1/groups/{groupID}/settlements/",
		"GET /api/v1/groups/{groupID}/members/{userID}/balance",
		"GET /api/v1/groups/{groupID}/members/{userID}/settlements",
		"GET /api/v1/groups/{groupID}/members/{userID}/summary",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newTestRouter(opts ...func(*RouterConfig)) (http.Handler, *auth.JWTManager) {
	groupRepo := fakes.NewMockGroupRepository()
	expenseRepo := fakes.NewMockExpenseRepository()
	shareRepo := fakes.NewMockShareRepository(expenseRepo)
	balanceRepo := fakes.NewMockBalanceRepository()
	settlementRepo := fakes.NewMockSettlementRepository()
	txMgr := fakes.NewMockTransactionManager()
	idGen := fakes.NewMockIDGenerator()
	locks := usecase.NewGroupLocks()

	groupRepo.AddGroup(&domain.Group{ID: "grp-1", Name: "Trip", DefaultCurrency: "EUR", CreatedAt: time.Now().UTC()})
	groupRepo.AddMember("grp-1", "alice", domain.RoleAdmin)
	groupRepo.AddMember("grp-1", "bob", domain.RoleMember)

	balanceUC := usecase.NewBalanceUseCase(txMgr, groupRepo, shareRepo, balanceRepo, locks, nil, nil, nil)
	expenseUC := usecase.NewExpenseUseCase(txMgr, groupRepo, expenseRepo, shareRepo, idGen, balanceUC, nil)
	settlementUC := usecase.NewSettlementUseCase(txMgr, groupRepo, expenseRepo, shareRepo, balanceRepo, settlementRepo, idGen, locks, balanceUC, nil, nil)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	cfg := RouterConfig{
		ExpenseHandler:    handler.NewExpenseHandler(expenseUC),
		BalanceHandler:    handler.NewBalanceHandler(balanceUC),
		SettlementHandler: handler.NewSettlementHandler(settlementUC),
		HealthHandler:     &handler.HealthHandler{},
		JWTManager:        jwtManager,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return NewRouter(cfg), jwtManager
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
