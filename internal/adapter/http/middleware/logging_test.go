package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/splitledger/internal/infrastructure/logging"
)

func TestLoggingMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	lg := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	wrapped := NewLoggingMiddleware(lg).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups/grp-1/balances", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-42"))

	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, "request completed") {
		t.Fatalf("expected completion log line, got %q", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("expected recorded status in log line, got %q", out)
	}
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("expected request id in log line, got %q", out)
	}
}

func TestLoggingMiddlewareDefaultsStatusOK(t *testing.T) {
	var buf bytes.Buffer
	lg := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	wrapped := NewLoggingMiddleware(lg).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("expected implicit 200 in log line, got %q", buf.String())
	}
}
