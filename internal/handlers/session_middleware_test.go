package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jardindethes/storefront-api/internal/platform/observability"
	"github.com/jardindethes/storefront-api/internal/platform/requestctx"
)

func TestRequireSessionEnrichesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := observability.InjectLoggerMiddleware(logger)(
		RequireSession(DefaultSessionHeader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestctx.Logger(r.Context()).Info("session event")
			w.WriteHeader(http.StatusNoContent)
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(DefaultSessionHeader, "s1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	entries := logs.FilterMessage("session event").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["session_id"] != "s1" {
		t.Errorf("session_id field = %v, want s1", fields["session_id"])
	}
}

func TestRequireSessionRejectsMissingHeader(t *testing.T) {
	handler := RequireSession("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
