package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"edupanel/internal/config"
	"edupanel/internal/handlers"
)

func TestServerRoutes(t *testing.T) {
	cfg := &config.AppConfig{Environment: "test", HTTP: config.HTTPConfig{Host: "127.0.0.1", Port: 0}}
	srv := NewHTTPServer(cfg, zerolog.Nop(), handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Services{}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected prometheus output, got %d", rec.Code)
	}
}
