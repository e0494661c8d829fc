package controller

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
	"github.com/veropos/terminal-bridge/internal/infrastructure/config"
	"github.com/veropos/terminal-bridge/internal/infrastructure/observability"
	"github.com/veropos/terminal-bridge/internal/settings"
)

func newTestRouter(t *testing.T, svc *stubService) http.Handler {
	t.Helper()
	store := settings.NewMemoryStore(config.TerminalConfig{Provider: "bac", Mode: "http", BaseURL: "http://terminal.local"})
	return NewRouter(RouterDeps{
		Service:  svc,
		Journal:  &stubJournal{},
		Settings: store,
		Metrics:  observability.NewMetrics("test", prometheus.NewRegistry()),
		CORSConfig: config.CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Logger: zerolog.Nop(),
	})
}

func TestRouter_Routes(t *testing.T) {
	svc := &stubService{paymentResult: terminal.PaymentResult{Success: true}}
	router := newTestRouter(t, svc)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/v1/payments", `{"amount_minor_units": 100}`, http.StatusOK},
		{http.MethodPost, "/api/v1/batch-close", "", http.StatusOK},
		{http.MethodGet, "/api/v1/terminal/health", "", http.StatusOK},
		{http.MethodPost, "/api/v1/terminal/callback", `{"request_id":"terminal.payment","status":"OK"}`, http.StatusAccepted},
		{http.MethodGet, "/api/v1/operations", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
		if tt.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
