package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/internal/infrastructure/config"
	"github.com/veropos/terminal-bridge/internal/infrastructure/observability"
	customMW "github.com/veropos/terminal-bridge/internal/middleware"
	"github.com/veropos/terminal-bridge/internal/settings"
)

type RouterDeps struct {
	Service    PaymentService
	Journal    JournalReader
	Settings   settings.Store
	Metrics    *observability.Metrics
	CORSConfig config.CORSConfig
	Logger     zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	// The payment read timeout is 120s; give the handler room on top.
	r.Use(chimw.Timeout(150 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Settings)
	terminalH := NewTerminalController(deps.Service, deps.Journal, deps.Logger)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/payments", terminalH.ProcessPayment)
		r.Post("/batch-close", terminalH.CloseBatch)
		r.Get("/terminal/health", terminalH.TestConnection)
		r.Post("/terminal/callback", terminalH.Callback)
		r.Get("/operations", terminalH.RecentOperations)
	})

	return r
}
