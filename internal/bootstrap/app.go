package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/internal/infrastructure/config"
	"github.com/veropos/terminal-bridge/internal/infrastructure/observability"
	"github.com/veropos/terminal-bridge/internal/journal"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Journal *journal.Journal
}

func New(ctx context.Context, serviceName, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	metrics := observability.NewMetrics(metricsNamespace, nil)
	logger.Info().Msg("Metrics initialized")

	opJournal, err := journal.Open(cfg.Journal.Path, cfg.Journal.TTL, logger)
	if err != nil {
		return nil, fmt.Errorf("open operation journal: %w", err)
	}
	logger.Info().Str("path", cfg.Journal.Path).Msg("Operation journal opened")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Journal: opJournal,
	}, nil
}

func (a *App) Close() {
	a.Journal.Close()
}
