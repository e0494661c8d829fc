package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/veropos/terminal-bridge/internal/bootstrap"
	"github.com/veropos/terminal-bridge/internal/controller"
	"github.com/veropos/terminal-bridge/internal/driver"
	"github.com/veropos/terminal-bridge/internal/host"
	"github.com/veropos/terminal-bridge/internal/service"
	"github.com/veropos/terminal-bridge/internal/settings"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "terminal-bridge", "terminal_bridge")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Host integration ---
	hostCfg := app.Config.Host
	launcher := host.NewExecLauncher(hostCfg.AppPath, hostCfg.CallbackURL, app.Logger)

	var restorer host.ForegroundRestorer = host.NopRestorer{}
	if hostCfg.ForegroundURL != "" {
		restorer = host.NewHTTPForegroundNotifier(
			hostCfg.ForegroundURL, hostCfg.NotifyRetries, hostCfg.NotifyDelay, app.Logger,
		)
	}

	// --- Orchestrator ---
	store := settings.NewConfigStore(app.Config)
	factory := driver.NewFactory(app.Logger)
	orchestrator := service.NewOrchestrator(
		store, factory, launcher, restorer, app.Journal, app.Metrics, app.Logger,
	)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Service:    orchestrator,
		Journal:    app.Journal,
		Settings:   store,
		Metrics:    app.Metrics,
		CORSConfig: app.Config.Server.CORS,
		Logger:     app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
		case <-gctx.Done():
		}

		app.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	app.Logger.Info().Msg("Server exited")
}
