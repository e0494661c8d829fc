package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	domainErrors "github.com/veropos/terminal-bridge/internal/domain/errors"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
	"github.com/veropos/terminal-bridge/internal/driver"
	"github.com/veropos/terminal-bridge/internal/host"
	"github.com/veropos/terminal-bridge/internal/infrastructure/config"
	"github.com/veropos/terminal-bridge/internal/infrastructure/observability"
	"github.com/veropos/terminal-bridge/internal/journal"
	"github.com/veropos/terminal-bridge/internal/settings"
	"github.com/veropos/terminal-bridge/internal/transport"
)

// OperationJournal records operation outcomes. Journal writes are best
// effort: a failed write is logged and never affects the result.
type OperationJournal interface {
	Record(e journal.Entry) error
}

// Orchestrator is the public face of the terminal integration: it reads
// the active settings, picks driver and transport, executes the
// operation and performs the post-operation side effects.
type Orchestrator struct {
	settings settings.Store
	factory  *driver.Factory
	launcher transport.AppLauncher
	restorer host.ForegroundRestorer
	journal  OperationJournal
	metrics  *observability.Metrics
	logger   zerolog.Logger

	mu sync.Mutex
	// bridged keeps the pending-operation table alive across calls;
	// one instance per device session, rebuilt when the provider
	// changes.
	bridged         *transport.BridgedTransport
	bridgedProvider terminal.Provider
	breakers        map[terminal.Provider]*gobreaker.CircuitBreaker[terminal.PaymentResult]
}

func NewOrchestrator(
	store settings.Store,
	factory *driver.Factory,
	launcher transport.AppLauncher,
	restorer host.ForegroundRestorer,
	opJournal OperationJournal,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Orchestrator {
	if restorer == nil {
		restorer = host.NopRestorer{}
	}
	return &Orchestrator{
		settings: store,
		factory:  factory,
		launcher: launcher,
		restorer: restorer,
		journal:  opJournal,
		metrics:  metrics,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
		breakers: make(map[terminal.Provider]*gobreaker.CircuitBreaker[terminal.PaymentResult]),
	}
}

// ProcessPayment charges the terminal. Expected failures (declines,
// unreachable terminal, cancelled operation) come back as a
// failure-shaped PaymentResult with a nil error; the error return is
// used for invalid requests and configuration problems only.
func (o *Orchestrator) ProcessPayment(ctx context.Context, req terminal.PaymentRequest) (terminal.PaymentResult, error) {
	if err := req.Validate(); err != nil {
		return terminal.PaymentResult{}, err
	}

	cfg, err := o.settings.Terminal()
	if err != nil {
		return terminal.PaymentResult{}, fmt.Errorf("load terminal settings: %w", err)
	}

	drv := o.factory.CreateDriver(terminal.Provider(cfg.Provider))
	tr, err := o.transportFor(cfg, drv)
	if err != nil {
		return terminal.PaymentResult{}, err
	}

	start := time.Now()
	result, opErr := o.executePayment(ctx, tr, drv.Provider(), cfg, req.AmountMinorUnits)
	if opErr != nil {
		result = o.paymentFailure(opErr)
	}
	o.observe(terminal.KindPayment, drv.Provider(), cfg, result.Success, time.Since(start))

	o.record(journal.Entry{
		Kind:             terminal.KindPayment,
		Provider:         drv.Provider(),
		Transport:        terminal.TransportMode(cfg.Mode),
		Success:          result.Success,
		ResponseCode:     result.ResponseCode,
		Authorization:    result.AuthorizationCode,
		AmountMinorUnits: req.AmountMinorUnits,
		ErrorMessage:     result.ErrorMessage,
	})

	o.afterBridged(cfg)

	o.logger.Info().
		Str("provider", string(drv.Provider())).
		Str("mode", cfg.Mode).
		Int64("amount_minor_units", req.AmountMinorUnits).
		Bool("success", result.Success).
		Str("response_code", result.ResponseCode).
		Msg("payment processed")

	return result, nil
}

// CloseBatch runs the end-of-day settlement on the terminal.
func (o *Orchestrator) CloseBatch(ctx context.Context) (terminal.CloseResult, error) {
	cfg, err := o.settings.Terminal()
	if err != nil {
		return terminal.CloseResult{}, fmt.Errorf("load terminal settings: %w", err)
	}

	drv := o.factory.CreateDriver(terminal.Provider(cfg.Provider))
	tr, err := o.transportFor(cfg, drv)
	if err != nil {
		return terminal.CloseResult{}, err
	}

	start := time.Now()
	result, opErr := tr.CloseBatch(ctx)
	if opErr != nil {
		result = o.closeFailure(opErr)
	}
	o.observe(terminal.KindClose, drv.Provider(), cfg, result.Success, time.Since(start))

	o.record(journal.Entry{
		Kind:         terminal.KindClose,
		Provider:     drv.Provider(),
		Transport:    terminal.TransportMode(cfg.Mode),
		Success:      result.Success,
		BatchNumber:  result.BatchNumber,
		ErrorMessage: result.ErrorMessage,
	})

	o.afterBridged(cfg)

	o.logger.Info().
		Str("provider", string(drv.Provider())).
		Bool("success", result.Success).
		Str("batch", result.BatchNumber).
		Msg("batch close processed")

	return result, nil
}

// TestConnection probes the configured terminal. A nil error means the
// device (or the co-resident app) is reachable.
func (o *Orchestrator) TestConnection(ctx context.Context) error {
	cfg, err := o.settings.Terminal()
	if err != nil {
		return fmt.Errorf("load terminal settings: %w", err)
	}

	drv := o.factory.CreateDriver(terminal.Provider(cfg.Provider))
	tr, err := o.transportFor(cfg, drv)
	if err != nil {
		return err
	}

	return tr.TestConnection(ctx)
}

// DeliverCallback hands a host-pushed terminal result to the bridged
// transport. Callbacks arriving while no bridged session exists are
// logged and dropped.
func (o *Orchestrator) DeliverCallback(cb transport.CallbackResult) {
	o.mu.Lock()
	bridged := o.bridged
	o.mu.Unlock()

	if bridged == nil {
		o.logger.Warn().
			Str("request_id", cb.RequestID).
			Msg("dropping callback: no bridged transport active")
		if o.metrics != nil {
			o.metrics.CallbackAnomalies.WithLabelValues("no_session").Inc()
		}
		return
	}
	bridged.DeliverCallback(cb)
}

func (o *Orchestrator) executePayment(
	ctx context.Context,
	tr transport.TerminalTransport,
	provider terminal.Provider,
	cfg config.TerminalConfig,
	amountMinorUnits int64,
) (terminal.PaymentResult, error) {
	// Only networked terminals go through the breaker: a bridged call
	// involves a cardholder interaction and must never be short
	// circuited.
	if terminal.TransportMode(cfg.Mode) != terminal.ModeHTTP {
		return tr.ProcessPayment(ctx, amountMinorUnits)
	}

	breaker := o.breakerFor(provider)
	return breaker.Execute(func() (terminal.PaymentResult, error) {
		return tr.ProcessPayment(ctx, amountMinorUnits)
	})
}

func (o *Orchestrator) transportFor(cfg config.TerminalConfig, drv driver.TerminalDriver) (transport.TerminalTransport, error) {
	switch terminal.TransportMode(cfg.Mode) {
	case terminal.ModeHTTP:
		if cfg.BaseURL == "" {
			return nil, domainErrors.ErrTerminalURLMissing
		}
		timeouts := transport.HTTPTimeouts{
			Connect: cfg.ConnectTimeout,
			Read:    cfg.ReadTimeout,
			Write:   cfg.WriteTimeout,
			Probe:   cfg.ProbeTimeout,
		}
		return transport.NewHTTPTransport(drv, cfg.BaseURL, timeouts, o.logger), nil

	case terminal.ModeBridged:
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.bridged == nil || o.bridgedProvider != drv.Provider() {
			o.bridged = transport.NewBridgedTransport(
				drv, o.launcher, cfg.CurrencyCode, cfg.ShowMessages, o.logger, o.metrics,
			)
			o.bridgedProvider = drv.Provider()
		}
		return o.bridged, nil

	default:
		return nil, fmt.Errorf("%w: %q", domainErrors.ErrUnsupportedTransport, cfg.Mode)
	}
}

func (o *Orchestrator) breakerFor(provider terminal.Provider) *gobreaker.CircuitBreaker[terminal.PaymentResult] {
	o.mu.Lock()
	defer o.mu.Unlock()

	if breaker, ok := o.breakers[provider]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[terminal.PaymentResult](gobreaker.Settings{
		Name:        string(provider),
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("terminal circuit breaker state change")
			if o.metrics != nil {
				o.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	o.breakers[provider] = breaker
	return breaker
}

func (o *Orchestrator) paymentFailure(err error) terminal.PaymentResult {
	return terminal.FailedPayment(o.failureMessage(err))
}

func (o *Orchestrator) closeFailure(err error) terminal.CloseResult {
	return terminal.FailedClose(o.failureMessage(err))
}

func (o *Orchestrator) failureMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "operacion cancelada"
	case errors.Is(err, domainErrors.ErrAppLaunchFailed):
		return "no se pudo iniciar la aplicacion del terminal"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "terminal temporalmente no disponible"
	default:
		return "no se pudo contactar el terminal"
	}
}

// afterBridged brings the host UI back to the foreground after a
// bridged interaction; launching the terminal app backgrounded it.
// Fire-and-forget: a failed restore never masks the payment result.
func (o *Orchestrator) afterBridged(cfg config.TerminalConfig) {
	if terminal.TransportMode(cfg.Mode) != terminal.ModeBridged {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status := "ok"
		if err := o.restorer.Restore(ctx); err != nil {
			status = "error"
			o.logger.Warn().Err(err).Msg("foreground restore failed")
		}
		if o.metrics != nil {
			o.metrics.ForegroundRestores.WithLabelValues(status).Inc()
		}
	}()
}

func (o *Orchestrator) observe(kind terminal.OperationKind, provider terminal.Provider, cfg config.TerminalConfig, success bool, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	status := "failure"
	if success {
		status = "success"
	}
	o.metrics.TerminalOperations.WithLabelValues(string(kind), string(provider), cfg.Mode, status).Inc()
	o.metrics.TerminalOperationSeconds.WithLabelValues(string(kind), cfg.Mode).Observe(elapsed.Seconds())
}

func (o *Orchestrator) record(e journal.Entry) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(e); err != nil {
		o.logger.Warn().Err(err).Msg("journal write failed")
	}
}
