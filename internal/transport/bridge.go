package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	domainErrors "github.com/veropos/terminal-bridge/internal/domain/errors"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
	"github.com/veropos/terminal-bridge/internal/driver"
	"github.com/veropos/terminal-bridge/internal/infrastructure/observability"
)

// Request identifiers the co-resident app echoes back so callbacks can
// be routed to the operation that launched them.
const (
	RequestIDPayment = "terminal.payment"
	RequestIDClose   = "terminal.close"
)

const cancelledByUser = "operacion cancelada por el usuario"

// LaunchRequest is the argument tuple handed to the co-resident
// terminal application. Credentials are placeholder empty strings; the
// app holds its own merchant credentials.
type LaunchRequest struct {
	Username     string
	Password     string
	Amount       int64 // already in the provider's expected granularity
	Tip          int64
	Tax          int64
	Email        string
	CurrencyCode string
	ShowMessages bool
}

// AppLauncher starts the co-resident terminal application. Launching
// is fire-and-forget: the app's result arrives later through the host
// callback, never through the launch call itself.
type AppLauncher interface {
	LaunchPayment(ctx context.Context, req LaunchRequest) error
	LaunchClose(ctx context.Context) error
	// Available reports whether the terminal application is installed
	// and launchable on this device.
	Available() bool
}

// PaymentCallbackPayload carries the named fields of a payment result
// pushed back by the host.
type PaymentCallbackPayload struct {
	ResponseCode  string `json:"RESPCODE"`
	Authorization string `json:"AUTORIZATION"`
	MaskedPAN     string `json:"PANMASKED"`
	Cardholder    string `json:"CARDHOLDER"`
	TerminalID    string `json:"TERMINALID"`
	RRN           string `json:"RRN"`
	STAN          string `json:"STAN"`
	Receipt       string `json:"RECIBO"`
	TotalAmount   int64  `json:"TOTAL_AMOUNT"`
	Ticket        string `json:"TICKET"`
}

// CloseCallbackPayload carries the batch-close result pushed back by
// the host. Total is the pipe/comma delimited multi-acquirer block.
type CloseCallbackPayload struct {
	ResponseCode string `json:"RESPCODE"`
	Total        string `json:"TOTAL"`
}

// CallbackResult is one host-delivered callback. OK mirrors the host's
// own result code; a false OK or a missing payload means the user
// cancelled or the app died before producing a result.
type CallbackResult struct {
	RequestID string
	OK        bool
	Payment   *PaymentCallbackPayload
	Close     *CloseCallbackPayload
}

type bridgeOutcome struct {
	payment *terminal.PaymentResult
	close   *terminal.CloseResult
}

// pendingOperation bridges one external-app interaction onto a waiting
// caller. done is buffered and receives exactly one outcome; fulfilled
// is guarded by the transport mutex.
type pendingOperation struct {
	id        uuid.UUID
	kind      terminal.OperationKind
	done      chan bridgeOutcome
	fulfilled bool
}

// BridgedTransport reaches a terminal whose actual I/O is performed by
// a separate application on the same device. The app is launched with
// the encoded request and its result arrives through the host's push
// callback, so this transport converts that single external
// notification into a value the caller can wait on.
//
// At most one operation of each kind is pending at a time; starting a
// new one supersedes the old, whose waiter receives a cancellation
// failure rather than being left hanging. There is no built-in wait
// timeout: if a bounded wait is required the caller passes a context
// with a deadline.
type BridgedTransport struct {
	driver   driver.TerminalDriver
	launcher AppLauncher
	currency string
	showMsgs bool
	logger   zerolog.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	pending map[terminal.OperationKind]*pendingOperation
}

func NewBridgedTransport(
	drv driver.TerminalDriver,
	launcher AppLauncher,
	currencyCode string,
	showMessages bool,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *BridgedTransport {
	return &BridgedTransport{
		driver:   drv,
		launcher: launcher,
		currency: currencyCode,
		showMsgs: showMessages,
		logger:   logger.With().Str("transport", "bridged").Logger(),
		metrics:  metrics,
		pending:  make(map[terminal.OperationKind]*pendingOperation),
	}
}

func (b *BridgedTransport) ProcessPayment(ctx context.Context, amountMinorUnits int64) (terminal.PaymentResult, error) {
	op := b.begin(terminal.KindPayment)

	launchReq := LaunchRequest{
		Amount:       b.driver.BridgedAmount(amountMinorUnits),
		CurrencyCode: b.currency,
		ShowMessages: b.showMsgs,
	}
	if err := b.launcher.LaunchPayment(ctx, launchReq); err != nil {
		// No callback will ever arrive for an operation that failed to
		// launch; drop it before anyone can wait on it.
		b.abandon(op)
		b.logger.Error().Err(err).Msg("terminal app launch failed")
		return terminal.PaymentResult{}, fmt.Errorf("%w: %v", domainErrors.ErrAppLaunchFailed, err)
	}

	select {
	case outcome := <-op.done:
		if outcome.payment == nil {
			// Routed outcome of the wrong kind is a bug in the routing
			// table, not a vendor failure.
			return terminal.FailedPayment("resultado inesperado del terminal"), nil
		}
		return *outcome.payment, nil
	case <-ctx.Done():
		b.abandon(op)
		return terminal.PaymentResult{}, ctx.Err()
	}
}

func (b *BridgedTransport) CloseBatch(ctx context.Context) (terminal.CloseResult, error) {
	op := b.begin(terminal.KindClose)

	if err := b.launcher.LaunchClose(ctx); err != nil {
		b.abandon(op)
		b.logger.Error().Err(err).Msg("terminal app launch failed for close")
		return terminal.CloseResult{}, fmt.Errorf("%w: %v", domainErrors.ErrAppLaunchFailed, err)
	}

	select {
	case outcome := <-op.done:
		if outcome.close == nil {
			return terminal.FailedClose("resultado inesperado del terminal"), nil
		}
		return *outcome.close, nil
	case <-ctx.Done():
		b.abandon(op)
		return terminal.CloseResult{}, ctx.Err()
	}
}

func (b *BridgedTransport) TestConnection(ctx context.Context) error {
	if !b.launcher.Available() {
		return domainErrors.ErrAppLaunchFailed
	}
	return nil
}

// DeliverCallback routes one host-delivered result to the pending
// operation it belongs to. Routing order is deterministic: the payment
// request id, then the close request id, then whichever single kind is
// pending, then log-and-drop. A dropped or duplicate callback never
// corrupts the pending table.
func (b *BridgedTransport) DeliverCallback(cb CallbackResult) {
	op := b.route(cb.RequestID)
	if op == nil {
		b.logger.Warn().
			Str("request_id", cb.RequestID).
			Msg("dropping callback with no pending operation")
		if b.metrics != nil {
			b.metrics.CallbackAnomalies.WithLabelValues("unroutable").Inc()
		}
		return
	}

	var outcome bridgeOutcome
	switch op.kind {
	case terminal.KindPayment:
		result := b.paymentOutcome(cb)
		outcome.payment = &result
	case terminal.KindClose:
		result := b.closeOutcome(cb)
		outcome.close = &result
	}

	b.logger.Info().
		Str("operation_id", op.id.String()).
		Str("kind", string(op.kind)).
		Bool("host_ok", cb.OK).
		Msg("callback fulfilled pending operation")
	op.done <- outcome
}

func (b *BridgedTransport) paymentOutcome(cb CallbackResult) terminal.PaymentResult {
	if !cb.OK || cb.Payment == nil {
		return terminal.FailedPayment(cancelledByUser)
	}

	p := cb.Payment
	result := terminal.PaymentResult{
		ResponseCode:             p.ResponseCode,
		AuthorizationCode:        p.Authorization,
		MaskedCardNumber:         p.MaskedPAN,
		CardholderName:           p.Cardholder,
		TerminalID:               p.TerminalID,
		ReceiptNumber:            p.Receipt,
		RetrievalReferenceNumber: p.RRN,
		SystemTraceAuditNumber:   p.STAN,
		TicketText:               p.Ticket,
		TotalAmount:              decimal.New(p.TotalAmount, -2).StringFixed(2),
	}

	if p.ResponseCode != terminal.ResponseApproved {
		result.Success = false
		result.ErrorMessage = b.driver.DescribeResponseCode(p.ResponseCode)
		return result
	}

	result.Success = true
	return result
}

func (b *BridgedTransport) closeOutcome(cb CallbackResult) terminal.CloseResult {
	if !cb.OK || cb.Close == nil {
		return terminal.FailedClose(cancelledByUser)
	}

	if cb.Close.ResponseCode != terminal.ResponseApproved {
		return terminal.FailedClose(b.driver.DescribeResponseCode(cb.Close.ResponseCode))
	}

	result, skipped := driver.ParseTotals(cb.Close.Total, time.Now())
	if skipped > 0 {
		b.logger.Warn().Int("skipped", skipped).Msg("close callback contained malformed acquirer segments")
	}
	return result
}

// begin registers a fresh pending operation of the given kind,
// superseding any prior one. The superseded waiter is fulfilled with a
// cancellation failure so it is never left hanging.
func (b *BridgedTransport) begin(kind terminal.OperationKind) *pendingOperation {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.pending[kind]; ok && !old.fulfilled {
		b.logger.Warn().
			Str("operation_id", old.id.String()).
			Str("kind", string(kind)).
			Msg("superseding stale pending operation")
		old.fulfilled = true
		old.done <- b.supersededOutcome(kind)
	}

	op := &pendingOperation{
		id:   uuid.New(),
		kind: kind,
		done: make(chan bridgeOutcome, 1),
	}
	b.pending[kind] = op
	b.updatePendingGauge()
	return op
}

func (b *BridgedTransport) supersededOutcome(kind terminal.OperationKind) bridgeOutcome {
	switch kind {
	case terminal.KindClose:
		result := terminal.FailedClose(domainErrors.ErrOperationSuperseded.Error())
		return bridgeOutcome{close: &result}
	default:
		result := terminal.FailedPayment(domainErrors.ErrOperationSuperseded.Error())
		return bridgeOutcome{payment: &result}
	}
}

// abandon drops a pending operation without fulfilling it, used when
// the launch failed or the waiting caller gave up. Idempotent: a slot
// already fulfilled or re-occupied by a newer operation is untouched.
func (b *BridgedTransport) abandon(op *pendingOperation) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.pending[op.kind]; ok && current == op && !op.fulfilled {
		op.fulfilled = true
		delete(b.pending, op.kind)
		b.updatePendingGauge()
	}
}

// route picks the pending operation a callback belongs to and removes
// it from the table, so each operation is fulfilled at most once.
func (b *BridgedTransport) route(requestID string) *pendingOperation {
	b.mu.Lock()
	defer b.mu.Unlock()

	var op *pendingOperation
	switch {
	case requestID == RequestIDPayment && b.pending[terminal.KindPayment] != nil:
		op = b.pending[terminal.KindPayment]
	case requestID == RequestIDClose && b.pending[terminal.KindClose] != nil:
		op = b.pending[terminal.KindClose]
	case len(b.pending) == 1:
		// Ambiguous request id but only one kind is in flight; the
		// callback can only belong to it.
		for _, p := range b.pending {
			op = p
		}
		b.logger.Warn().
			Str("request_id", requestID).
			Str("kind", string(op.kind)).
			Msg("routing ambiguous callback to the only pending operation")
	default:
		return nil
	}

	op.fulfilled = true
	delete(b.pending, op.kind)
	b.updatePendingGauge()
	return op
}

func (b *BridgedTransport) updatePendingGauge() {
	if b.metrics != nil {
		b.metrics.PendingOperations.Set(float64(len(b.pending)))
	}
}
