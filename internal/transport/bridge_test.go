package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/veropos/terminal-bridge/internal/domain/errors"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
	"github.com/veropos/terminal-bridge/internal/driver"
)

type fakeLauncher struct {
	mu          sync.Mutex
	failLaunch  bool
	payments    []LaunchRequest
	closes      int
	launchedSig chan struct{}
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{launchedSig: make(chan struct{}, 16)}
}

func (f *fakeLauncher) LaunchPayment(ctx context.Context, req LaunchRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLaunch {
		return errors.New("binary not found")
	}
	f.payments = append(f.payments, req)
	f.launchedSig <- struct{}{}
	return nil
}

func (f *fakeLauncher) LaunchClose(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLaunch {
		return errors.New("binary not found")
	}
	f.closes++
	f.launchedSig <- struct{}{}
	return nil
}

func (f *fakeLauncher) Available() bool { return !f.failLaunch }

func (f *fakeLauncher) waitLaunched(t *testing.T) {
	t.Helper()
	select {
	case <-f.launchedSig:
	case <-time.After(2 * time.Second):
		t.Fatal("terminal app was never launched")
	}
}

func newBridge(launcher AppLauncher) *BridgedTransport {
	drv := driver.NewBACDriver(zerolog.Nop())
	return NewBridgedTransport(drv, launcher, "188", true, zerolog.Nop(), nil)
}

func approvedPaymentCallback() CallbackResult {
	return CallbackResult{
		RequestID: RequestIDPayment,
		OK:        true,
		Payment: &PaymentCallbackPayload{
			ResponseCode:  "00",
			Authorization: "999888",
			MaskedPAN:     "************4321",
			TerminalID:    "T0002",
			RRN:           "908799990000",
			STAN:          "000777",
			Receipt:       "000051",
			TotalAmount:   150000,
			Ticket:        "APROBADA",
		},
	}
}

func TestBridgedTransport_PaymentFulfilledByCallback(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	results := make(chan terminal.PaymentResult, 1)
	go func() {
		result, err := b.ProcessPayment(context.Background(), 1500)
		assert.NoError(t, err)
		results <- result
	}()

	launcher.waitLaunched(t)
	b.DeliverCallback(approvedPaymentCallback())

	select {
	case result := <-results:
		assert.True(t, result.Success)
		assert.Equal(t, "999888", result.AuthorizationCode)
		assert.Equal(t, "1500.00", result.TotalAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("payment waiter was never fulfilled")
	}

	// The BAC quirk: the app receives cents of the integer unit.
	launcher.mu.Lock()
	defer launcher.mu.Unlock()
	require.Len(t, launcher.payments, 1)
	assert.Equal(t, int64(150000), launcher.payments[0].Amount)
	assert.Equal(t, "188", launcher.payments[0].CurrencyCode)
}

func TestBridgedTransport_HostCancelYieldsFailure(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	results := make(chan terminal.PaymentResult, 1)
	go func() {
		result, err := b.ProcessPayment(context.Background(), 1500)
		assert.NoError(t, err)
		results <- result
	}()

	launcher.waitLaunched(t)
	b.DeliverCallback(CallbackResult{RequestID: RequestIDPayment, OK: false})

	result := <-results
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestBridgedTransport_MissingPayloadYieldsFailure(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	results := make(chan terminal.PaymentResult, 1)
	go func() {
		result, _ := b.ProcessPayment(context.Background(), 1500)
		results <- result
	}()

	launcher.waitLaunched(t)
	b.DeliverCallback(CallbackResult{RequestID: RequestIDPayment, OK: true, Payment: nil})

	result := <-results
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestBridgedTransport_LaunchFailureClearsPending(t *testing.T) {
	launcher := newFakeLauncher()
	launcher.failLaunch = true
	b := newBridge(launcher)

	_, err := b.ProcessPayment(context.Background(), 1500)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrAppLaunchFailed)

	// No pending slot was left behind; a stray callback is dropped.
	b.DeliverCallback(approvedPaymentCallback())
	assert.Empty(t, b.pending)
}

func TestBridgedTransport_SecondPaymentSupersedesFirst(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	first := make(chan terminal.PaymentResult, 1)
	go func() {
		result, _ := b.ProcessPayment(context.Background(), 1000)
		first <- result
	}()
	launcher.waitLaunched(t)

	second := make(chan terminal.PaymentResult, 1)
	go func() {
		result, _ := b.ProcessPayment(context.Background(), 2000)
		second <- result
	}()
	launcher.waitLaunched(t)

	// The first waiter is not left hanging: it receives a cancellation
	// shaped failure as soon as the second operation starts.
	select {
	case result := <-first:
		assert.False(t, result.Success)
		assert.Contains(t, result.ErrorMessage, "superseded")
	case <-time.After(2 * time.Second):
		t.Fatal("superseded waiter was never fulfilled")
	}

	b.DeliverCallback(approvedPaymentCallback())

	result := <-second
	assert.True(t, result.Success)
}

func TestBridgedTransport_AmbiguousCallbackRoutesToOnlyPendingKind(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	results := make(chan terminal.CloseResult, 1)
	go func() {
		result, _ := b.CloseBatch(context.Background())
		results <- result
	}()
	launcher.waitLaunched(t)

	// Unknown request id, but only a close is pending.
	b.DeliverCallback(CallbackResult{
		RequestID: "legacy-channel",
		OK:        true,
		Close: &CloseCallbackPayload{
			ResponseCode: "00",
			Total:        "T1,COLONES,0001,000000050000,M1,000003,null,0000,000000000000|",
		},
	})

	result := <-results
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SalesCount)
}

func TestBridgedTransport_UnroutableCallbackDropped(t *testing.T) {
	b := newBridge(newFakeLauncher())

	// Nothing pending; must not panic or corrupt state.
	b.DeliverCallback(approvedPaymentCallback())
	b.DeliverCallback(CallbackResult{RequestID: "???", OK: false})

	assert.Empty(t, b.pending)
}

func TestBridgedTransport_DuplicateCallbackDropped(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	results := make(chan terminal.PaymentResult, 1)
	go func() {
		result, _ := b.ProcessPayment(context.Background(), 1500)
		results <- result
	}()
	launcher.waitLaunched(t)

	b.DeliverCallback(approvedPaymentCallback())
	<-results

	// A duplicate host delivery finds no pending operation.
	b.DeliverCallback(approvedPaymentCallback())
	assert.Empty(t, b.pending)
}

func TestBridgedTransport_CallerContextCancellation(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := b.ProcessPayment(ctx, 1500)
		errs <- err
	}()
	launcher.waitLaunched(t)

	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter never returned")
	}

	// The abandoned slot is gone; a late callback is dropped.
	b.DeliverCallback(approvedPaymentCallback())
	assert.Empty(t, b.pending)
}

func TestBridgedTransport_PaymentAndCloseAreIndependent(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	payments := make(chan terminal.PaymentResult, 1)
	go func() {
		result, _ := b.ProcessPayment(context.Background(), 1500)
		payments <- result
	}()
	launcher.waitLaunched(t)

	closes := make(chan terminal.CloseResult, 1)
	go func() {
		result, _ := b.CloseBatch(context.Background())
		closes <- result
	}()
	launcher.waitLaunched(t)

	b.DeliverCallback(CallbackResult{
		RequestID: RequestIDClose,
		OK:        true,
		Close:     &CloseCallbackPayload{ResponseCode: "00", Total: ""},
	})
	b.DeliverCallback(approvedPaymentCallback())

	paymentResult := <-payments
	closeResult := <-closes
	assert.True(t, paymentResult.Success)
	assert.True(t, closeResult.Success)
}

func TestBridgedTransport_TestConnection(t *testing.T) {
	launcher := newFakeLauncher()
	b := newBridge(launcher)

	assert.NoError(t, b.TestConnection(context.Background()))

	launcher.failLaunch = true
	assert.ErrorIs(t, b.TestConnection(context.Background()), domainErrors.ErrAppLaunchFailed)
}
