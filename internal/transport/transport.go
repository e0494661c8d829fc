package transport

import (
	"context"

	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

// TerminalTransport executes terminal operations over one of the two
// wire mechanisms (networked HTTP terminal or co-resident bridged app).
//
// Vendor-level failures (declined card, malformed payload, user
// cancellation, superseded operation) come back as failure-shaped
// results with a nil error. Transport-level faults (device unreachable,
// empty body, failed app launch, caller context cancelled) are returned
// as errors; the orchestrator converts those into user-facing failure
// results.
type TerminalTransport interface {
	// ProcessPayment charges the given amount in minor units.
	ProcessPayment(ctx context.Context, amountMinorUnits int64) (terminal.PaymentResult, error)

	// CloseBatch runs the end-of-day settlement.
	CloseBatch(ctx context.Context) (terminal.CloseResult, error)

	// TestConnection probes whether the terminal is reachable. This is
	// deliberately weaker than a payment call: any response from the
	// device counts, not only well-formed ones.
	TestConnection(ctx context.Context) error
}
