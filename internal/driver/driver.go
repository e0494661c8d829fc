package driver

import (
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

// TerminalDriver holds the per-acquirer logic: how to address the
// terminal for a given amount and how to turn the vendor's payload into
// a normalized result. Drivers are stateless and perform no I/O.
//
// Malformed vendor payloads produce failure-shaped results, never
// errors; only programmer mistakes (nil inputs) are treated as bugs.
type TerminalDriver interface {
	// Provider returns the acquirer this driver speaks for.
	Provider() terminal.Provider

	// BuildPaymentURL builds the terminal endpoint for a charge. The
	// amount is embedded as plain integer minor units, no decimal point.
	BuildPaymentURL(baseURL string, amountMinorUnits int64) string

	// BuildCloseURL builds the terminal endpoint for a batch close.
	BuildCloseURL(baseURL string) string

	// BridgedAmount converts minor units into the granularity the
	// co-resident terminal application expects. Most providers take the
	// amount as-is; BAC's app wants cents of the already-integer unit,
	// so its driver multiplies by 100. Applied exactly once, at launch.
	BridgedAmount(amountMinorUnits int64) int64

	// ParsePaymentResponse parses the vendor payment payload.
	ParsePaymentResponse(raw []byte) terminal.PaymentResult

	// ParseCloseResponse parses the vendor batch-close payload.
	ParseCloseResponse(raw []byte) terminal.CloseResult

	// DescribeResponseCode maps an acquirer response code to a human
	// readable message.
	DescribeResponseCode(code string) string
}
