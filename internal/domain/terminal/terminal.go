package terminal

import (
	"github.com/shopspring/decimal"
	"github.com/veropos/terminal-bridge/internal/domain/errors"
)

// Provider identifies the acquirer whose terminal protocol is in use.
type Provider string

const (
	ProviderBAC        Provider = "bac"
	ProviderDavivienda Provider = "davivienda"
)

// TransportMode selects how the physical terminal is reached.
type TransportMode string

const (
	// ModeHTTP talks to a networked terminal exposing an HTTP endpoint.
	ModeHTTP TransportMode = "http"
	// ModeBridged launches a co-resident terminal application and waits
	// for its result to be pushed back through the host callback.
	ModeBridged TransportMode = "bridged"
)

// OperationKind distinguishes the two terminal operations that can be
// pending on the bridged transport at the same time.
type OperationKind string

const (
	KindPayment OperationKind = "payment"
	KindClose   OperationKind = "close"
)

// ResponseApproved is the acquirer response code for an approved
// transaction. Every other code is a decline or an error.
const ResponseApproved = "00"

// PaymentRequest is a charge request in the currency's minor units.
type PaymentRequest struct {
	AmountMinorUnits int64
}

func (r PaymentRequest) Validate() error {
	if r.AmountMinorUnits <= 0 {
		return errors.ErrInvalidAmount
	}
	return nil
}

// PaymentResult is the normalized, provider-agnostic outcome of a
// payment attempt. If Success is false, ErrorMessage is always set; if
// Success is true, ResponseCode is ResponseApproved.
type PaymentResult struct {
	Success                  bool   `json:"success"`
	ResponseCode             string `json:"response_code,omitempty"`
	AuthorizationCode        string `json:"authorization_code,omitempty"`
	MaskedCardNumber         string `json:"masked_card_number,omitempty"`
	CardholderName           string `json:"cardholder_name,omitempty"`
	IssuerName               string `json:"issuer_name,omitempty"`
	TerminalID               string `json:"terminal_id,omitempty"`
	ReceiptNumber            string `json:"receipt_number,omitempty"`
	RetrievalReferenceNumber string `json:"retrieval_reference_number,omitempty"`
	SystemTraceAuditNumber   string `json:"system_trace_audit_number,omitempty"`
	TicketText               string `json:"ticket_text,omitempty"`
	TotalAmount              string `json:"total_amount,omitempty"`
	ErrorMessage             string `json:"error_message,omitempty"`
}

// FailedPayment builds a failure-shaped result with the given message.
func FailedPayment(message string) PaymentResult {
	return PaymentResult{Success: false, ErrorMessage: message}
}

// CloseResult is the normalized outcome of a batch-close (end-of-day
// settlement) operation. NetTotal is always SalesTotal - ReversalsTotal.
type CloseResult struct {
	Success        bool            `json:"success"`
	TerminalID     string          `json:"terminal_id,omitempty"`
	MerchantID     string          `json:"merchant_id,omitempty"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	SalesCount     int             `json:"sales_count"`
	SalesTotal     decimal.Decimal `json:"sales_total"`
	ReversalsCount int             `json:"reversals_count"`
	ReversalsTotal decimal.Decimal `json:"reversals_total"`
	NetTotal       decimal.Decimal `json:"net_total"`
	TicketText     string          `json:"ticket_text,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// FailedClose builds a failure-shaped close result with the given message.
func FailedClose(message string) CloseResult {
	return CloseResult{
		Success:        false,
		SalesTotal:     decimal.Zero,
		ReversalsTotal: decimal.Zero,
		NetTotal:       decimal.Zero,
		ErrorMessage:   message,
	}
}

// AcquirerTotalsLine is one acquirer's slice of a multi-acquirer close
// report, nine positional comma-separated fields between pipes.
type AcquirerTotalsLine struct {
	TerminalID               string
	CurrencyLabel            string
	SalesCount               int
	SalesTotalMinorUnits     int64
	MerchantID               string
	BatchNumber              string
	Reserved                 string
	ReversalsCount           int
	ReversalsTotalMinorUnits int64
}
