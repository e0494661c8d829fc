package controller

import (
	"github.com/veropos/terminal-bridge/internal/transport"
)

// PaymentRequestDTO is the charge request from the POS UI. Amounts are
// integer minor units of the configured currency.
type PaymentRequestDTO struct {
	AmountMinorUnits int64 `json:"amount_minor_units" validate:"required,gt=0"`
}

// CallbackDTO is the host-push delivery of a co-resident app result.
// Status "OK" means the app produced a result; anything else is a user
// cancellation or an app failure.
type CallbackDTO struct {
	RequestID string                            `json:"request_id"`
	Status    string                            `json:"status"`
	Payment   *transport.PaymentCallbackPayload `json:"payment,omitempty"`
	Close     *transport.CloseCallbackPayload   `json:"close,omitempty"`
}

const callbackStatusOK = "OK"

func (d CallbackDTO) toResult() transport.CallbackResult {
	return transport.CallbackResult{
		RequestID: d.RequestID,
		OK:        d.Status == callbackStatusOK,
		Payment:   d.Payment,
		Close:     d.Close,
	}
}

// ProbeResponseDTO reports terminal reachability.
type ProbeResponseDTO struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponseDTO is the envelope for request-level errors.
type ErrorResponseDTO struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
