package driver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

// BACDriver speaks the BAC Credomatic terminal protocol. It is the
// default driver: legacy acquirer codes stored by older installs all
// belonged to BAC terminals.
type BACDriver struct {
	logger zerolog.Logger
}

func NewBACDriver(logger zerolog.Logger) *BACDriver {
	return &BACDriver{logger: logger.With().Str("driver", "bac").Logger()}
}

func (d *BACDriver) Provider() terminal.Provider { return terminal.ProviderBAC }

func (d *BACDriver) BuildPaymentURL(baseURL string, amountMinorUnits int64) string {
	return fmt.Sprintf("%s/api/venta/%d", strings.TrimRight(baseURL, "/"), amountMinorUnits)
}

func (d *BACDriver) BuildCloseURL(baseURL string) string {
	return fmt.Sprintf("%s/api/cierre", strings.TrimRight(baseURL, "/"))
}

// BridgedAmount applies the BAC app quirk: it expects cents of the
// already-integer colon amount, so the minor units are multiplied by
// 100 a second time.
func (d *BACDriver) BridgedAmount(amountMinorUnits int64) int64 {
	return amountMinorUnits * 100
}

type bacPaymentPayload struct {
	ResponseCode  string `json:"RESPCODE"`
	Authorization string `json:"AUTORIZACION"`
	MaskedPAN     string `json:"PANMASKED"`
	Cardholder    string `json:"CARDHOLDER"`
	Issuer        string `json:"EMISOR"`
	TerminalID    string `json:"TERMINALID"`
	Receipt       string `json:"RECIBO"`
	RRN           string `json:"RRN"`
	STAN          string `json:"STAN"`
	Ticket        string `json:"TICKET"`
	TotalAmount   string `json:"TOTAL_AMOUNT"`
}

func (d *BACDriver) ParsePaymentResponse(raw []byte) terminal.PaymentResult {
	var payload bacPaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.logger.Warn().Err(err).Msg("unparseable payment response")
		return terminal.FailedPayment("respuesta del terminal no reconocida")
	}

	result := terminal.PaymentResult{
		ResponseCode:             payload.ResponseCode,
		AuthorizationCode:        payload.Authorization,
		MaskedCardNumber:         payload.MaskedPAN,
		CardholderName:           payload.Cardholder,
		IssuerName:               payload.Issuer,
		TerminalID:               payload.TerminalID,
		ReceiptNumber:            payload.Receipt,
		RetrievalReferenceNumber: payload.RRN,
		SystemTraceAuditNumber:   payload.STAN,
		TicketText:               payload.Ticket,
		TotalAmount:              payload.TotalAmount,
	}

	if payload.ResponseCode != terminal.ResponseApproved {
		result.Success = false
		result.ErrorMessage = d.DescribeResponseCode(payload.ResponseCode)
		return result
	}

	result.Success = true
	return result
}

type bacClosePayload struct {
	ResponseCode string `json:"RESPCODE"`
	Total        string `json:"TOTAL"`
}

func (d *BACDriver) ParseCloseResponse(raw []byte) terminal.CloseResult {
	var payload bacClosePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.logger.Warn().Err(err).Msg("unparseable close response")
		return terminal.FailedClose("respuesta de cierre no reconocida")
	}

	if payload.ResponseCode != terminal.ResponseApproved {
		return terminal.FailedClose(d.DescribeResponseCode(payload.ResponseCode))
	}

	result, skipped := ParseTotals(payload.Total, time.Now())
	if skipped > 0 {
		d.logger.Warn().Int("skipped", skipped).Msg("close report contained malformed acquirer segments")
	}
	return result
}

func (d *BACDriver) DescribeResponseCode(code string) string {
	return describeResponseCode(code)
}
