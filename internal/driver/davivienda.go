package driver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

// DaviviendaDriver speaks the Davivienda terminal protocol. Same shape
// of conversation as BAC, different JSON vocabulary and no amount quirk.
type DaviviendaDriver struct {
	logger zerolog.Logger
}

func NewDaviviendaDriver(logger zerolog.Logger) *DaviviendaDriver {
	return &DaviviendaDriver{logger: logger.With().Str("driver", "davivienda").Logger()}
}

func (d *DaviviendaDriver) Provider() terminal.Provider { return terminal.ProviderDavivienda }

func (d *DaviviendaDriver) BuildPaymentURL(baseURL string, amountMinorUnits int64) string {
	return fmt.Sprintf("%s/pago?monto=%d", strings.TrimRight(baseURL, "/"), amountMinorUnits)
}

func (d *DaviviendaDriver) BuildCloseURL(baseURL string) string {
	return fmt.Sprintf("%s/cierre", strings.TrimRight(baseURL, "/"))
}

// BridgedAmount passes minor units through unchanged; the Davivienda
// app already takes the amount in minor units.
func (d *DaviviendaDriver) BridgedAmount(amountMinorUnits int64) int64 {
	return amountMinorUnits
}

type daviviendaPaymentPayload struct {
	ResponseCode  string `json:"codigoRespuesta"`
	Authorization string `json:"autorizacion"`
	MaskedPAN     string `json:"tarjeta"`
	Cardholder    string `json:"tarjetahabiente"`
	Issuer        string `json:"emisor"`
	TerminalID    string `json:"terminal"`
	Receipt       string `json:"recibo"`
	RRN           string `json:"referencia"`
	STAN          string `json:"trace"`
	Ticket        string `json:"voucher"`
	TotalAmount   string `json:"monto"`
}

func (d *DaviviendaDriver) ParsePaymentResponse(raw []byte) terminal.PaymentResult {
	var payload daviviendaPaymentPayload
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

type daviviendaClosePayload struct {
	ResponseCode string `json:"codigoRespuesta"`
	Total        string `json:"total"`
}

func (d *DaviviendaDriver) ParseCloseResponse(raw []byte) terminal.CloseResult {
	var payload daviviendaClosePayload
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

func (d *DaviviendaDriver) DescribeResponseCode(code string) string {
	return describeResponseCode(code)
}
