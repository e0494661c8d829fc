package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaviviendaDriver_BuildURLs(t *testing.T) {
	d := NewDaviviendaDriver(testLogger())

	assert.Equal(t, "http://10.0.0.9/pago?monto=2500", d.BuildPaymentURL("http://10.0.0.9/", 2500))
	assert.Equal(t, "http://10.0.0.9/cierre", d.BuildCloseURL("http://10.0.0.9"))
}

func TestDaviviendaDriver_BridgedAmountHasNoQuirk(t *testing.T) {
	d := NewDaviviendaDriver(testLogger())

	assert.Equal(t, int64(1500), d.BridgedAmount(1500))
}

func TestDaviviendaDriver_ParsePaymentResponse_Approved(t *testing.T) {
	d := NewDaviviendaDriver(testLogger())
	raw := []byte(`{
		"codigoRespuesta": "00",
		"autorizacion": "654321",
		"tarjeta": "************9876",
		"tarjetahabiente": "MORA/ANA",
		"terminal": "D0007",
		"recibo": "000108",
		"referencia": "908700001234",
		"trace": "000456",
		"voucher": "APROBADA",
		"monto": "2500.00"
	}`)

	result := d.ParsePaymentResponse(raw)

	require.True(t, result.Success)
	assert.Equal(t, "654321", result.AuthorizationCode)
	assert.Equal(t, "D0007", result.TerminalID)
	assert.Equal(t, "908700001234", result.RetrievalReferenceNumber)
	assert.Equal(t, "000456", result.SystemTraceAuditNumber)
}

func TestDaviviendaDriver_ParsePaymentResponse_Declined(t *testing.T) {
	d := NewDaviviendaDriver(testLogger())

	result := d.ParsePaymentResponse([]byte(`{"codigoRespuesta": "05"}`))

	assert.False(t, result.Success)
	assert.Equal(t, "Transaccion declinada", result.ErrorMessage)
}

func TestDaviviendaDriver_ParseCloseResponse_Malformed(t *testing.T) {
	d := NewDaviviendaDriver(testLogger())

	result := d.ParseCloseResponse([]byte("not json at all"))

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}
