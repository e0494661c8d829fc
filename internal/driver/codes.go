package driver

import "fmt"

// Acquirer response codes shared by both providers. The two-digit codes
// follow the usual ISO 8583 action codes the local acquirers use.
var responseCodeMessages = map[string]string{
	"00": "Transaccion aprobada",
	"01": "Refierase al emisor",
	"05": "Transaccion declinada",
	"12": "Transaccion invalida",
	"13": "Monto invalido",
	"14": "Tarjeta invalida",
	"41": "Tarjeta reportada como extraviada",
	"43": "Tarjeta reportada como robada",
	"51": "Fondos insuficientes",
	"54": "Tarjeta vencida",
	"55": "PIN incorrecto",
	"91": "Emisor no disponible",
	"96": "Error del sistema",
}

func describeResponseCode(code string) string {
	if msg, ok := responseCodeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Transaccion rechazada (codigo %s)", code)
}
