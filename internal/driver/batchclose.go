package driver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

const totalsFieldCount = 9

// ParseTotals turns the pipe-delimited multi-acquirer totals block into
// a CloseResult. Segments are comma-separated nine-field acquirer
// lines; segments with fewer fields are skipped rather than failing the
// whole close, and the skip count is returned so the caller can log it.
//
// The first non-empty terminal, merchant and batch identifiers win;
// counts and minor-unit totals are summed across segments. An empty
// totals block parses to a zeroed, successful result.
func ParseTotals(raw string, now time.Time) (terminal.CloseResult, int) {
	result := terminal.CloseResult{
		Success:        true,
		SalesTotal:     decimal.Zero,
		ReversalsTotal: decimal.Zero,
		NetTotal:       decimal.Zero,
	}

	var salesMinor, reversalsMinor int64
	skipped := 0

	for _, segment := range strings.Split(raw, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		fields := strings.Split(segment, ",")
		if len(fields) < totalsFieldCount {
			skipped++
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		line := terminal.AcquirerTotalsLine{
			TerminalID:               fields[0],
			CurrencyLabel:            fields[1],
			SalesCount:               intOrZero(fields[2]),
			SalesTotalMinorUnits:     int64OrZero(fields[3]),
			MerchantID:               fields[4],
			BatchNumber:              fields[5],
			Reserved:                 fields[6],
			ReversalsCount:           intOrZero(fields[7]),
			ReversalsTotalMinorUnits: int64OrZero(fields[8]),
		}

		if result.TerminalID == "" {
			result.TerminalID = line.TerminalID
		}
		if result.MerchantID == "" {
			result.MerchantID = line.MerchantID
		}
		if result.BatchNumber == "" {
			result.BatchNumber = line.BatchNumber
		}

		result.SalesCount += line.SalesCount
		result.ReversalsCount += line.ReversalsCount
		salesMinor += line.SalesTotalMinorUnits
		reversalsMinor += line.ReversalsTotalMinorUnits
	}

	result.SalesTotal = decimal.New(salesMinor, -2)
	result.ReversalsTotal = decimal.New(reversalsMinor, -2)
	result.NetTotal = result.SalesTotal.Sub(result.ReversalsTotal)
	result.TicketText = closeTicket(result, now)

	return result, skipped
}

// closeTicket renders the three-line settlement ticket. The backend
// re-parses this exact layout, so field order and separators are fixed.
func closeTicket(r terminal.CloseResult, now time.Time) string {
	lines := []string{
		fmt.Sprintf("TERMINAL ID LOGOSALE %s", r.MerchantID),
		fmt.Sprintf("Fecha: %s Hora: %s Lote: %s",
			now.Format("02/01/2006"), now.Format("15:04:05"), r.BatchNumber),
		fmt.Sprintf("VENTAS %04d CRC%s", r.SalesCount, groupThousands(r.SalesTotal)),
	}
	return strings.Join(lines, "\n")
}

// groupThousands renders a decimal with two fraction digits and comma
// thousands separators, e.g. 1234567.5 -> "1,234,567.50".
func groupThousands(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func int64OrZero(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
