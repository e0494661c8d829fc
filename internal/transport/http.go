package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	domainErrors "github.com/veropos/terminal-bridge/internal/domain/errors"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
	"github.com/veropos/terminal-bridge/internal/driver"
)

// HTTPTimeouts holds the per-phase timeouts for the networked terminal.
// Terminal devices are slow: a cardholder may take a minute to insert
// the card and type a PIN, so the read timeout is generous.
type HTTPTimeouts struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
	Probe   time.Duration
}

func DefaultHTTPTimeouts() HTTPTimeouts {
	return HTTPTimeouts{
		Connect: 60 * time.Second,
		Read:    120 * time.Second,
		Write:   60 * time.Second,
		Probe:   4 * time.Second,
	}
}

// HTTPTransport reaches a terminal exposed as an HTTP endpoint. The
// conversation is synchronous request/response; no retries are
// performed here, retrying is the caller's decision.
type HTTPTransport struct {
	driver  driver.TerminalDriver
	baseURL string
	client  *http.Client
	probe   *http.Client
	logger  zerolog.Logger
}

func NewHTTPTransport(drv driver.TerminalDriver, baseURL string, timeouts HTTPTimeouts, logger zerolog.Logger) *HTTPTransport {
	dialer := &net.Dialer{Timeout: timeouts.Connect}
	return &HTTPTransport{
		driver:  drv,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeouts.Read,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: timeouts.Read,
				ExpectContinueTimeout: timeouts.Write,
			},
		},
		probe: &http.Client{
			Timeout: timeouts.Probe,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: timeouts.Probe}).DialContext,
			},
		},
		logger: logger.With().Str("transport", "http").Logger(),
	}
}

func (t *HTTPTransport) ProcessPayment(ctx context.Context, amountMinorUnits int64) (terminal.PaymentResult, error) {
	url := t.driver.BuildPaymentURL(t.baseURL, amountMinorUnits)

	body, err := t.get(ctx, url)
	if err != nil {
		t.logger.Warn().Err(err).Str("url", url).Msg("payment request failed")
		return terminal.PaymentResult{}, err
	}

	return t.driver.ParsePaymentResponse(body), nil
}

func (t *HTTPTransport) CloseBatch(ctx context.Context) (terminal.CloseResult, error) {
	url := t.driver.BuildCloseURL(t.baseURL)

	body, err := t.get(ctx, url)
	if err != nil {
		t.logger.Warn().Err(err).Str("url", url).Msg("close request failed")
		return terminal.CloseResult{}, err
	}

	return t.driver.ParseCloseResponse(body), nil
}

// TestConnection considers the terminal reachable if the device answers
// at all; a non-2xx status from the base URL still proves connectivity.
func (t *HTTPTransport) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := t.probe.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrTerminalUnreachable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return nil
}

func (t *HTTPTransport) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("terminal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("terminal returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read terminal response: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, domainErrors.ErrEmptyResponse
	}

	return body, nil
}
