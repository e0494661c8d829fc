package host

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/pkg/retry"
)

// ForegroundRestorer asks the host UI process to bring itself back to
// the foreground. Launching the terminal application backgrounds the
// POS UI, so this runs after every bridged interaction. Failures are
// the notifier's problem alone; they must never mask a payment result.
type ForegroundRestorer interface {
	Restore(ctx context.Context) error
}

// HTTPForegroundNotifier POSTs a resume notification to the host UI.
type HTTPForegroundNotifier struct {
	url    string
	client *http.Client
	cfg    retry.Config
	logger zerolog.Logger
}

func NewHTTPForegroundNotifier(url string, attempts uint, delay time.Duration, logger zerolog.Logger) *HTTPForegroundNotifier {
	return &HTTPForegroundNotifier{
		url:    url,
		client: &http.Client{Timeout: 3 * time.Second},
		cfg: retry.Config{
			MaxAttempts:  attempts,
			InitialDelay: delay,
			MaxDelay:     5 * time.Second,
		},
		logger: logger.With().Str("component", "foreground").Logger(),
	}
}

func (n *HTTPForegroundNotifier) Restore(ctx context.Context) error {
	return retry.Do(ctx, n.cfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(`{"action":"resume"}`))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("host UI returned status %d", resp.StatusCode)
		}
		return nil
	}, func(attempt uint, err error) {
		n.logger.Debug().Uint("attempt", attempt).Err(err).Msg("foreground restore retry")
	})
}

// NopRestorer is used when no host UI endpoint is configured.
type NopRestorer struct{}

func (NopRestorer) Restore(ctx context.Context) error { return nil }
