package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"
	domainErrors "github.com/veropos/terminal-bridge/internal/domain/errors"
	"github.com/veropos/terminal-bridge/internal/transport"
)

// ExecLauncher starts the co-resident terminal application as a
// separate process. The launch itself carries the encoded request; the
// app's result comes back later through the host callback endpoint, so
// the process is deliberately not tied to the caller's context — the
// cardholder interaction outlives any single HTTP request.
type ExecLauncher struct {
	appPath     string
	callbackURL string
	logger      zerolog.Logger
}

func NewExecLauncher(appPath, callbackURL string, logger zerolog.Logger) *ExecLauncher {
	return &ExecLauncher{
		appPath:     appPath,
		callbackURL: callbackURL,
		logger:      logger.With().Str("component", "launcher").Logger(),
	}
}

func (l *ExecLauncher) LaunchPayment(ctx context.Context, req transport.LaunchRequest) error {
	args := []string{
		"--operation", "sale",
		"--request-id", transport.RequestIDPayment,
		"--user", req.Username,
		"--password", req.Password,
		"--amount", strconv.FormatInt(req.Amount, 10),
		"--tip", strconv.FormatInt(req.Tip, 10),
		"--tax", strconv.FormatInt(req.Tax, 10),
		"--email", req.Email,
		"--currency", req.CurrencyCode,
		"--show-messages", strconv.FormatBool(req.ShowMessages),
		"--callback-url", l.callbackURL,
	}
	return l.start(args)
}

func (l *ExecLauncher) LaunchClose(ctx context.Context) error {
	args := []string{
		"--operation", "close",
		"--request-id", transport.RequestIDClose,
		"--callback-url", l.callbackURL,
	}
	return l.start(args)
}

func (l *ExecLauncher) Available() bool {
	if l.appPath == "" {
		return false
	}
	info, err := os.Stat(l.appPath)
	return err == nil && !info.IsDir()
}

func (l *ExecLauncher) start(args []string) error {
	if l.appPath == "" {
		return domainErrors.ErrAppLaunchFailed
	}

	cmd := exec.Command(l.appPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrAppLaunchFailed, err)
	}

	l.logger.Info().Int("pid", cmd.Process.Pid).Msg("terminal application launched")

	// Reap the child when it exits; its outcome arrives via callback,
	// not via the exit status.
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug().Err(err).Msg("terminal application exited with error")
		}
	}()

	return nil
}
