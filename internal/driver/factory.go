package driver

import (
	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

// Factory builds the TerminalDriver for a configured provider code.
type Factory struct {
	logger zerolog.Logger
}

func NewFactory(logger zerolog.Logger) *Factory {
	return &Factory{logger: logger}
}

// CreateDriver is total over provider codes: unknown or legacy values
// resolve to the BAC driver instead of failing, because configurations
// written before the provider enumeration existed all belong to BAC
// terminals. The fallback is logged, never silent.
func (f *Factory) CreateDriver(provider terminal.Provider) TerminalDriver {
	switch provider {
	case terminal.ProviderBAC:
		return NewBACDriver(f.logger)
	case terminal.ProviderDavivienda:
		return NewDaviviendaDriver(f.logger)
	default:
		f.logger.Warn().
			Str("provider", string(provider)).
			Msg("unknown provider code, falling back to bac driver")
		return NewBACDriver(f.logger)
	}
}
