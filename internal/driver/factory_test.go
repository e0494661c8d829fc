package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

func TestFactory_CreateDriver_BAC(t *testing.T) {
	f := NewFactory(testLogger())

	d := f.CreateDriver(terminal.ProviderBAC)

	assert.Equal(t, terminal.ProviderBAC, d.Provider())
}

func TestFactory_CreateDriver_Davivienda(t *testing.T) {
	f := NewFactory(testLogger())

	d := f.CreateDriver(terminal.ProviderDavivienda)

	assert.Equal(t, terminal.ProviderDavivienda, d.Provider())
}

func TestFactory_CreateDriver_LegacyCodesFallBackToBAC(t *testing.T) {
	f := NewFactory(testLogger())

	for _, code := range []terminal.Provider{"", "credomatic", "2", "legacy-terminal"} {
		d := f.CreateDriver(code)
		assert.Equal(t, terminal.ProviderBAC, d.Provider(), "code %q", code)
	}
}
