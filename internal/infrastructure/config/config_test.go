package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 8780, cfg.Server.Port)
	assert.Equal(t, "bac", cfg.Terminal.Provider)
	assert.Equal(t, "http", cfg.Terminal.Mode)
	assert.Equal(t, 60*time.Second, cfg.Terminal.ConnectTimeout)
	assert.Equal(t, 120*time.Second, cfg.Terminal.ReadTimeout)
	assert.Equal(t, 4*time.Second, cfg.Terminal.ProbeTimeout)
	assert.Equal(t, "188", cfg.Terminal.CurrencyCode)
	assert.Equal(t, 72*time.Hour, cfg.Journal.TTL)
}

func TestValidate_HTTPModeRequiresBaseURL(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Terminal.Mode = "http"
	cfg.Terminal.BaseURL = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidate_BridgedModeRequiresAppPath(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Terminal.Mode = "bridged"
	cfg.Host.AppPath = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "app_path")
}

func TestValidate_UnsupportedMode(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Terminal.Mode = "carrier-pigeon"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported terminal.mode")
}

func TestValidate_ValidHTTPConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Terminal.BaseURL = "http://192.168.0.50:8080"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_PortRange(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Terminal.BaseURL = "http://192.168.0.50:8080"
	cfg.Server.Port = 0

	assert.Error(t, cfg.Validate())
}
