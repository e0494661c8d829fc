package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Terminal      TerminalConfig      `mapstructure:"terminal"`
	Host          HostConfig          `mapstructure:"host"`
	Journal       JournalConfig       `mapstructure:"journal"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// TerminalConfig is the active acquirer/terminal configuration. It is
// read again at the start of every orchestrator call so a settings
// change takes effect without a restart.
type TerminalConfig struct {
	Provider       string        `mapstructure:"provider"`
	Mode           string        `mapstructure:"mode"`
	BaseURL        string        `mapstructure:"base_url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	CurrencyCode   string        `mapstructure:"currency_code"`
	ShowMessages   bool          `mapstructure:"show_messages"`
}

// HostConfig describes the co-resident terminal application and the
// host UI process that receives foreground-restore notifications.
type HostConfig struct {
	AppPath       string        `mapstructure:"app_path"`
	CallbackURL   string        `mapstructure:"callback_url"`
	ForegroundURL string        `mapstructure:"foreground_url"`
	NotifyRetries uint          `mapstructure:"notify_retries"`
	NotifyDelay   time.Duration `mapstructure:"notify_delay"`
}

type JournalConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TERMINAL_BRIDGE")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/terminal-bridge")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8780)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	v.SetDefault("terminal.provider", string(terminal.ProviderBAC))
	v.SetDefault("terminal.mode", string(terminal.ModeHTTP))
	v.SetDefault("terminal.base_url", "")
	v.SetDefault("terminal.connect_timeout", 60*time.Second)
	v.SetDefault("terminal.read_timeout", 120*time.Second)
	v.SetDefault("terminal.write_timeout", 60*time.Second)
	v.SetDefault("terminal.probe_timeout", 4*time.Second)
	v.SetDefault("terminal.currency_code", "188") // CRC
	v.SetDefault("terminal.show_messages", true)

	v.SetDefault("host.app_path", "")
	v.SetDefault("host.callback_url", "")
	v.SetDefault("host.foreground_url", "")
	v.SetDefault("host.notify_retries", 3)
	v.SetDefault("host.notify_delay", 500*time.Millisecond)

	v.SetDefault("journal.path", "./data/journal")
	v.SetDefault("journal.ttl", 72*time.Hour)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch terminal.TransportMode(c.Terminal.Mode) {
	case terminal.ModeHTTP:
		if c.Terminal.BaseURL == "" {
			return fmt.Errorf("terminal.base_url is required in http mode")
		}
	case terminal.ModeBridged:
		if c.Host.AppPath == "" {
			return fmt.Errorf("host.app_path is required in bridged mode")
		}
	default:
		return fmt.Errorf("unsupported terminal.mode %q", c.Terminal.Mode)
	}

	if c.Journal.Path == "" {
		return fmt.Errorf("journal.path must not be empty")
	}

	return nil
}
