package settings

import (
	"sync"

	"github.com/veropos/terminal-bridge/internal/infrastructure/config"
)

// Store hands out the active terminal configuration. The orchestrator
// consumes it read-only at the start of every operation, so a settings
// change is picked up on the next call without restarting anything.
type Store interface {
	Terminal() (config.TerminalConfig, error)
}

// ConfigStore serves the terminal section of the loaded configuration.
type ConfigStore struct {
	cfg *config.Config
}

func NewConfigStore(cfg *config.Config) *ConfigStore {
	return &ConfigStore{cfg: cfg}
}

func (s *ConfigStore) Terminal() (config.TerminalConfig, error) {
	return s.cfg.Terminal, nil
}

// MemoryStore is a mutable store for tests and for hosts that push
// settings updates at runtime.
type MemoryStore struct {
	mu       sync.RWMutex
	terminal config.TerminalConfig
}

func NewMemoryStore(terminal config.TerminalConfig) *MemoryStore {
	return &MemoryStore{terminal: terminal}
}

func (s *MemoryStore) Terminal() (config.TerminalConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminal, nil
}

func (s *MemoryStore) SetTerminal(terminal config.TerminalConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal = terminal
}
