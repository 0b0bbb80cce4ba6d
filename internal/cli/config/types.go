// Package config provides configuration management for the leapsite CLI.
//
// It extends the project Layout from internal/config with CLI-only settings:
// the dev server, the watcher, history storage and logging.
package config

import (
	"time"

	intconfig "github.com/leapstack-labs/leapsite/internal/config"
)

// Layout is an alias for the shared project layout.
type Layout = intconfig.Layout

// ServerConfig holds dev server settings.
type ServerConfig struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	LiveReload   bool   `koanf:"live_reload"`
	Open         bool   `koanf:"open"`
	PortAttempts int    `koanf:"port_attempts"`
}

// WatchConfig holds watcher settings.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Config holds all CLI configuration options.
type Config struct {
	Layout `koanf:",squash"`

	// ProjectRoot is where relative paths are anchored. It is inferred, not loaded.
	ProjectRoot string `koanf:"-"`

	// StatePath is the history database. Empty disables history.
	StatePath string       `koanf:"state_path"`
	Verbose   bool         `koanf:"verbose"`
	LogFormat string       `koanf:"log_format"`
	Output    string       `koanf:"output"`
	Server    ServerConfig `koanf:"server"`
	Watch     WatchConfig  `koanf:"watch"`
}

// Default configuration values.
const (
	DefaultStateFile    = ".leapsite/state.db"
	DefaultLogFormat    = "text"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
	DefaultHost         = "localhost"
	DefaultPort         = 2345
	DefaultPortAttempts = 50
	DefaultDebounce     = 150 * time.Millisecond
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
