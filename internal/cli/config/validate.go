package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log_format must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.LogFormat)
	}
	switch c.Output {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("output must be one of auto, text, markdown, json, got %q", c.Output)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.PortAttempts < 1 {
		return fmt.Errorf("server.port_attempts must be at least 1, got %d", c.Server.PortAttempts)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if filepath.Clean(c.SrcDir) == filepath.Clean(c.PublicDir) {
		return fmt.Errorf("src_dir and public_dir must differ, both are %q", c.SrcDir)
	}
	return nil
}

// ValidateDirectories checks that the source directory exists.
func (c *Config) ValidateDirectories() error {
	src := resolvePathRelativeTo(c.SrcDir, c.ProjectRoot)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s\nHint: Create the directory or set src_dir in leapsite.yaml", src)
	}
	return nil
}
