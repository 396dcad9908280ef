package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/gqldevkit/pkg/logging"
)

// Validate checks cfg for values the rest of the program cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Debug.Port < 0 || c.Debug.Port > 65535 {
		errs = append(errs, fmt.Errorf("debug.port: %d is out of range 0-65535", c.Debug.Port))
	}
	if c.Debug.MaxActivityRecords < 0 {
		errs = append(errs, fmt.Errorf("debug.maxActivityRecords: must not be negative"))
	}
	if c.Debug.ConsoleBufferSize < 0 {
		errs = append(errs, fmt.Errorf("debug.consoleBufferSize: must not be negative"))
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.maxEntries: must not be negative"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case string(logging.FormatText), string(logging.FormatJSON):
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Source returns where key got its value.
func (c *Config) Source(key string) string {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

// SetSource marks key as coming from src. Callers applying flags use
// SetSource(key, SourceFlag).
func (c *Config) SetSource(key, src string) {
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = src
}

// LoggingConfig converts the log section for pkg/logging.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Format: logging.ParseFormat(c.Log.Format),
	}
}
