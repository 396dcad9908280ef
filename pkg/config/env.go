package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvConfig             = "GQLDEVKIT_CONFIG"
	EnvEndpoint           = "GQLDEVKIT_ENDPOINT"
	EnvDebug              = "GQLDEVKIT_DEBUG"
	EnvDebugHost          = "GQLDEVKIT_DEBUG_HOST"
	EnvDebugPort          = "GQLDEVKIT_DEBUG_PORT"
	EnvAdvertiseHost      = "GQLDEVKIT_ADVERTISE_HOST"
	EnvConsoleRedirection = "GQLDEVKIT_CONSOLE_REDIRECTION"
	EnvMaxActivityRecords = "GQLDEVKIT_MAX_ACTIVITY_RECORDS"
	EnvConsoleBufferSize  = "GQLDEVKIT_CONSOLE_BUFFER_SIZE"
	EnvAllowedOrigins     = "GQLDEVKIT_ALLOWED_ORIGINS"
	EnvCacheMaxEntries    = "GQLDEVKIT_CACHE_MAX_ENTRIES"
	EnvLogLevel           = "GQLDEVKIT_LOG_LEVEL"
	EnvLogFormat          = "GQLDEVKIT_LOG_FORMAT"
)

// LoadEnv applies GQLDEVKIT_* variables to cfg. Empty variables are ignored.
// Every malformed value is reported, joined into one error.
func LoadEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	str := func(name, key string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
			cfg.Sources[key] = SourceEnv
		}
	}
	integer := func(name, key string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", name, v))
				return
			}
			*dst = n
			cfg.Sources[key] = SourceEnv
		}
	}
	boolean := func(name, key string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid boolean %q", name, v))
				return
			}
			*dst = b
			cfg.Sources[key] = SourceEnv
		}
	}

	str(EnvEndpoint, "endpoint", &cfg.Endpoint)
	boolean(EnvDebug, "debug.enabled", &cfg.Debug.Enabled)
	str(EnvDebugHost, "debug.host", &cfg.Debug.Host)
	integer(EnvDebugPort, "debug.port", &cfg.Debug.Port)
	str(EnvAdvertiseHost, "debug.advertiseHost", &cfg.Debug.AdvertiseHost)
	boolean(EnvConsoleRedirection, "debug.consoleRedirection", &cfg.Debug.ConsoleRedirection)
	integer(EnvMaxActivityRecords, "debug.maxActivityRecords", &cfg.Debug.MaxActivityRecords)
	integer(EnvConsoleBufferSize, "debug.consoleBufferSize", &cfg.Debug.ConsoleBufferSize)
	if v, ok := get(EnvAllowedOrigins); ok {
		cfg.Debug.AllowedOrigins = SplitList(v)
		cfg.Sources["debug.allowedOrigins"] = SourceEnv
	}
	integer(EnvCacheMaxEntries, "cache.maxEntries", &cfg.Cache.MaxEntries)
	str(EnvLogLevel, "log.level", &cfg.Log.Level)
	str(EnvLogFormat, "log.format", &cfg.Log.Format)

	return errors.Join(errs...)
}

// SplitList splits a comma-separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
