package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/gqldevkit/pkg/config"
)

// addConfigFlags registers flags that override configuration values.
func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("endpoint", "", "GraphQL endpoint URL (empty uses the built-in demo backend)")
	f.Bool("debug", true, "Enable the debug server and instrumentation")
	f.String("host", "", "Debug server bind host (empty binds every interface)")
	f.IntP("port", "p", config.DefaultDebugPort, "Debug server port (0 picks a free port)")
	f.String("advertise-host", "", "Host reported in the debug server URL")
	f.Bool("console-redirection", false, "Capture stdout and stderr from startup")
	f.Int("max-activity", config.DefaultMaxActivityRecords, "Activity records kept before the oldest is evicted")
	f.Int("console-buffer", config.DefaultConsoleBufferSize, "Console lines kept")
	f.StringSlice("allowed-origins", nil, "Origins allowed to read the debug API (empty allows any)")
	f.Int("cache-max-entries", 0, "Bound the normalized cache with LRU eviction (0 is unbounded)")
	f.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	f.String("log-format", config.DefaultLogFormat, "Log format (text, json)")
}

// loadConfig resolves configuration and applies every flag the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name, key string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
			cfg.SetSource(key, config.SourceFlag)
		}
	}
	integer := func(name, key string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
			cfg.SetSource(key, config.SourceFlag)
		}
	}
	boolean := func(name, key string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
			cfg.SetSource(key, config.SourceFlag)
		}
	}

	str("endpoint", "endpoint", &cfg.Endpoint)
	boolean("debug", "debug.enabled", &cfg.Debug.Enabled)
	str("host", "debug.host", &cfg.Debug.Host)
	integer("port", "debug.port", &cfg.Debug.Port)
	str("advertise-host", "debug.advertiseHost", &cfg.Debug.AdvertiseHost)
	boolean("console-redirection", "debug.consoleRedirection", &cfg.Debug.ConsoleRedirection)
	integer("max-activity", "debug.maxActivityRecords", &cfg.Debug.MaxActivityRecords)
	integer("console-buffer", "debug.consoleBufferSize", &cfg.Debug.ConsoleBufferSize)
	if f.Changed("allowed-origins") {
		cfg.Debug.AllowedOrigins, _ = f.GetStringSlice("allowed-origins")
		cfg.SetSource("debug.allowedOrigins", config.SourceFlag)
	}
	integer("cache-max-entries", "cache.maxEntries", &cfg.Cache.MaxEntries)
	str("log-level", "log.level", &cfg.Log.Level)
	str("log-format", "log.format", &cfg.Log.Format)
}
