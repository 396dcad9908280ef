package config

// Defaults.
const (
	DefaultDebugPort          = 8081
	DefaultMaxActivityRecords = 1000
	DefaultConsoleBufferSize  = 1000
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// NewDefault returns a Config holding default values only.
func NewDefault() *Config {
	cfg := &Config{
		Debug: DebugConfig{
			Enabled:            true,
			Port:               DefaultDebugPort,
			MaxActivityRecords: DefaultMaxActivityRecords,
			ConsoleBufferSize:  DefaultConsoleBufferSize,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Sources: make(map[string]string),
	}
	for _, key := range Keys {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"endpoint",
	"debug.enabled",
	"debug.host",
	"debug.port",
	"debug.advertiseHost",
	"debug.consoleRedirection",
	"debug.maxActivityRecords",
	"debug.consoleBufferSize",
	"debug.allowedOrigins",
	"cache.maxEntries",
	"log.level",
	"log.format",
}
