package config

// Config is the complete gqldevkit configuration.
type Config struct {
	// Endpoint is the GraphQL endpoint the example host queries. Empty uses
	// the built-in demo backend.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	Debug DebugConfig `yaml:"debug" json:"debug"`
	Cache CacheConfig `yaml:"cache" json:"cache"`
	Log   LogConfig   `yaml:"log" json:"log"`

	// Sources tracks where each value came from.
	Sources map[string]string `yaml:"-" json:"-"`
}

// DebugConfig configures the debugging facility.
type DebugConfig struct {
	Enabled            bool     `yaml:"enabled" json:"enabled"`
	Host               string   `yaml:"host" json:"host"`
	Port               int      `yaml:"port" json:"port"`
	AdvertiseHost      string   `yaml:"advertiseHost" json:"advertiseHost,omitempty"`
	ConsoleRedirection bool     `yaml:"consoleRedirection" json:"consoleRedirection"`
	MaxActivityRecords int      `yaml:"maxActivityRecords" json:"maxActivityRecords"`
	ConsoleBufferSize  int      `yaml:"consoleBufferSize" json:"consoleBufferSize"`
	AllowedOrigins     []string `yaml:"allowedOrigins" json:"allowedOrigins,omitempty"`
}

// CacheConfig configures the normalized cache.
type CacheConfig struct {
	// MaxEntries bounds the cache with LRU eviction. Zero is unbounded.
	MaxEntries int `yaml:"maxEntries" json:"maxEntries"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Value sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)
