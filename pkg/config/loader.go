package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileNames are searched for in the working directory when no config
// file is given.
var DefaultFileNames = []string{".gqldevkit.yaml", ".gqldevkit.yml"}

// ConfigError reports a config file that could not be parsed.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return e.Path + ": " + e.Message
}

// fileConfig mirrors Config with pointers so keys absent from the file can be
// told apart from explicit zero values.
type fileConfig struct {
	Endpoint *string `yaml:"endpoint"`
	Debug    struct {
		Enabled            *bool    `yaml:"enabled"`
		Host               *string  `yaml:"host"`
		Port               *int     `yaml:"port"`
		AdvertiseHost      *string  `yaml:"advertiseHost"`
		ConsoleRedirection *bool    `yaml:"consoleRedirection"`
		MaxActivityRecords *int     `yaml:"maxActivityRecords"`
		ConsoleBufferSize  *int     `yaml:"consoleBufferSize"`
		AllowedOrigins     []string `yaml:"allowedOrigins"`
	} `yaml:"debug"`
	Cache struct {
		MaxEntries *int `yaml:"maxEntries"`
	} `yaml:"cache"`
	Log struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`
}

// FindConfigFile returns the first default config file present in dir, or
// an empty string.
func FindConfigFile(dir string) string {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFile merges the YAML file at path into cfg. Unknown keys are rejected.
func LoadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		cerr := &ConfigError{Path: path, Message: err.Error()}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			cerr.Message = typeErr.Errors[0]
		}
		return cerr
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	set := func(key string) { cfg.Sources[key] = SourceFile }

	if fc.Endpoint != nil {
		cfg.Endpoint = *fc.Endpoint
		set("endpoint")
	}
	if v := fc.Debug.Enabled; v != nil {
		cfg.Debug.Enabled = *v
		set("debug.enabled")
	}
	if v := fc.Debug.Host; v != nil {
		cfg.Debug.Host = *v
		set("debug.host")
	}
	if v := fc.Debug.Port; v != nil {
		cfg.Debug.Port = *v
		set("debug.port")
	}
	if v := fc.Debug.AdvertiseHost; v != nil {
		cfg.Debug.AdvertiseHost = *v
		set("debug.advertiseHost")
	}
	if v := fc.Debug.ConsoleRedirection; v != nil {
		cfg.Debug.ConsoleRedirection = *v
		set("debug.consoleRedirection")
	}
	if v := fc.Debug.MaxActivityRecords; v != nil {
		cfg.Debug.MaxActivityRecords = *v
		set("debug.maxActivityRecords")
	}
	if v := fc.Debug.ConsoleBufferSize; v != nil {
		cfg.Debug.ConsoleBufferSize = *v
		set("debug.consoleBufferSize")
	}
	if fc.Debug.AllowedOrigins != nil {
		cfg.Debug.AllowedOrigins = fc.Debug.AllowedOrigins
		set("debug.allowedOrigins")
	}
	if v := fc.Cache.MaxEntries; v != nil {
		cfg.Cache.MaxEntries = *v
		set("cache.maxEntries")
	}
	if v := fc.Log.Level; v != nil {
		cfg.Log.Level = *v
		set("log.level")
	}
	if v := fc.Log.Format; v != nil {
		cfg.Log.Format = *v
		set("log.format")
	}
}

// Load resolves defaults, the config file and the environment. path may be
// empty, in which case GQLDEVKIT_CONFIG and then the default file names in
// the working directory are tried. lookup is usually os.LookupEnv.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := NewDefault()

	if path == "" {
		if v, ok := lookup(EnvConfig); ok && v != "" {
			path = v
		} else {
			path = FindConfigFile("")
		}
	}
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := LoadEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}
