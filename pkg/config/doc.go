// Package config loads gqldevkit configuration.
//
// Values are resolved with the following precedence, highest first:
//
//  1. Command-line flags (applied by the caller)
//  2. GQLDEVKIT_* environment variables
//  3. The YAML config file (--config, GQLDEVKIT_CONFIG, or ./.gqldevkit.yaml)
//  4. Defaults
//
// Sources records where each value came from, for `gqldevkit config`.
package config
