package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/gqldevkit/pkg/config"
)

func newConfigCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration",
		Long: `Display the configuration serve would use after defaults, the config file,
GQLDEVKIT_* environment variables and flags are applied, with the source of
each value.`,
		Example: `  gqldevkit config
  gqldevkit config --port 9000 --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			case "table", "":
				return printConfigTable(cmd, cfg)
			default:
				return fmt.Errorf("unknown output format %q (table, json, yaml)", format)
			}
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func printConfigTable(cmd *cobra.Command, cfg *config.Config) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	for _, key := range config.Keys {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, configValue(cfg, key), cfg.Source(key))
	}
	return tw.Flush()
}

func configValue(cfg *config.Config, key string) string {
	switch key {
	case "endpoint":
		if cfg.Endpoint == "" {
			return "(demo)"
		}
		return cfg.Endpoint
	case "debug.enabled":
		return fmt.Sprint(cfg.Debug.Enabled)
	case "debug.host":
		return orDash(cfg.Debug.Host)
	case "debug.port":
		return fmt.Sprint(cfg.Debug.Port)
	case "debug.advertiseHost":
		return orDash(cfg.Debug.AdvertiseHost)
	case "debug.consoleRedirection":
		return fmt.Sprint(cfg.Debug.ConsoleRedirection)
	case "debug.maxActivityRecords":
		return fmt.Sprint(cfg.Debug.MaxActivityRecords)
	case "debug.consoleBufferSize":
		return fmt.Sprint(cfg.Debug.ConsoleBufferSize)
	case "debug.allowedOrigins":
		return orDash(strings.Join(cfg.Debug.AllowedOrigins, ","))
	case "cache.maxEntries":
		return fmt.Sprint(cfg.Cache.MaxEntries)
	case "log.level":
		return cfg.Log.Level
	case "log.format":
		return cfg.Log.Format
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
