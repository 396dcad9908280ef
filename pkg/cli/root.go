package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gqldevkit",
		Short: "gqldevkit runs a GraphQL client host with an embedded debug server",
		Long: `gqldevkit runs an example GraphQL client host whose transport, normalized
cache and console output can be inspected live over HTTP.

Configuration can be provided via flags, GQLDEVKIT_* environment variables,
or a YAML file (--config, GQLDEVKIT_CONFIG, or ./.gqldevkit.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to a YAML config file")

	root.AddCommand(newServeCmd(), newConfigCmd(), newVersionCmd())
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gqldevkit %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
