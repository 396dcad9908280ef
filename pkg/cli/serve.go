package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/gqldevkit/internal/hostapp"
	"github.com/getmockd/gqldevkit/pkg/config"
	"github.com/getmockd/gqldevkit/pkg/debugserver"
	"github.com/getmockd/gqldevkit/pkg/devkit"
	"github.com/getmockd/gqldevkit/pkg/logging"
	"github.com/getmockd/gqldevkit/pkg/metrics"
	"github.com/getmockd/gqldevkit/pkg/normcache"
	"github.com/getmockd/gqldevkit/pkg/transport"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the example host with the debug server",
		Long: `Run the example host. It loads a post list through the configured GraphQL
endpoint (or the built-in demo backend), normalizes it into the cache and
serves the debug API until interrupted.

Commands read from stdin:
  reload   (r)  Run ListPosts again
  console  (c)  Toggle console redirection
  status   (s)  Show the debug server URL and counters
  quit     (q)  Exit`,
		Example: `  # Demo backend, debug server on the default port
  gqldevkit serve

  # Real endpoint, free port, console captured from startup
  gqldevkit serve --endpoint https://api.example.com/graphql --port 0 --console-redirection

  # Release wiring: no instrumentation, no debug server
  gqldevkit serve --debug=false`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addConfigFlags(cmd)
	cmd.Flags().String("log-file", "", "Also write JSON logs to this file")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logCfg.Mirror = f
	}
	log := logging.New(logCfg)

	app, err := buildApp(cfg, log, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Start(ctx)
	defer func() {
		if err := app.Stop(); err != nil {
			log.Warn("debug server did not stop cleanly", "error", err)
		}
	}()

	return runActions(ctx, app, cmd.InOrStdin(), log)
}

// buildApp wires the transport, cache and kit described by cfg.
func buildApp(cfg *config.Config, log *slog.Logger, out io.Writer) (*hostapp.App, error) {
	var base transport.NetworkTransport
	if cfg.Endpoint == "" {
		log.Info("no endpoint configured, using the demo backend")
		base = hostapp.NewDemoTransport()
	} else {
		base = transport.NewHTTPTransport(cfg.Endpoint,
			transport.WithHTTPLogger(log.With("component", "http")))
	}

	var m *metrics.Metrics
	if cfg.Debug.Enabled {
		m = metrics.New()
	}

	var cache normcache.NormalizedCache = normcache.NewMemoryCache()
	if cfg.Cache.MaxEntries > 0 {
		lru, err := normcache.NewLRUCache(cfg.Cache.MaxEntries, func(key string) {
			m.ObserveCacheEviction()
			log.Debug("cache record evicted", "key", key)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		cache = lru
	}

	kit := devkit.New(devkit.Config{
		Debug: cfg.Debug.Enabled,
		Port:  cfg.Debug.Port,
		Server: debugserver.Config{
			Host:           cfg.Debug.Host,
			AdvertiseHost:  cfg.Debug.AdvertiseHost,
			AllowedOrigins: cfg.Debug.AllowedOrigins,
			Version:        Version,
		},
		MaxActivityRecords: cfg.Debug.MaxActivityRecords,
		ConsoleBufferSize:  cfg.Debug.ConsoleBufferSize,
		ConsoleRedirection: cfg.Debug.ConsoleRedirection,
	}, base, cache, devkit.WithLogger(log), devkit.WithMetrics(m))

	opts := []hostapp.Option{hostapp.WithLogger(log.With("component", "host"))}
	if out != os.Stdout {
		opts = append(opts, hostapp.WithOutput(out))
	}
	return hostapp.New(kit, opts...), nil
}

// runActions feeds stdin commands to the app until quit, EOF followed by a
// signal, or cancellation.
func runActions(ctx context.Context, app *hostapp.App, in io.Reader, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Scan blocks without regard to ctx, so it runs outside the group and
	// is abandoned on exit.
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	actions := make(chan hostapp.Action)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					// stdin closed; keep serving until interrupted
					return nil
				}
				if line == "" {
					continue
				}
				action, err := hostapp.ParseAction(line)
				if err != nil {
					log.Warn("ignoring input", "error", err)
					continue
				}
				select {
				case actions <- action:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})
	g.Go(func() error {
		defer cancel()
		return app.Run(gctx, actions)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
