package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cuemby/logwatch/pkg/api"
	"github.com/cuemby/logwatch/pkg/config"
	"github.com/cuemby/logwatch/pkg/events"
	"github.com/cuemby/logwatch/pkg/log"
	"github.com/cuemby/logwatch/pkg/reconciler"
	"github.com/cuemby/logwatch/pkg/resolver"
	"github.com/cuemby/logwatch/pkg/restart"
	"github.com/cuemby/logwatch/pkg/runtime"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "logwatch",
	Short: "logwatch - restart containers when their logs say so",
	Long: `logwatch tails the logs of watched containers and restarts a set of
target containers whenever a log line contains one of the configured
patterns.

Examples:
  # Restart web when it logs OOM
  logwatch -w web -r web -p OOM

  # Restart db and web on FATAL or PANIC from db, ignoring the first hit
  logwatch -w db -r db,web -p FATAL,PANIC -s true

  # Load watches from a file and expose metrics
  logwatch -c logwatch.yaml --metrics-addr :9090`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatchdog,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"logwatch version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	registerFlags(rootCmd)
}

func registerFlags(cmd *cobra.Command) {
	def := config.Default()

	cmd.Flags().StringArrayP("watch", "w", nil, "Container to watch (repeatable)")
	cmd.Flags().StringArrayP("restart", "r", nil, "Comma-separated containers to restart for the matching --watch (repeatable)")
	cmd.Flags().StringArrayP("pattern", "p", nil, "Comma-separated log patterns for the matching --watch (repeatable)")
	cmd.Flags().StringArrayP("skip-first", "s", nil, "Ignore the first match for the matching --watch: true or false (repeatable)")
	cmd.Flags().StringArray("policy", nil, "What to do after a restart for the matching --watch: debounced or single-shot (repeatable)")
	cmd.Flags().StringP("config", "c", "", "YAML file with watches, instead of --watch flags")

	cmd.Flags().String("docker-host", "", "Docker daemon address (default $DOCKER_HOST or the local socket)")
	cmd.Flags().Duration("interval", def.Interval, "Time between reconciliation ticks")
	cmd.Flags().Duration("retry-backoff", def.RetryBackoff, "Wait after failing to list containers")
	cmd.Flags().Duration("lookback", def.Lookback, "How far back a new monitor reads logs")
	cmd.Flags().Duration("reopen-delay", def.ReopenDelay, "Wait before reopening a broken log stream")
	cmd.Flags().Duration("restart-timeout", def.RestartTimeout, "Stop timeout for restarts (0 uses the container's own)")

	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().Bool("log-json", false, "Log in JSON instead of console format")
	cmd.Flags().String("metrics-addr", "", "Address for /metrics and /health (disabled when empty)")
}

// loadConfig builds the configuration from --config or the watch flags.
// Timing flags given explicitly override the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	var cfg *config.Config
	if path != "" {
		if flags.Changed("watch") {
			return nil, fmt.Errorf("%w: --config and --watch are mutually exclusive", config.ErrInvalid)
		}
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		watch, _ := flags.GetStringArray("watch")
		restartTargets, _ := flags.GetStringArray("restart")
		pattern, _ := flags.GetStringArray("pattern")
		skipFirst, _ := flags.GetStringArray("skip-first")
		policy, _ := flags.GetStringArray("policy")

		watches, err := config.WatchesFromFlags(watch, restartTargets, pattern, skipFirst, policy)
		if err != nil {
			return nil, err
		}
		cfg = config.Default()
		cfg.Watches = watches
	}

	durations := []struct {
		flag   string
		target *time.Duration
	}{
		{"interval", &cfg.Interval},
		{"retry-backoff", &cfg.RetryBackoff},
		{"lookback", &cfg.Lookback},
		{"reopen-delay", &cfg.ReopenDelay},
		{"restart-timeout", &cfg.RestartTimeout},
	}
	for _, d := range durations {
		if !flags.Changed(d.flag) {
			continue
		}
		v, err := flags.GetDuration(d.flag)
		if err != nil {
			return nil, fmt.Errorf("%w: --%s: %w", config.ErrInvalid, d.flag, err)
		}
		*d.target = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWatchdog(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	jsonOutput, _ := cmd.Flags().GetBool("log-json")
	log.Init(log.Config{
		Level:      log.ParseLevel(level),
		JSONOutput: jsonOutput,
		Output:     os.Stderr,
	})
	logger := log.WithComponent("main")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dockerHost, _ := cmd.Flags().GetString("docker-host")
	rt, err := runtime.NewDockerRuntime(ctx, runtime.Options{
		Host:           dockerHost,
		RestartTimeout: cfg.RestartTimeout,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	res := resolver.NewResolver(rt)
	wake := events.NewWake()
	coordinator := restart.NewCoordinator(res, rt, wake)
	rec := reconciler.NewReconciler(registry, res, rt, coordinator, wake, cfg.ReconcilerConfig())

	logger.Info().
		Str("version", Version).
		Int("watches", registry.Len()).
		Msg("Starting logwatch")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec.Run(gctx)
		return nil
	})

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr != "" {
		api.Version = Version
		hs := api.NewHealthServer(rec)
		g.Go(func() error {
			return hs.Serve(gctx, metricsAddr)
		})
	}

	err = g.Wait()
	logger.Info().Msg("Shutdown complete")
	return err
}
