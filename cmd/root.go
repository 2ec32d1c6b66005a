package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ca-srg/researchpanel/internal/config"
	"github.com/ca-srg/researchpanel/internal/logging"
	"github.com/ca-srg/researchpanel/internal/metrics"
	"github.com/ca-srg/researchpanel/internal/observability"
	"github.com/ca-srg/researchpanel/internal/research"
	"github.com/ca-srg/researchpanel/internal/types"
)

type appConfigLoader func() (*types.Config, error)

var (
	logLevel string

	loadAppConfig appConfigLoader = defaultLoadAppConfig

	appConfig             *types.Config
	logger                = logging.Discard()
	observabilityShutdown observability.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "researchpanel",
	Short: "researchpanel - company research query panel",
	Long: `researchpanel sends free-text research queries to a search endpoint
and renders the returned company profiles as result cards, either in a
browser (webui) or in the terminal (query).`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRuntime,
}

// Execute runs the root command. Telemetry is flushed even when the command fails.
func Execute() error {
	defer teardownRuntime()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(webuiCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
}

func defaultLoadAppConfig() (*types.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load()
}

// setupRuntime loads configuration and starts logging, telemetry and metrics
func setupRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if flagChanged(cmd.Flags(), "log-level") {
		cfg.LogLevel = logLevel
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	logger = logging.New(os.Stderr, level)
	slog.SetDefault(logger)
	appConfig = cfg

	shutdown, err := observability.Init(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	observabilityShutdown = shutdown

	if cfg.MetricsEnabled {
		if err := metrics.Init(cfg.MetricsDBPath); err != nil {
			logger.Warn("submission metrics disabled", "path", cfg.MetricsDBPath, "error", err)
		} else if err := metrics.InitOTelMetrics(); err != nil {
			logger.Warn("failed to register submission gauge", "error", err)
		}
	}

	return nil
}

// teardownRuntime flushes telemetry and closes the metrics store
func teardownRuntime() {
	if err := metrics.Close(); err != nil {
		logger.Warn("failed to close metrics store", "error", err)
	}

	if observabilityShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := observabilityShutdown(ctx); err != nil {
		logger.Warn("failed to flush telemetry", "error", err)
	}
	observabilityShutdown = nil
}

// newSearchClient builds the search endpoint client from the configuration
func newSearchClient(cfg *types.Config) (*research.Client, error) {
	return research.NewClient(research.ClientConfig{
		BaseURL:   cfg.ResearchEndpointURL,
		Timeout:   cfg.ResearchRequestTimeout,
		RateLimit: cfg.ResearchRateLimit,
		RateBurst: cfg.ResearchRateBurst,
		Logger:    logger,
	})
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}
