// Package commands implements CLI command handlers for ranktest.
package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ranktest/pkg/config"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
	"github.com/Sumatoshi-tech/ranktest/pkg/version"
)

const (
	rootCmdUse   = "ranktest"
	rootCmdShort = "Mann-Whitney U rank-sum test for two independent samples"
	rootCmdLong  = `ranktest compares two independent samples with the Mann-Whitney U test.

Commands:
  run       Test two samples and print a report
  rank      Print mid-ranks of a list of observations
  validate  Check a samples document against the schema
  mcp       Serve the test as MCP tools over stdio
  version   Show build information`

	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
)

// Process exit codes.
const (
	exitCodeError             = 1
	exitCodeValidationFailure = 2
)

// ErrValidationFailed is returned when a samples document fails validation.
var ErrValidationFailed = errors.New("validation failed")

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if errors.Is(err, ErrValidationFailed) {
		return exitCodeValidationFailure
	}

	return exitCodeError
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logJSON    bool
}

// app is the per-invocation runtime: loaded configuration and telemetry.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
}

// NewRootCommand creates the ranktest root command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           rootCmdUse,
		Short:         rootCmdShort,
		Long:          rootCmdLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ranktest.yaml in ., ./config, /etc/ranktest)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "log errors only; validate also omits its success summary")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newRankCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newMCPCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// setup loads configuration and initializes telemetry for one command run.
func (o *rootOptions) setup(cmd *cobra.Command, mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(o.observabilityConfig(cmd, cfg, mode))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
	}, nil
}

func (o *rootOptions) observabilityConfig(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogWriter = cmd.ErrOrStderr()

	obsCfg.OTLPEndpoint = firstNonEmpty(cfg.Observability.OTLPEndpoint, os.Getenv(envOTLPEndpoint))
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(
		firstNonEmpty(cfg.Observability.OTLPHeaders, os.Getenv(envOTLPHeaders)))
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure || os.Getenv(envOTLPInsecure) == "true"

	obsCfg.Prometheus = mode == observability.ModeMCP && cfg.Observability.MetricsAddr != ""
	obsCfg.LogJSON = o.logJSON || cfg.Logging.Format == "json" || mode == observability.ModeMCP

	obsCfg.LogLevel = cfg.SlogLevel()

	switch {
	case o.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case o.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	return obsCfg
}

func (a *app) close() {
	shutdownErr := a.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		a.logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
