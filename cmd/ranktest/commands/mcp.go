package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
	"github.com/Sumatoshi-tech/ranktest/pkg/mcp"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
)

const (
	mcpCmdUse   = "mcp"
	mcpCmdShort = "Start MCP server for AI agent integration"
	mcpCmdLong  = `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the test as tools that AI agents can discover and invoke:
  - mann_whitney_u: Mann-Whitney U test on two samples
  - rank_observations: mid-ranks of a list of numbers

With observability.metrics_addr set, /healthz, /readyz and /metrics are served
on that address while the server runs.`
)

func newMCPCommand(root *rootOptions) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   mcpCmdUse,
		Short: mcpCmdShort,
		Long:  mcpCmdLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				root.verbose = true
			}

			a, err := root.setup(cmd, observability.ModeMCP)
			if err != nil {
				return err
			}

			defer a.close()

			srv, err := newMCPServer(a)
			if err != nil {
				return err
			}

			if a.cfg.Observability.MetricsAddr != "" {
				diag, diagErr := observability.NewDiagnosticsServer(a.cfg.Observability.MetricsAddr, a.providers.MetricsHandler)
				if diagErr != nil {
					return diagErr
				}

				defer closeDiagnostics(a.logger, diag)

				a.logger.Info("diagnostics server listening", "addr", diag.Addr())
			}

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

func newMCPServer(a *app) (*mcp.Server, error) {
	red, err := observability.NewREDMetrics(a.providers.Meter)
	if err != nil {
		return nil, err
	}

	tm, err := observability.NewTestMetrics(a.providers.Meter)
	if err != nil {
		return nil, err
	}

	analyzer := analysis.New(analysis.Options{
		Threshold: a.cfg.Analysis.ApproximationThreshold,
		Logger:    a.logger,
		Tracer:    a.providers.Tracer,
		Metrics:   tm,
	})

	return mcp.NewServer(mcp.ServerDeps{
		Logger:   a.logger,
		Metrics:  red,
		Tracer:   a.providers.Tracer,
		Analyzer: analyzer,
	}), nil
}

func closeDiagnostics(logger *slog.Logger, diag *observability.DiagnosticsServer) {
	closeErr := diag.Close(context.Background())
	if closeErr != nil {
		logger.Warn("diagnostics shutdown failed", "error", closeErr)
	}
}
