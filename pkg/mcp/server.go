// Package mcp implements a Model Context Protocol server exposing the
// Mann-Whitney U test and mid-ranking as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/lru"
	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
	"github.com/Sumatoshi-tech/ranktest/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "ranktest"

	// toolCount is the expected number of registered tools.
	toolCount = 2

	// DefaultReportCacheSize is the number of reports memoized per server.
	DefaultReportCacheSize = 256
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Analyzer runs the tests. Nil builds one with default options.
	Analyzer *analysis.Analyzer

	// ReportCacheSize bounds the memoized reports. Zero uses DefaultReportCacheSize.
	ReportCacheSize int
}

// Server wraps the MCP SDK server with ranktest tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	mu       sync.RWMutex
	tools    []string
	metrics  *observability.REDMetrics
	tracer   trace.Tracer
	analyzer *analysis.Analyzer
	reports  *lru.Cache[string, *analysis.Report]
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	analyzer := deps.Analyzer
	if analyzer == nil {
		analyzer = analysis.New(analysis.Options{Logger: deps.Logger, Tracer: deps.Tracer})
	}

	cacheSize := deps.ReportCacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultReportCacheSize
	}

	srv := &Server{
		inner:    inner,
		tools:    make([]string, 0, toolCount),
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
		analyzer: analyzer,
		reports:  lru.New[string, *analysis.Report](cacheSize),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// CacheStats reports hit and miss counts of the report cache.
func (s *Server) CacheStats() lru.Stats {
	return s.reports.Stats()
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameMannWhitney,
		Description: mannWhitneyToolDescription,
	}, withMetrics(s.metrics, ToolNameMannWhitney, withTracing(s.tracer, ToolNameMannWhitney, s.handleMannWhitney)))

	s.trackTool(ToolNameMannWhitney)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRank,
		Description: rankToolDescription,
	}, withMetrics(s.metrics, ToolNameRank, withTracing(s.tracer, ToolNameRank, handleRank)))

	s.trackTool(ToolNameRank)
}

// mcpSpanPrefix is the prefix for MCP tool span names and RED op labels.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if result != nil && result.IsError {
			span.SetStatus(codes.Error, "tool returned error")
		}

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	mannWhitneyToolDescription = "Run a two-sided Mann-Whitney U test on two independent samples. " +
		"Returns U for each sample, the normal-approximation critical value with tie correction, " +
		"per-sample rank summaries and a significance verdict."

	rankToolDescription = "Assign mid-ranks to a list of numbers: tied values share the mean of " +
		"the positions they occupy. Returns observations sorted ascending with their ranks."
)
