package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
)

// Tool name constants.
const (
	ToolNameMannWhitney = "mann_whitney_u"
	ToolNameRank        = "rank_observations"
)

// MaxObservations caps the observations accepted by a single tool call.
const MaxObservations = 1 << 20

var (
	// ErrEmptyValues indicates the values parameter is empty.
	ErrEmptyValues = errors.New("values parameter is required and must not be empty")
	// ErrTooManyObservations indicates the input exceeds MaxObservations.
	ErrTooManyObservations = errors.New("too many observations")
	// ErrNotFinite indicates an observation that is NaN or infinite.
	ErrNotFinite = errors.New("observation is not finite")
)

// Input types (auto-generate JSON schemas via struct tags).

// MannWhitneyInput is the input schema for the mann_whitney_u tool.
type MannWhitneyInput struct {
	SampleA   []float64 `json:"sample_a"            jsonschema:"first sample of numeric observations"`
	SampleB   []float64 `json:"sample_b"            jsonschema:"second sample of numeric observations"`
	Threshold int       `json:"threshold,omitempty" jsonschema:"sample size above which the normal approximation is trusted (default 20)"`
}

// RankInput is the input schema for the rank_observations tool.
type RankInput struct {
	Values []float64 `json:"values" jsonschema:"observations to rank"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleMannWhitney(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input MannWhitneyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.SampleA)+len(input.SampleB) > MaxObservations {
		return errorResult(fmt.Errorf("%w: max %d", ErrTooManyObservations, MaxObservations))
	}

	analyzer := s.analyzer.WithThreshold(input.Threshold)
	key := reportKey(analyzer.Threshold(), input.SampleA, input.SampleB)

	if report, ok := s.reports.Get(key); ok {
		analyzer.Record(ctx, report)

		return jsonResult(report)
	}

	report, err := analyzer.Analyze(ctx, utest.SamplesPair{input.SampleA, input.SampleB})
	if err != nil {
		return errorResult(err)
	}

	s.reports.Put(key, report)

	return jsonResult(report)
}

// reportKey encodes the threshold and both samples in order. Sample
// boundaries are kept so that moving a value between samples changes the key.
func reportKey(threshold int, a, b []float64) string {
	buf := make([]byte, 0, (len(a)+len(b))*8+16)
	buf = strconv.AppendInt(buf, int64(threshold), 10)

	for _, sample := range [2][]float64{a, b} {
		buf = append(buf, '|')

		for idx, v := range sample {
			if idx > 0 {
				buf = append(buf, ',')
			}

			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
	}

	return string(buf)
}

func handleRank(_ context.Context, _ *mcpsdk.CallToolRequest, input RankInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Values) == 0 {
		return errorResult(ErrEmptyValues)
	}

	if len(input.Values) > MaxObservations {
		return errorResult(fmt.Errorf("%w: max %d", ErrTooManyObservations, MaxObservations))
	}

	for idx, v := range input.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errorResult(fmt.Errorf("%w: index %d", ErrNotFinite, idx))
		}
	}

	return jsonResult(utest.Rank(input.Values))
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
