package analysis_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
)

var scenarioA = utest.SamplesPair{
	{30, 14, 6, 11, 88, 1, 3, 7},
	{12, 15, 16, 42, 9, 9, 30, 28},
}

func newTestAnalyzer(t *testing.T, threshold int) (*analysis.Analyzer, *tracetest.InMemoryExporter, *sdkmetric.ManualReader) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	tm, err := observability.NewTestMetrics(mp.Meter("test"))
	require.NoError(t, err)

	an := analysis.New(analysis.Options{
		Threshold: threshold,
		Tracer:    tp.Tracer("test"),
		Metrics:   tm,
	})

	return an, exporter, reader
}

func runsByOutcome(t *testing.T, reader *sdkmetric.ManualReader, outcome string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	want := attribute.NewSet(attribute.String("outcome", outcome))

	var total int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "ranktest.utest.runs.total" {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				if dp.Attributes.Equals(&want) {
					total += dp.Value
				}
			}
		}
	}

	return total
}

func TestAnalyze_ScenarioA(t *testing.T) {
	t.Parallel()

	an, exporter, reader := newTestAnalyzer(t, 0)

	report, err := an.Analyze(context.Background(), scenarioA)
	require.NoError(t, err)

	assert.Equal(t, utest.UPair{19.5, 44.5}, report.U)
	assert.InDelta(t, 19.5, report.UMin, 0)
	assert.Equal(t, 64, report.Product)
	assert.Equal(t, 16, report.Pooled)
	assert.Equal(t, []analysis.TieGroup{{Value: 9, Count: 2}, {Value: 30, Count: 2}}, report.Ties)

	require.NotNil(t, report.CriticalValue)
	assert.InDelta(t, 1.3146973809739728, *report.CriticalValue, 1e-12)
	assert.False(t, report.Significant)
	assert.False(t, report.Degenerate)
	assert.False(t, report.ApproximationReliable)
	assert.Equal(t, utest.DefaultApproximationThreshold, report.Threshold)
	assert.Equal(t, analysis.VerdictNotSignificant, report.Verdict)

	first := report.Samples[0]
	assert.Equal(t, []float64{13.5, 9, 3, 7, 16, 1, 2, 4}, first.Ranks)
	assert.InDelta(t, 55.5, first.RankSum, 0)
	assert.InDelta(t, 6.9375, first.MeanRank, 1e-12)
	assert.InDelta(t, 19.5, first.U, 0)
	assert.Equal(t, 8, first.Summary.Count)
	assert.InDelta(t, 9.0, first.Summary.Median, 1e-12)

	second := report.Samples[1]
	assert.Equal(t, []float64{8, 10, 11, 15, 5.5, 5.5, 13.5, 12}, second.Ranks)
	assert.InDelta(t, 80.5, second.RankSum, 0)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "ranktest.analyze", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("utest.verdict", analysis.VerdictNotSignificant))

	assert.Equal(t, int64(1), runsByOutcome(t, reader, observability.OutcomeNotSignificant))
}

func TestAnalyze_Separated(t *testing.T) {
	t.Parallel()

	an, _, reader := newTestAnalyzer(t, 0)

	report, err := an.Analyze(context.Background(), utest.SamplesPair{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	assert.True(t, report.Significant)
	assert.Equal(t, analysis.VerdictSignificant, report.Verdict)
	require.NotNil(t, report.CriticalValue)
	assert.InDelta(t, 1.9639610121239315, *report.CriticalValue, 1e-12)
	assert.Empty(t, report.Ties)

	assert.Equal(t, int64(1), runsByOutcome(t, reader, observability.OutcomeSignificant))
}

func TestAnalyze_Degenerate(t *testing.T) {
	t.Parallel()

	an, _, reader := newTestAnalyzer(t, 0)

	report, err := an.Analyze(context.Background(), utest.SamplesPair{{5, 5, 5}, {5, 5}})
	require.NoError(t, err)

	assert.True(t, report.Degenerate)
	assert.False(t, report.Significant)
	assert.Nil(t, report.CriticalValue)
	assert.Equal(t, analysis.VerdictDegenerate, report.Verdict)
	assert.Equal(t, utest.UPair{3, 3}, report.U)
	assert.Equal(t, []analysis.TieGroup{{Value: 5, Count: 5}}, report.Ties)
	assert.Equal(t, "normal approximation undefined: zero variance, all 5 observations are tied", report.Detail)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"critical_value":null`)

	assert.Equal(t, int64(1), runsByOutcome(t, reader, observability.OutcomeDegenerate))
}

func TestAnalyze_ThresholdOverride(t *testing.T) {
	t.Parallel()

	an, _, _ := newTestAnalyzer(t, 5)
	assert.Equal(t, 5, an.Threshold())

	report, err := an.Analyze(context.Background(), scenarioA)
	require.NoError(t, err)

	assert.True(t, report.ApproximationReliable)
	assert.Equal(t, 5, report.Threshold)
}

func TestAnalyze_EmptySampleFails(t *testing.T) {
	t.Parallel()

	an, exporter, reader := newTestAnalyzer(t, 0)

	_, err := an.Analyze(context.Background(), utest.SamplesPair{{1, 2}, {}})
	require.ErrorIs(t, err, utest.ErrEmptySample)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	assert.Equal(t, int64(1), runsByOutcome(t, reader, observability.OutcomeInvalid))
}

func TestAnalyzeInput(t *testing.T) {
	t.Parallel()

	an, _, reader := newTestAnalyzer(t, 0)

	report, err := an.AnalyzeInput(context.Background(), []any{
		[]any{1.0, 2.0, 3.0},
		[]any{4.0, 5.0, 6.0},
	})
	require.NoError(t, err)
	assert.Equal(t, utest.UPair{0, 9}, report.U)

	_, err = an.AnalyzeInput(context.Background(), "not samples")
	require.ErrorIs(t, err, utest.ErrInvalidInput)
	require.ErrorIs(t, err, utest.ErrNotSequence)

	assert.Equal(t, int64(1), runsByOutcome(t, reader, observability.OutcomeInvalid))
}

func TestNew_WithoutOptions(t *testing.T) {
	t.Parallel()

	an := analysis.New(analysis.Options{})

	report, err := an.Analyze(context.Background(), scenarioA)
	require.NoError(t, err)
	assert.Equal(t, utest.UPair{19.5, 44.5}, report.U)
}

func TestWithThreshold(t *testing.T) {
	t.Parallel()

	an := analysis.New(analysis.Options{})

	assert.Equal(t, 3, an.WithThreshold(3).Threshold())
	assert.Equal(t, utest.DefaultApproximationThreshold, an.WithThreshold(0).Threshold())
	assert.Equal(t, utest.DefaultApproximationThreshold, an.Threshold())
}

func TestRecord_CountsServedReport(t *testing.T) {
	t.Parallel()

	an, _, reader := newTestAnalyzer(t, 0)

	report, err := an.Analyze(context.Background(), utest.SamplesPair{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	an.Record(context.Background(), report)

	assert.Equal(t, int64(2), runsByOutcome(t, reader, observability.OutcomeSignificant))
}
