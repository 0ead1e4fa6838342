package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTestsTotal          = "ranktest.utest.runs.total"
	metricConsistencyFailures = "ranktest.utest.consistency.failures.total"
	metricDegenerateTotal     = "ranktest.utest.degenerate.total"
	metricPooledSize          = "ranktest.utest.pooled.size"

	attrOutcome = "outcome"
)

// Test outcomes recorded on the runs counter.
const (
	OutcomeSignificant    = "significant"
	OutcomeNotSignificant = "not_significant"
	OutcomeDegenerate     = "degenerate"
	OutcomeInconsistent   = "inconsistent"
	OutcomeInvalid        = "invalid"
)

// pooledSizeBoundaries brackets the usual U-table limit (20 per sample).
var pooledSizeBoundaries = []float64{2, 5, 10, 20, 40, 100, 1000, 10000}

// TestMetrics holds OTel instruments for Mann-Whitney test runs.
type TestMetrics struct {
	runsTotal           metric.Int64Counter
	consistencyFailures metric.Int64Counter
	degenerateTotal     metric.Int64Counter
	pooledSize          metric.Int64Histogram
}

// NewTestMetrics creates test metric instruments from the given meter.
func NewTestMetrics(mt metric.Meter) (*TestMetrics, error) {
	runs, err := mt.Int64Counter(metricTestsTotal,
		metric.WithDescription("Total Mann-Whitney U test runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTestsTotal, err)
	}

	consistency, err := mt.Int64Counter(metricConsistencyFailures,
		metric.WithDescription("Runs where U0+U1 differed from n0*n1"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricConsistencyFailures, err)
	}

	degenerate, err := mt.Int64Counter(metricDegenerateTotal,
		metric.WithDescription("Runs where the normal approximation was undefined"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDegenerateTotal, err)
	}

	pooled, err := mt.Int64Histogram(metricPooledSize,
		metric.WithDescription("Pooled observation count per run"),
		metric.WithUnit("{observation}"),
		metric.WithExplicitBucketBoundaries(pooledSizeBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPooledSize, err)
	}

	return &TestMetrics{
		runsTotal:           runs,
		consistencyFailures: consistency,
		degenerateTotal:     degenerate,
		pooledSize:          pooled,
	}, nil
}

// RecordRun records one test run with its outcome and pooled size.
// Pass pooled <= 0 when the input never reached ranking.
func (tm *TestMetrics) RecordRun(ctx context.Context, outcome string, pooled int) {
	tm.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))

	if pooled > 0 {
		tm.pooledSize.Record(ctx, int64(pooled))
	}

	switch outcome {
	case OutcomeInconsistent:
		tm.consistencyFailures.Add(ctx, 1)
	case OutcomeDegenerate:
		tm.degenerateTotal.Add(ctx, 1)
	}
}
