// Package analysis runs the Mann-Whitney U pipeline end to end and builds a
// report suitable for rendering, with tracing, logging and metrics attached.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
)

const tracerName = "github.com/Sumatoshi-tech/ranktest/analysis"

// Options configures an Analyzer. Zero values select defaults.
type Options struct {
	// Threshold is the sample size above which the approximation is reliable.
	Threshold int
	Logger    *slog.Logger
	// Tracer falls back to otel.Tracer when nil.
	Tracer trace.Tracer
	// Metrics is optional.
	Metrics *observability.TestMetrics
}

// Analyzer runs Mann-Whitney U tests and produces reports.
type Analyzer struct {
	threshold int
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.TestMetrics
}

// New creates an Analyzer from opts.
func New(opts Options) *Analyzer {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = utest.DefaultApproximationThreshold
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Analyzer{
		threshold: threshold,
		logger:    observability.ComponentLogger(opts.Logger, "analysis"),
		tracer:    tracer,
		metrics:   opts.Metrics,
	}
}

// Threshold returns the approximation threshold in effect.
func (a *Analyzer) Threshold() int {
	return a.threshold
}

// WithThreshold returns a copy of the Analyzer using threshold.
// Non-positive values keep the current threshold.
func (a *Analyzer) WithThreshold(threshold int) *Analyzer {
	clone := *a
	if threshold > 0 {
		clone.threshold = threshold
	}

	return &clone
}

// AnalyzeInput validates raw input with utest.Parse, then analyzes it.
func (a *Analyzer) AnalyzeInput(ctx context.Context, input any) (*Report, error) {
	samples, err := utest.Parse(input)
	if err != nil {
		a.record(ctx, observability.OutcomeInvalid, 0)

		return nil, fmt.Errorf("parse samples: %w", err)
	}

	return a.Analyze(ctx, samples)
}

// Analyze runs the test on samples. Consistency failures and invalid input
// are returned as errors; numeric degeneracy yields a degenerate report.
func (a *Analyzer) Analyze(ctx context.Context, samples utest.SamplesPair) (*Report, error) {
	n0, n1 := samples.Sizes()
	pooled := n0 + n1

	ctx, span := a.tracer.Start(ctx, "ranktest.analyze",
		trace.WithAttributes(
			attribute.Int("utest.n0", n0),
			attribute.Int("utest.n1", n1),
		))
	defer span.End()

	u, err := utest.Test(samples)
	if err != nil {
		return nil, a.fail(ctx, span, err, pooled)
	}

	err = utest.VerifyConsistency(u, samples)
	if err != nil {
		return nil, a.fail(ctx, span, err, pooled)
	}

	report := a.buildReport(samples, u)

	z, zErr := utest.CriticalValue(u, samples)
	significant, sigErr := utest.IsSignificant(u, samples)

	degenerate := errors.Is(zErr, utest.ErrNumericDegeneracy) || errors.Is(sigErr, utest.ErrNumericDegeneracy)
	report.decide(z, significant, degenerate)

	span.SetAttributes(
		attribute.Float64("utest.u_min", report.UMin),
		attribute.String("utest.verdict", report.Verdict),
		attribute.Bool("utest.approximation_reliable", report.ApproximationReliable),
	)

	a.Record(ctx, report)

	a.logger.DebugContext(ctx, "analysis complete",
		"n0", n0, "n1", n1, "u0", u[0], "u1", u[1], "verdict", report.Verdict)

	return report, nil
}

func (a *Analyzer) buildReport(samples utest.SamplesPair, u utest.UPair) *Report {
	n0, n1 := samples.Sizes()

	rankOf := make(map[float64]float64, n0+n1)
	for _, obs := range utest.Rank(samples.Pooled()) {
		rankOf[obs.Value] = obs.Rank
	}

	return &Report{
		Samples: [2]SampleReport{
			sampleReport(samples[0], rankOf, u[0]),
			sampleReport(samples[1], rankOf, u[1]),
		},
		U:                     u,
		UMin:                  u.Min(),
		Product:               n0 * n1,
		Pooled:                n0 + n1,
		Ties:                  tieGroups(samples),
		ApproximationReliable: utest.ApproximationReliable(samples, a.threshold),
		Threshold:             a.threshold,
	}
}

func (a *Analyzer) fail(ctx context.Context, span trace.Span, err error, pooled int) error {
	outcome := observability.OutcomeInvalid
	if errors.Is(err, utest.ErrConsistencyFailure) {
		outcome = observability.OutcomeInconsistent
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	a.record(ctx, outcome, pooled)
	a.logger.WarnContext(ctx, "analysis failed", "outcome", outcome, "error", err)

	return fmt.Errorf("mann-whitney u: %w", err)
}

// Record counts a completed report in the test metrics. Analyze calls it
// itself; callers serving a report from a cache call it to keep run counts
// complete.
func (a *Analyzer) Record(ctx context.Context, report *Report) {
	a.record(ctx, report.outcome(), report.Pooled)
}

func (a *Analyzer) record(ctx context.Context, outcome string, pooled int) {
	if a.metrics == nil {
		return
	}

	a.metrics.RecordRun(ctx, outcome, pooled)
}
