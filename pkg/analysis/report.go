package analysis

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/stats"
	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
)

// Verdicts reported for a completed analysis.
const (
	VerdictSignificant    = "significant"
	VerdictNotSignificant = "not significant"
	VerdictDegenerate     = "degenerate"
)

// SampleReport summarizes one sample of the pair.
type SampleReport struct {
	Summary  stats.Summary `json:"summary"   yaml:"summary"`
	RankSum  float64       `json:"rank_sum"  yaml:"rank_sum"`
	MeanRank float64       `json:"mean_rank" yaml:"mean_rank"`
	U        float64       `json:"u"         yaml:"u"`
	// Ranks holds the mid-rank of every observation in input order.
	Ranks []float64 `json:"ranks" yaml:"ranks"`
}

// TieGroup is a value shared by more than one pooled observation.
type TieGroup struct {
	Value float64 `json:"value" yaml:"value"`
	Count int     `json:"count" yaml:"count"`
}

// Report is the outcome of a Mann-Whitney U analysis.
type Report struct {
	Samples               [2]SampleReport `json:"samples"                yaml:"samples"`
	U                     utest.UPair     `json:"u"                      yaml:"u"`
	UMin                  float64         `json:"u_min"                  yaml:"u_min"`
	Product               int             `json:"product"                yaml:"product"`
	Pooled                int             `json:"pooled"                 yaml:"pooled"`
	Ties                  []TieGroup      `json:"ties"                   yaml:"ties"`
	CriticalValue         *float64        `json:"critical_value"         yaml:"critical_value"`
	Degenerate            bool            `json:"degenerate"             yaml:"degenerate"`
	Significant           bool            `json:"significant"            yaml:"significant"`
	ApproximationReliable bool            `json:"approximation_reliable" yaml:"approximation_reliable"`
	Threshold             int             `json:"threshold"              yaml:"threshold"`
	Verdict               string          `json:"verdict"                yaml:"verdict"`
	Detail                string          `json:"detail"                 yaml:"detail"`
}

func sampleReport(sample utest.Sample, rankOf map[float64]float64, u float64) SampleReport {
	ranks := make([]float64, len(sample))

	var sum float64

	for i, v := range sample {
		ranks[i] = rankOf[v]
		sum += ranks[i]
	}

	return SampleReport{
		Summary:  stats.Describe(sample),
		RankSum:  sum,
		MeanRank: stats.Mean(ranks),
		U:        u,
		Ranks:    ranks,
	}
}

func tieGroups(samples utest.SamplesPair) []TieGroup {
	ties := utest.TieGroups(samples)
	groups := make([]TieGroup, 0, len(ties))

	for _, v := range slices.Sorted(maps.Keys(ties)) {
		groups = append(groups, TieGroup{Value: v, Count: ties[v]})
	}

	return groups
}

func (r *Report) decide(z float64, significant bool, degenerate bool) {
	r.Degenerate = degenerate
	r.Significant = significant

	switch {
	case degenerate:
		r.Verdict = VerdictDegenerate
		r.Detail = r.degenerateCause()
	case significant:
		r.CriticalValue = &z
		r.Verdict = VerdictSignificant
		r.Detail = fmt.Sprintf("min(U)=%g < z=%.4f", r.UMin, z)
	default:
		r.CriticalValue = &z
		r.Verdict = VerdictNotSignificant
		r.Detail = fmt.Sprintf("min(U)=%g >= z=%.4f", r.UMin, z)
	}
}

// degenerateCause explains why the critical value is undefined. Apart from
// a pooled size below two, the variance only vanishes when every pooled
// observation shares one value.
func (r *Report) degenerateCause() string {
	if r.Pooled < 2 {
		return fmt.Sprintf("normal approximation undefined: pooled size %d is below 2", r.Pooled)
	}

	return fmt.Sprintf("normal approximation undefined: zero variance, all %d observations are tied", r.Pooled)
}

func (r *Report) outcome() string {
	switch {
	case r.Degenerate:
		return observability.OutcomeDegenerate
	case r.Significant:
		return observability.OutcomeSignificant
	default:
		return observability.OutcomeNotSignificant
	}
}
