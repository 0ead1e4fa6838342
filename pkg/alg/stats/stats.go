// Package stats provides descriptive statistics for observation samples.
// Inputs are never modified; functions that need order sort a copy.
package stats

import (
	"math"
	"slices"
)

// Well-known percentile thresholds.
const (
	PercentileQ1     = 0.25
	PercentileMedian = 0.5
	PercentileQ3     = 0.75
)

// Summary describes the location and spread of a sample.
type Summary struct {
	Count  int     `json:"count"  yaml:"count"`
	Min    float64 `json:"min"    yaml:"min"`
	Q1     float64 `json:"q1"     yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3"     yaml:"q3"`
	Max    float64 `json:"max"    yaml:"max"`
	Mean   float64 `json:"mean"   yaml:"mean"`
}

// Describe returns the five-number summary and mean of values.
// Returns the zero Summary for an empty slice.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Summary{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     percentileSorted(sorted, PercentileQ1),
		Median: percentileSorted(sorted, PercentileMedian),
		Q3:     percentileSorted(sorted, PercentileQ3),
		Max:    sorted[len(sorted)-1],
		Mean:   Mean(sorted),
	}
}

// Mean returns the arithmetic mean of values.
// Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64

	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// percentileSorted returns the p-th percentile of sorted using linear
// interpolation. p must be in [0, 1] and sorted must not be empty.
func percentileSorted(sorted []float64, p float64) float64 {
	count := len(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
