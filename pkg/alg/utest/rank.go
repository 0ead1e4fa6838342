package utest

import (
	"cmp"
	"slices"
)

// Observation pairs a pooled observation value with its rank.
type Observation struct {
	Value float64 `json:"value" yaml:"value"`
	Rank  float64 `json:"rank"  yaml:"rank"`
}

// Rank assigns mid-ranks to values.
//
// The result is sorted ascending by value. Ranks start at 1 and are dense;
// each maximal run of equal values occupying integer ranks i..j receives the
// mean rank (i+j)/2. The input slice is not modified.
func Rank(values []float64) []Observation {
	ranked := make([]Observation, len(values))
	for i, v := range values {
		ranked[i] = Observation{Value: v}
	}

	slices.SortStableFunc(ranked, func(a, b Observation) int {
		return cmp.Compare(a.Value, b.Value)
	})

	for start := 0; start < len(ranked); {
		end := runEnd(ranked, start)

		// Run covers integer ranks start+1 .. end.
		mid := float64(start+1+end) / 2

		for i := start; i < end; i++ {
			ranked[i].Rank = mid
		}

		start = end
	}

	return ranked
}

// runEnd returns the exclusive end of the equal-value run beginning at start.
func runEnd(sorted []Observation, start int) int {
	end := start + 1

	for end < len(sorted) && sorted[end].Value == sorted[start].Value {
		end++
	}

	return end
}

// TieGroups counts every distinct pooled value occurring more than once,
// keyed by value.
func TieGroups(samples SamplesPair) map[float64]int {
	counts := make(map[float64]int, len(samples[0])+len(samples[1]))

	for _, sample := range samples {
		for _, v := range sample {
			counts[v]++
		}
	}

	for v, c := range counts {
		if c < 2 {
			delete(counts, v)
		}
	}

	return counts
}
