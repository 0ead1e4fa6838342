package utest

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

// DefaultApproximationThreshold is the sample size above which the normal
// approximation is conventionally trusted (U tables stop at 20x20).
const DefaultApproximationThreshold = 20

// varianceDivisor is the 12 in var(U) = n0*n1*(n+1)/12.
const varianceDivisor = 12

var (
	// ErrConsistencyFailure indicates U0+U1 != n0*n1 after a test run.
	ErrConsistencyFailure = errors.New("consistency check failed")
	// ErrIncompleteRanking indicates a sample whose observations were not all found in the ranked pool.
	ErrIncompleteRanking = fmt.Errorf("%w: incomplete ranking", ErrConsistencyFailure)
	// ErrNumericDegeneracy indicates the normal approximation is undefined for the samples.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// UPair holds the U statistic of each sample.
type UPair [sampleCount]float64

// Min returns the smaller U value.
func (u UPair) Min() float64 {
	return min(u[0], u[1])
}

// CheckConsistency reports whether U0+U1 equals n0*n1 exactly.
func CheckConsistency(u UPair, samples SamplesPair) bool {
	n0, n1 := samples.Sizes()

	return u[0]+u[1] == float64(n0*n1)
}

// VerifyConsistency is CheckConsistency returning ErrConsistencyFailure on mismatch.
func VerifyConsistency(u UPair, samples SamplesPair) error {
	if CheckConsistency(u, samples) {
		return nil
	}

	n0, n1 := samples.Sizes()

	return fmt.Errorf("%w: U0+U1=%g, n0*n1=%d", ErrConsistencyFailure, u[0]+u[1], n0*n1)
}

// CriticalValue approximates the z-score of min(U0, U1) under the normal
// approximation with tie correction.
//
// It does not gate on sample size; see ApproximationReliable. When the pooled
// size is at most one or every observation is tied the variance is zero and
// the result is NaN with ErrNumericDegeneracy.
func CriticalValue(u UPair, samples SamplesPair) (float64, error) {
	n0, n1 := samples.Sizes()
	prod := float64(n0 * n1)
	n := float64(n0 + n1)

	if n0+n1 <= 1 {
		return math.NaN(), fmt.Errorf("%w: pooled size %d", ErrNumericDegeneracy, n0+n1)
	}

	ties := TieGroups(samples)

	var correction float64

	// Sorted keys keep the floating-point sum reproducible.
	for _, v := range slices.Sorted(maps.Keys(ties)) {
		tf := float64(ties[v])
		correction += (tf*tf*tf - tf) / (n * (n - 1))
	}

	variance := prod / varianceDivisor * (n + 1 - correction)
	if variance <= 0 {
		return math.NaN(), fmt.Errorf("%w: zero variance (n=%d, tie correction %g)", ErrNumericDegeneracy, n0+n1, correction)
	}

	mean := prod / 2

	return math.Abs(u.Min()-mean) / math.Sqrt(variance), nil
}

// IsSignificant reports whether min(U0, U1) is below the critical value.
// Degenerate samples are never significant and return the degeneracy error.
func IsSignificant(u UPair, samples SamplesPair) (bool, error) {
	z, err := CriticalValue(u, samples)
	if err != nil {
		return false, err
	}

	return u.Min() < z, nil
}

// ApproximationReliable reports whether either sample is larger than threshold,
// the conventional condition for trusting the normal approximation.
func ApproximationReliable(samples SamplesPair, threshold int) bool {
	n0, n1 := samples.Sizes()

	return n0 > threshold || n1 > threshold
}
