package utest

// RankSum sums the ranks of ranked entries that belong to sample.
//
// Each observation of the sample consumes exactly one ranked entry with the
// same value, so duplicates within a sample and values shared across samples
// are counted once each. The second result is the number of observations
// matched; it is below len(sample) only when ranked does not contain the
// sample, in which case the partial sum is returned as is.
func RankSum(ranked []Observation, sample Sample) (float64, int) {
	remaining := make(map[float64]int, len(sample))
	for _, v := range sample {
		remaining[v]++
	}

	var (
		sum     float64
		matched int
	)

	for _, obs := range ranked {
		if remaining[obs.Value] == 0 {
			continue
		}

		remaining[obs.Value]--
		sum += obs.Rank
		matched++

		if matched == len(sample) {
			break
		}
	}

	return sum, matched
}

// UValue converts the rank sum of a sample with k observations into its U statistic.
func UValue(rankSum float64, k int) float64 {
	kf := float64(k)

	return rankSum - kf*(kf+1)/2
}
