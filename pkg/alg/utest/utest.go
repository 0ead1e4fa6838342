package utest

import "fmt"

// Run validates input with Parse and runs Test on the result.
func Run(input any) (UPair, error) {
	samples, err := Parse(input)
	if err != nil {
		return UPair{}, err
	}

	return Test(samples)
}

// Test ranks the pooled samples and returns the U value of each sample.
// It neither checks consistency nor evaluates significance.
func Test(samples SamplesPair) (UPair, error) {
	samples, err := parseSamples(samples[:])
	if err != nil {
		return UPair{}, err
	}

	ranked := Rank(samples.Pooled())

	var u UPair

	for i, sample := range samples {
		sum, matched := RankSum(ranked, sample)
		if matched != len(sample) {
			return UPair{}, fmt.Errorf("%w: sample %d matched %d of %d observations",
				ErrIncompleteRanking, i, matched, len(sample))
		}

		u[i] = UValue(sum, len(sample))
	}

	return u, nil
}
