// Package utest implements the Mann-Whitney U test for two independent samples.
//
// The pipeline is Parse -> Rank -> RankSum -> UValue, with CheckConsistency,
// CriticalValue and IsSignificant evaluated separately on the resulting UPair.
// Every function is pure: inputs are copied before sorting and no state is kept
// between calls.
package utest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// sampleCount is the number of samples the test compares.
const sampleCount = 2

// Sentinel validation errors. Every variant wraps ErrInvalidInput.
var (
	// ErrInvalidInput is the root of all input shape violations.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotSequence indicates the samples value is not a sequence.
	ErrNotSequence = fmt.Errorf("%w: samples must be a sequence", ErrInvalidInput)
	// ErrWrongSampleCount indicates the samples sequence does not hold exactly two samples.
	ErrWrongSampleCount = fmt.Errorf("%w: samples must contain exactly two samples", ErrInvalidInput)
	// ErrEmptySample indicates a sample without observations.
	ErrEmptySample = fmt.Errorf("%w: samples cannot be empty", ErrInvalidInput)
	// ErrElementNotSequence indicates a sample that is not itself a sequence.
	ErrElementNotSequence = fmt.Errorf("%w: sample must be a sequence", ErrInvalidInput)
	// ErrNotNumber indicates an observation that is not a finite number.
	ErrNotNumber = fmt.Errorf("%w: observation must be a number", ErrInvalidInput)
)

// Sample is an ordered sequence of observations.
type Sample []float64

// Validate reports whether s is non-empty and every observation is finite.
func (s Sample) Validate() error {
	_, err := checkSample(0, s)

	return err
}

// SamplesPair holds the two samples under comparison. Index 0 and 1 are
// tracked positionally through the whole pipeline.
type SamplesPair [sampleCount]Sample

// Sizes returns n0 and n1.
func (sp SamplesPair) Sizes() (n0, n1 int) {
	return len(sp[0]), len(sp[1])
}

// Pooled returns a fresh slice holding sample 0 followed by sample 1.
func (sp SamplesPair) Pooled() []float64 {
	pooled := make([]float64, 0, len(sp[0])+len(sp[1]))
	pooled = append(pooled, sp[0]...)

	return append(pooled, sp[1]...)
}

// Swapped returns the pair with sample order reversed.
func (sp SamplesPair) Swapped() SamplesPair {
	return SamplesPair{sp[1], sp[0]}
}

// Parse validates an arbitrary value as a SamplesPair.
//
// Accepted shapes are SamplesPair, [][]float64, []Sample and the generic
// []any trees produced by JSON or YAML decoding. The returned pair never
// aliases the input.
func Parse(input any) (SamplesPair, error) {
	switch typed := input.(type) {
	case SamplesPair:
		return parseSamples(typed[:])
	case []Sample:
		return parseSamples(typed)
	case [][]float64:
		samples := make([]Sample, len(typed))
		for i, s := range typed {
			samples[i] = s
		}

		return parseSamples(samples)
	case []any:
		return parseGeneric(typed)
	default:
		return SamplesPair{}, fmt.Errorf("%w: got %s", ErrNotSequence, describe(input))
	}
}

func parseSamples(samples []Sample) (SamplesPair, error) {
	if len(samples) != sampleCount {
		return SamplesPair{}, fmt.Errorf("%w: got %d", ErrWrongSampleCount, len(samples))
	}

	var pair SamplesPair

	for i, sample := range samples {
		checked, err := checkSample(i, sample)
		if err != nil {
			return SamplesPair{}, err
		}

		pair[i] = checked
	}

	return pair, nil
}

func parseGeneric(samples []any) (SamplesPair, error) {
	if len(samples) != sampleCount {
		return SamplesPair{}, fmt.Errorf("%w: got %d", ErrWrongSampleCount, len(samples))
	}

	var pair SamplesPair

	for i, raw := range samples {
		sample, err := parseGenericSample(i, raw)
		if err != nil {
			return SamplesPair{}, err
		}

		pair[i] = sample
	}

	return pair, nil
}

func parseGenericSample(idx int, raw any) (Sample, error) {
	switch typed := raw.(type) {
	case Sample:
		return checkSample(idx, typed)
	case []float64:
		return checkSample(idx, typed)
	case []any:
		if len(typed) == 0 {
			return nil, fmt.Errorf("%w: sample %d", ErrEmptySample, idx)
		}

		sample := make(Sample, len(typed))

		for j, v := range typed {
			num, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("%w: sample %d observation %d is %s", ErrNotNumber, idx, j, describe(v))
			}

			sample[j] = num
		}

		return checkSample(idx, sample)
	default:
		return nil, fmt.Errorf("%w: sample %d is %s", ErrElementNotSequence, idx, describe(raw))
	}
}

func checkSample(idx int, values []float64) (Sample, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sample %d", ErrEmptySample, idx)
	}

	for j, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: sample %d observation %d is not finite (%g)", ErrNotNumber, idx, j, v)
		}
	}

	return append(Sample(nil), values...), nil
}

func toFloat(v any) (float64, bool) {
	var num float64

	switch typed := v.(type) {
	case float64:
		num = typed
	case float32:
		num = float64(typed)
	case int:
		num = float64(typed)
	case int64:
		num = float64(typed)
	case uint64:
		num = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}

		num = parsed
	default:
		return 0, false
	}

	return num, true
}

func describe(v any) string {
	if v == nil {
		return "null"
	}

	return reflect.TypeOf(v).Kind().String()
}
