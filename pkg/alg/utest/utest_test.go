package utest_test

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
)

var (
	scenarioA = utest.SamplesPair{
		{30, 14, 6, 11, 88, 1, 3, 7},
		{12, 15, 16, 42, 9, 9, 30, 28},
	}
	scenarioB = utest.SamplesPair{
		{1, 4, 9, 6, 4, 3, 5, 6, 4},
		{1, 5, 3, 2, 5, 4, 1, 5},
	}
)

func TestTest_KnownScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples utest.SamplesPair
		want    utest.UPair
	}{
		{name: "scenario_a", samples: scenarioA, want: utest.UPair{19.5, 44.5}},
		{name: "scenario_b", samples: scenarioB, want: utest.UPair{48.5, 23.5}},
		{name: "separated", samples: utest.SamplesPair{{1, 2, 3}, {4, 5, 6}}, want: utest.UPair{0, 9}},
		{name: "single_observations", samples: utest.SamplesPair{{2}, {1}}, want: utest.UPair{1, 0}},
		{name: "identical", samples: utest.SamplesPair{{1, 2}, {1, 2}}, want: utest.UPair{2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := utest.Test(tt.samples)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, utest.CheckConsistency(got, tt.samples))
		})
	}
}

func TestTest_DoesNotMutateSamples(t *testing.T) {
	t.Parallel()

	samples := utest.SamplesPair{{3, 1, 2}, {6, 4, 5}}

	_, err := utest.Test(samples)
	require.NoError(t, err)

	assert.Equal(t, utest.SamplesPair{{3, 1, 2}, {6, 4, 5}}, samples)
}

func TestTest_Idempotent(t *testing.T) {
	t.Parallel()

	first, err := utest.Test(scenarioB)
	require.NoError(t, err)

	for range 10 {
		again, againErr := utest.Test(scenarioB)
		require.NoError(t, againErr)
		assert.Equal(t, math.Float64bits(first[0]), math.Float64bits(again[0]))
		assert.Equal(t, math.Float64bits(first[1]), math.Float64bits(again[1]))
	}
}

func TestTest_ConsistencyHoldsForGeneratedSamples(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		n0 := 1 + rng.IntN(40)
		n1 := 1 + rng.IntN(40)

		var samples utest.SamplesPair

		samples[0] = make(utest.Sample, n0)
		samples[1] = make(utest.Sample, n1)

		// A small value range forces many ties within and across samples.
		for i := range samples[0] {
			samples[0][i] = float64(rng.IntN(10))
		}

		for i := range samples[1] {
			samples[1][i] = float64(rng.IntN(10))
		}

		u, err := utest.Test(samples)
		require.NoError(t, err)
		require.True(t, utest.CheckConsistency(u, samples), "n0=%d n1=%d u=%v", n0, n1, u)
	}
}

func TestTest_RejectsEmptySample(t *testing.T) {
	t.Parallel()

	_, err := utest.Test(utest.SamplesPair{{1, 2}, nil})
	require.ErrorIs(t, err, utest.ErrEmptySample)
	require.ErrorIs(t, err, utest.ErrInvalidInput)
}

func TestRun_AcceptsDecodedDocuments(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var doc any
		require.NoError(t, json.Unmarshal([]byte(`[[30,14,6,11,88,1,3,7],[12,15,16,42,9,9,30,28]]`), &doc))

		u, err := utest.Run(doc)
		require.NoError(t, err)
		assert.Equal(t, utest.UPair{19.5, 44.5}, u)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var doc any
		require.NoError(t, yaml.Unmarshal([]byte("- [1, 4, 9, 6, 4, 3, 5, 6, 4]\n- [1, 5, 3, 2, 5, 4, 1, 5]\n"), &doc))

		u, err := utest.Run(doc)
		require.NoError(t, err)
		assert.Equal(t, utest.UPair{48.5, 23.5}, u)
	})

	t.Run("float_slices", func(t *testing.T) {
		t.Parallel()

		u, err := utest.Run([][]float64{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		assert.Equal(t, utest.UPair{0, 9}, u)
	})
}

func TestRun_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   any
		wantErr error
	}{
		{
			name: "three_samples",
			input: [][]float64{
				{30, 14, 6, 11, 88, 1, 3, 7},
				{12, 15, 16, 42, 9, 9, 30, 28},
				{1, 2, 3, 4, 5, 6, 7, 8},
			},
			wantErr: utest.ErrWrongSampleCount,
		},
		{name: "empty_sample_list", input: []any{}, wantErr: utest.ErrWrongSampleCount},
		{name: "empty_samples", input: []any{[]any{}, []any{}}, wantErr: utest.ErrEmptySample},
		{name: "one_empty_sample", input: [][]float64{{1}, {}}, wantErr: utest.ErrEmptySample},
		{name: "string", input: "hello", wantErr: utest.ErrNotSequence},
		{name: "number", input: 30, wantErr: utest.ErrNotSequence},
		{name: "boolean", input: true, wantErr: utest.ErrNotSequence},
		{name: "object", input: map[string]any{"some": "json"}, wantErr: utest.ErrNotSequence},
		{name: "function", input: func() []any { return nil }, wantErr: utest.ErrNotSequence},
		{name: "null", input: nil, wantErr: utest.ErrNotSequence},
		{name: "element_not_sequence", input: []any{[]any{1.0}, "x"}, wantErr: utest.ErrElementNotSequence},
		{name: "element_not_number", input: []any{[]any{1.0, "two"}, []any{3.0}}, wantErr: utest.ErrNotNumber},
		{name: "nan_observation", input: [][]float64{{1, math.NaN()}, {2}}, wantErr: utest.ErrNotNumber},
		{name: "positive_infinity", input: [][]float64{{1, math.Inf(1), 3}, {2}}, wantErr: utest.ErrNotNumber},
		{name: "negative_infinity_generic", input: []any{[]any{1.0}, []any{2.0, math.Inf(-1)}}, wantErr: utest.ErrNotNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := utest.Run(tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, utest.ErrInvalidInput)
			assert.Equal(t, utest.UPair{}, u)
		})
	}
}

func TestParse_CopiesInput(t *testing.T) {
	t.Parallel()

	raw := [][]float64{{1, 2}, {3}}

	pair, err := utest.Parse(raw)
	require.NoError(t, err)

	raw[0][0] = 99

	assert.Equal(t, utest.Sample{1, 2}, pair[0])
}

func TestParse_ErrorNamesSample(t *testing.T) {
	t.Parallel()

	_, err := utest.Parse([]any{[]any{1.0}, []any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 1")
}

func TestParse_JSONNumbers(t *testing.T) {
	t.Parallel()

	pair, err := utest.Parse([]any{
		[]any{json.Number("1.5"), json.Number("2")},
		[]any{int64(3), 4},
	})
	require.NoError(t, err)
	assert.Equal(t, utest.SamplesPair{{1.5, 2}, {3, 4}}, pair)
}

func TestSamplesPair_Pooled(t *testing.T) {
	t.Parallel()

	samples := utest.SamplesPair{{1, 2}, {3}}

	assert.Equal(t, []float64{1, 2, 3}, samples.Pooled())
	assert.Equal(t, utest.SamplesPair{{3}, {1, 2}}, samples.Swapped())
}

func TestSample_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, utest.Sample{1, 2, 2}.Validate())
	require.ErrorIs(t, utest.Sample{}.Validate(), utest.ErrEmptySample)
	require.ErrorIs(t, utest.Sample{1, math.NaN()}.Validate(), utest.ErrNotNumber)

	err := utest.Sample{1, math.Inf(1)}.Validate()
	require.ErrorIs(t, err, utest.ErrNotNumber)
	assert.Contains(t, err.Error(), "not finite")
}
