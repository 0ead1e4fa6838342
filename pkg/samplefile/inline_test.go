package samplefile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/samplefile"
)

func TestParseList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []float64
	}{
		{name: "commas", input: "1,2,3", want: []float64{1, 2, 3}},
		{name: "spaces_and_commas", input: " 1.5, 2 ,3e1 ", want: []float64{1.5, 2, 30}},
		{name: "semicolons", input: "4;5", want: []float64{4, 5}},
		{name: "negative", input: "-1,-2.25", want: []float64{-1, -2.25}},
		{name: "empty", input: "", want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := samplefile.ParseList(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseList_BadValue(t *testing.T) {
	t.Parallel()

	_, err := samplefile.ParseList("1,two,3")
	require.ErrorIs(t, err, samplefile.ErrBadValue)
	assert.Contains(t, err.Error(), `element 1 "two"`)
}

func TestParseInline(t *testing.T) {
	t.Parallel()

	got, err := samplefile.ParseInline("30,14,6", "12,15,16")
	require.NoError(t, err)
	assert.Equal(t, utest.SamplesPair{{30, 14, 6}, {12, 15, 16}}, got)

	_, err = samplefile.ParseInline("1,2", "")
	require.ErrorIs(t, err, utest.ErrEmptySample)

	_, err = samplefile.ParseInline("1,x", "2")
	require.ErrorIs(t, err, samplefile.ErrBadValue)

	_, err = samplefile.ParseInline("1,inf,3", "2,-inf,5")
	require.ErrorIs(t, err, utest.ErrNotNumber)

	_, err = samplefile.ParseInline("1,NaN", "2")
	require.ErrorIs(t, err, utest.ErrNotNumber)
}
