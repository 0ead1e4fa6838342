package samplefile_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/samplefile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Formats(t *testing.T) {
	t.Parallel()

	want := utest.SamplesPair{{1, 2.5, 3}, {4, 5, 6}}

	tests := []struct {
		name       string
		file       string
		content    string
		wantFormat samplefile.Format
	}{
		{name: "json_array", file: "s.json", content: `[[1, 2.5, 3], [4, 5, 6]]`, wantFormat: samplefile.FormatJSON},
		{name: "json_object", file: "s.json", content: `{"name": "demo", "samples": [[1, 2.5, 3], [4, 5, 6]]}`, wantFormat: samplefile.FormatJSON},
		{name: "yaml_array", file: "s.yaml", content: "- [1, 2.5, 3]\n- [4, 5, 6]\n", wantFormat: samplefile.FormatYAML},
		{name: "yaml_object", file: "s.yml", content: "samples:\n  - [1, 2.5, 3]\n  - [4, 5, 6]\n", wantFormat: samplefile.FormatYAML},
		{name: "sniffed_json", file: "samples", content: ` [[1, 2.5, 3], [4, 5, 6]]`, wantFormat: samplefile.FormatJSON},
		{name: "sniffed_yaml", file: "samples.txt", content: "samples:\n- [1, 2.5, 3]\n- [4, 5, 6]\n", wantFormat: samplefile.FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := samplefile.Load(writeFile(t, tt.file, tt.content), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, doc.Format)

			samples, err := doc.Samples()
			require.NoError(t, err)
			assert.Equal(t, want, samples)
		})
	}
}

func TestLoad_Stdin(t *testing.T) {
	t.Parallel()

	doc, err := samplefile.Load(samplefile.StdinPath, strings.NewReader(`[[1], [2]]`))
	require.NoError(t, err)
	assert.Equal(t, "stdin", doc.Label)

	samples, err := doc.Samples()
	require.NoError(t, err)
	assert.Equal(t, utest.SamplesPair{{1}, {2}}, samples)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := samplefile.Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = samplefile.Load(writeFile(t, "empty.json", "  \n"), nil)
	require.ErrorIs(t, err, samplefile.ErrEmptyDocument)

	_, err = samplefile.Load(writeFile(t, "broken.json", "[[1, 2"), nil)
	require.Error(t, err)
}

func TestDocument_SamplesRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "three_samples", content: `[[1], [2], [3]]`, wantErr: utest.ErrWrongSampleCount},
		{name: "empty_sample", content: `[[1], []]`, wantErr: utest.ErrEmptySample},
		{name: "string_element", content: `[[1, "x"], [2]]`, wantErr: utest.ErrNotNumber},
		{name: "scalar", content: `42`, wantErr: utest.ErrNotSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := samplefile.Load(writeFile(t, "s.json", tt.content), nil)
			require.NoError(t, err)

			_, err = doc.Samples()
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, utest.ErrInvalidInput)
		})
	}
}

func TestDecode_JSONUsesNumber(t *testing.T) {
	t.Parallel()

	raw, err := samplefile.Decode(strings.NewReader(`[[1.5]]`), samplefile.FormatJSON)
	require.NoError(t, err)

	outer, ok := raw.([]any)
	require.True(t, ok)

	inner, ok := outer[0].([]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("1.5"), inner[0])
}

func TestDecode_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := samplefile.Decode(strings.NewReader(`[]`), samplefile.Format("toml"))
	require.ErrorIs(t, err, samplefile.ErrUnknownFormat)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	pair := []any{[]any{1}, []any{2}}

	assert.Equal(t, pair, samplefile.Extract(map[string]any{"samples": pair}))
	assert.Equal(t, pair, samplefile.Extract(pair))

	other := map[string]any{"values": pair}
	assert.Equal(t, other, samplefile.Extract(other))
}
