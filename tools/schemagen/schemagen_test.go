package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
)

func validate(t *testing.T, schema *Schema, value any) *gojsonschema.Result {
	t.Helper()

	data, err := json.Marshal(schema)
	require.NoError(t, err)

	doc, err := json.Marshal(value)
	require.NoError(t, err)

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(data), gojsonschema.NewBytesLoader(doc))
	require.NoError(t, err)

	return result
}

func TestGenerateSchema_ReportMatchesOutput(t *testing.T) {
	t.Parallel()

	schema := generateSchema("Mann-Whitney U report", &analysis.Report{})
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Required, "verdict")
	assert.Contains(t, schema.Definitions, "SampleReport")

	an := analysis.New(analysis.Options{})

	for _, samples := range []utest.SamplesPair{
		{{30, 14, 6, 11, 88, 1, 3, 7}, {12, 15, 16, 42, 9, 9, 30, 28}},
		{{5, 5, 5}, {5, 5}},
	} {
		report, err := an.Analyze(context.Background(), samples)
		require.NoError(t, err)

		result := validate(t, schema, report)
		assert.True(t, result.Valid(), "%v", result.Errors())
	}

	result := validate(t, schema, map[string]any{"verdict": 3})
	assert.False(t, result.Valid())
}

func TestGenerateSchema_Ranks(t *testing.T) {
	t.Parallel()

	schema := generateSchema("Ranked observations", []utest.Observation{})

	result := validate(t, schema, utest.Rank([]float64{3, 1, 3}))
	assert.True(t, result.Valid(), "%v", result.Errors())
}

func TestWriteSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, writeSchema(dir, "ranks", generateSchema("Ranked observations", []utest.Observation{})))

	data, err := os.ReadFile(filepath.Join(dir, "ranks.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), schemaDraft)
}
