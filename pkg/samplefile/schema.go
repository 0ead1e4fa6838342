package samplefile

import (
	_ "embed"
	"fmt"
	"math"
	"strconv"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed samples-schema.json
var schemaBytes []byte

// SchemaError is one schema violation.
type SchemaError struct {
	Field       string `json:"field"       yaml:"field"`
	Description string `json:"description" yaml:"description"`
}

// Schema returns the embedded JSON schema for samples documents.
func Schema() []byte {
	return schemaBytes
}

// rootField names the document root in violations, as gojsonschema does.
const rootField = "(root)"

// ValidateSchema checks raw against the embedded schema. It returns the
// violations found; an empty slice means the document is valid.
// Non-finite numbers (YAML .inf and .nan) are reported without consulting
// the schema since they have no JSON encoding.
func ValidateSchema(raw any) ([]SchemaError, error) {
	if violations := nonFinite(raw, rootField, nil); len(violations) > 0 {
		return violations, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	violations := make([]SchemaError, 0, len(result.Errors()))

	for _, verr := range result.Errors() {
		violations = append(violations, SchemaError{
			Field:       verr.Field(),
			Description: verr.Description(),
		})
	}

	return violations, nil
}

func nonFinite(raw any, field string, acc []SchemaError) []SchemaError {
	switch typed := raw.(type) {
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			acc = append(acc, SchemaError{
				Field:       field,
				Description: fmt.Sprintf("Number must be finite, got %g", typed),
			})
		}
	case []any:
		for idx, item := range typed {
			acc = nonFinite(item, childField(field, strconv.Itoa(idx)), acc)
		}
	case map[string]any:
		for key, item := range typed {
			acc = nonFinite(item, childField(field, key), acc)
		}
	}

	return acc
}

func childField(parent, child string) string {
	if parent == rootField {
		return child
	}

	return parent + "." + child
}
