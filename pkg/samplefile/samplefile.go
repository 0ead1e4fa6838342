// Package samplefile loads two-sample documents from JSON or YAML files,
// standard input and inline flag values.
package samplefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
)

// StdinPath selects standard input in Load.
const StdinPath = "-"

// samplesKey is the object key wrapping the pair in the object form.
const samplesKey = "samples"

// Format identifies a document encoding.
type Format string

// Supported formats.
const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnknownFormat is returned for an unsupported format name.
	ErrUnknownFormat = errors.New("unknown document format")
	// ErrEmptyDocument is returned when the input has no content.
	ErrEmptyDocument = errors.New("empty samples document")
)

// Document is a decoded samples document.
type Document struct {
	// Label names the source: a file path or "stdin".
	Label  string
	Format Format
	// Raw is the decoded value before sample extraction.
	Raw any
}

// Load reads and decodes the document at path. StdinPath reads from stdin.
func Load(path string, stdin io.Reader) (*Document, error) {
	var (
		data  []byte
		err   error
		label string
	)

	if path == StdinPath {
		label = "stdin"
		data, err = io.ReadAll(stdin)
	} else {
		label = path
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", label, err)
	}

	format := formatFromPath(path)
	if format == FormatAuto {
		format = sniff(data)
	}

	raw, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", label, err)
	}

	return &Document{Label: label, Format: format, Raw: raw}, nil
}

// Decode decodes a single document in the given format. FormatAuto sniffs
// the content. JSON numbers are kept as [json.Number].
func Decode(r io.Reader, format Format) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	if format == FormatAuto {
		format = sniff(data)
	}

	var raw any

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		err = dec.Decode(&raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}

	return raw, nil
}

// Samples extracts and validates the sample pair of the document.
func (d *Document) Samples() (utest.SamplesPair, error) {
	samples, err := utest.Parse(Extract(d.Raw))
	if err != nil {
		return utest.SamplesPair{}, fmt.Errorf("%s: %w", d.Label, err)
	}

	return samples, nil
}

// Extract unwraps the object form {"samples": ...}. Other values are
// returned unchanged.
func Extract(raw any) any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return raw
	}

	if inner, found := obj[samplesKey]; found {
		return inner
	}

	return raw
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// sniff treats content opening with '{' or '[' as JSON and anything else as YAML.
func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}

	return FormatYAML
}
