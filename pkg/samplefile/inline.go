package samplefile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
)

// ErrBadValue is returned for an inline value that is not a number.
var ErrBadValue = errors.New("invalid inline value")

// ParseList parses a comma or whitespace separated list of numbers.
func ParseList(list string) ([]float64, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	values := make([]float64, 0, len(fields))

	for idx, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d %q", ErrBadValue, idx, field)
		}

		values = append(values, v)
	}

	return values, nil
}

// ParseInline builds a validated sample pair from two inline lists.
func ParseInline(first, second string) (utest.SamplesPair, error) {
	lists := [2]string{first, second}
	samples := make([]utest.Sample, 0, len(lists))

	for idx, list := range lists {
		values, err := ParseList(list)
		if err != nil {
			return utest.SamplesPair{}, fmt.Errorf("sample %d: %w", idx, err)
		}

		samples = append(samples, values)
	}

	pair, err := utest.Parse(samples)
	if err != nil {
		return utest.SamplesPair{}, fmt.Errorf("inline samples: %w", err)
	}

	return pair, nil
}
