package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  broker-1:9092  ", "broker-2:9092  "},
			expected: []string{"broker-1:9092", "broker-2:9092"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"b:9092", "a:9092", "b:9092"},
			expected: []string{"b:9092", "a:9092"},
		},
		{
			name:     "removes blanks",
			input:    []string{"a:9092", "", "  "},
			expected: []string{"a:9092"},
		},
		{
			name:     "preserves case",
			input:    []string{"Kafka:9092", "kafka:9092"},
			expected: []string{"Kafka:9092", "kafka:9092"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "blank", raw: "   ", expected: nil},
		{name: "single", raw: "localhost:9092", expected: []string{"localhost:9092"}},
		{name: "messy list", raw: " a:9092, b:9092,,a:9092 ", expected: []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.raw, ","))
		})
	}
}
