// Package strings provides string list helpers for configuration parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and blanks from a slice, trimming
// whitespace from each element. Order is preserved.
//
//	DedupeAndTrim([]string{"  kafka-1:9092 ", "kafka-2:9092", "kafka-1:9092", ""})
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList splits a separated list such as a KAFKA_BROKERS value and
// cleans it with DedupeAndTrim. A blank input yields nil.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, sep))
}
