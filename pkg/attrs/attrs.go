// Package attrs reads and builds slog-style key/value attribute lists
// ([key1, value1, key2, value2, ...]).
package attrs

import "fmt"

// ExtractString returns the value stored under key as a string. Values that
// implement fmt.Stringer (typed ids) are formatted. Missing keys and other
// value types yield "".
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
		return ""
	}
	return ""
}

// Prepend returns a new list with kv placed before attrs.
func Prepend(attrs []any, kv ...any) []any {
	out := make([]any, 0, len(kv)+len(attrs))
	out = append(out, kv...)
	return append(out, attrs...)
}
