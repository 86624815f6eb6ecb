// Package sanitize repairs invalid UTF-8 and cleans HTML and plain-text bodies.
package sanitize

import "strings"

// Bytes removes every invalid UTF-8 sequence from s. Valid text, including
// multi-byte characters, passes through unchanged. No charset conversion is
// performed.
func Bytes(s string) string {
	return strings.ToValidUTF8(s, "")
}

// Deep applies Bytes to every string inside a nested structure of maps and
// slices. Non-string leaves are returned as they are.
func Deep(v any) any {
	switch val := v.(type) {
	case string:
		return Bytes(val)
	case []byte:
		return Bytes(string(val))
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, item := range val {
			clean[k] = Deep(item)
		}
		return clean
	case map[string]string:
		clean := make(map[string]string, len(val))
		for k, item := range val {
			clean[k] = Bytes(item)
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, item := range val {
			clean[i] = Deep(item)
		}
		return clean
	case []string:
		clean := make([]string, len(val))
		for i, item := range val {
			clean[i] = Bytes(item)
		}
		return clean
	default:
		return v
	}
}
