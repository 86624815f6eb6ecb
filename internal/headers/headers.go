// Package headers turns raw header payloads into a sanitized, ordered map.
package headers

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/felo/mailnorm/internal/sanitize"
)

// Raw is the header payload as received: either an unparsed blob of
// "Name: Value" lines or a mapping that was already structured upstream.
// The zero value means no headers were supplied.
type Raw struct {
	blob       string
	fields     map[string]any
	structured bool
	present    bool
}

// Blob wraps an unparsed header block.
func Blob(s string) Raw {
	return Raw{blob: s, present: true}
}

// Structured wraps a pre-parsed header mapping.
func Structured(m map[string]any) Raw {
	return Raw{fields: m, structured: true, present: true}
}

// IsStructured reports whether r carries a mapping rather than a blob.
func (r Raw) IsStructured() bool { return r.structured }

// IsZero reports whether no header payload was supplied.
func (r Raw) IsZero() bool { return !r.present }

// BlobValue returns the unparsed header block, if any.
func (r Raw) BlobValue() string { return r.blob }

// Fields returns the structured mapping, if any.
func (r Raw) Fields() map[string]any { return r.fields }

// MarshalJSON renders the payload exactly as it was received.
func (r Raw) MarshalJSON() ([]byte, error) {
	switch {
	case !r.present:
		return []byte("null"), nil
	case r.structured:
		return json.Marshal(r.fields)
	default:
		return json.Marshal(r.blob)
	}
}

// UnmarshalJSON accepts a JSON string (blob) or object (structured).
func (r *Raw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Raw{}
		return nil
	case data[0] == '{':
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*r = Structured(m)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Blob(s)
		return nil
	}
}

// Map is an ordered mapping from header name to value. Values are strings
// for parsed blobs and arbitrary nested values for structured input.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty map.
func NewMap() Map {
	return Map{values: make(map[string]any)}
}

// Set stores value under name. A new name is appended to the key order; an
// existing one keeps its position and takes the new value.
func (m *Map) Set(name string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
}

// Get returns the value stored under name.
func (m Map) Get(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

// String returns the value stored under name when it is a string.
func (m Map) String(name string) string {
	s, _ := m.values[name].(string)
	return s
}

// Keys returns header names in order.
func (m Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of headers.
func (m Map) Len() int { return len(m.keys) }

// ToMap returns the headers as a plain map.
func (m Map) ToMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}

// MarshalJSON writes the headers as a JSON object in key order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse sanitizes and parses a header payload. It never fails: a missing or
// empty payload yields an empty map and malformed lines are skipped.
func Parse(raw Raw) Map {
	if raw.structured {
		return fromStructured(raw.fields)
	}
	return fromBlob(raw.blob)
}

func fromStructured(fields map[string]any) Map {
	m := NewMap()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.Set(sanitize.Bytes(name), sanitize.Deep(fields[name]))
	}
	return m
}

func fromBlob(blob string) Map {
	m := NewMap()
	blob = sanitize.Bytes(blob)
	if strings.TrimSpace(blob) == "" {
		return m
	}

	last := ""
	for _, line := range lineBreak.Split(blob, -1) {
		if line == "" {
			continue
		}

		// folded continuation of the previous header; an indented line with
		// nothing to fold into is read as a header of its own
		if (line[0] == ' ' || line[0] == '\t') && last != "" {
			cont := strings.TrimSpace(line)
			if prev := m.String(last); prev != "" && cont != "" {
				cont = prev + " " + cont
			} else if cont == "" {
				cont = prev
			}
			m.Set(last, cont)
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			last = ""
			continue
		}
		m.Set(name, strings.TrimSpace(value))
		last = name
	}
	return m
}
