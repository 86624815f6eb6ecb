package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var errNotString = errors.New("expected a JSON string")

// rawString is a JSON string that keeps invalid UTF-8 bytes as sent, so
// charset conversion and byte sanitizing see the original input.
// encoding/json would replace them with U+FFFD.
type rawString string

func (s *rawString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if utf8.Valid(data) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = rawString(v)
		return nil
	}
	v, err := unquote(data)
	if err != nil {
		return err
	}
	*s = rawString(v)
	return nil
}

func (s *rawString) ptr() *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

// unquote decodes a JSON string literal byte by byte. Escapes are decoded;
// every other byte is copied unchanged.
func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errNotString
	}
	data = data[1 : len(data)-1]

	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(data) {
			return "", errNotString
		}
		switch data[i] {
		case '"', '\\', '/':
			b.WriteByte(data[i])
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			r, ok := hex4(data[i+1:])
			if !ok {
				return "", errNotString
			}
			i += 4
			if utf16.IsSurrogate(r) {
				// a lone surrogate decodes to U+FFFD
				r2, ok := rune(-1), false
				if i+2 < len(data) && data[i+1] == '\\' && data[i+2] == 'u' {
					r2, ok = hex4(data[i+3:])
				}
				if dec := utf16.DecodeRune(r, r2); ok && dec != utf8.RuneError {
					r = dec
					i += 6
				} else {
					r = utf8.RuneError
				}
			}
			b.WriteRune(r)
		default:
			return "", errNotString
		}
	}
	return b.String(), nil
}

func hex4(data []byte) (rune, bool) {
	if len(data) < 4 {
		return 0, false
	}
	n, err := strconv.ParseUint(string(data[:4]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
