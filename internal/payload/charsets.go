package payload

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"

	"github.com/felo/mailnorm/internal/parser"
)

func init() {
	// Register additional charsets that are commonly declared by senders
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ApplyCharsets converts payload fields to UTF-8 according to the declared
// charsets metadata (a JSON string or an object such as {"text":"iso-8859-1"}).
// Fields that are already valid UTF-8 are left alone. Problems are returned
// as non-fatal errors and the affected field keeps its original bytes.
func ApplyCharsets(p *parser.Payload) []error {
	if p == nil {
		return nil
	}

	declared, err := parseCharsets(p.Charsets)
	if err != nil {
		return []error{err}
	}

	var errs []error
	convert := func(field string, s *string) {
		label := declared[field]
		if label == "" || s == nil {
			return
		}
		if err := transcode(label, s); err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", field, err))
		}
	}

	for i := range p.To {
		convert(FieldTo, &p.To[i])
	}
	for i := range p.Cc {
		convert(FieldCc, &p.Cc[i])
	}
	for i := range p.Bcc {
		convert(FieldBcc, &p.Bcc[i])
	}
	convert(FieldFrom, &p.From)
	convert(FieldSubject, &p.Subject)
	convert(FieldText, p.Text)
	convert(FieldHTML, p.HTML)

	return errs
}

// parseCharsets reads the charsets metadata into field -> label.
func parseCharsets(v any) (map[string]string, error) {
	out := make(map[string]string)
	switch c := v.(type) {
	case nil:
		return out, nil
	case string:
		if strings.TrimSpace(c) == "" {
			return out, nil
		}
		if err := json.Unmarshal([]byte(c), &out); err != nil {
			return nil, fmt.Errorf("failed to parse charsets: %w", err)
		}
	case map[string]string:
		for k, label := range c {
			out[k] = label
		}
	case map[string]any:
		for k, label := range c {
			if s, ok := label.(string); ok {
				out[k] = s
			}
		}
	default:
		return nil, fmt.Errorf("unsupported charsets value of type %T", v)
	}
	return out, nil
}

func transcode(label string, s *string) error {
	if utf8.ValidString(*s) || isUTF8Label(label) {
		return nil
	}
	r, err := charset.Reader(label, strings.NewReader(*s))
	if err != nil {
		return fmt.Errorf("charset %q: %w", label, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to decode %q: %w", label, err)
	}
	*s = string(decoded)
	return nil
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
