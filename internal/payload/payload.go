// Package payload decodes inbound webhook requests into parser payloads.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/felo/mailnorm/internal/headers"
	"github.com/felo/mailnorm/internal/parser"
)

// Form and JSON field names.
const (
	FieldTo          = "to"
	FieldCc          = "cc"
	FieldBcc         = "bcc"
	FieldFrom        = "from"
	FieldSubject     = "subject"
	FieldText        = "text"
	FieldHTML        = "html"
	FieldHeaders     = "headers"
	FieldAttachments = "attachments"
	FieldEnvelope    = "envelope"
	FieldCharsets    = "charsets"
)

// stringList decodes either a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []rawString
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = string(item)
		}
		*l = out
		return nil
	}
	var s *rawString
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*l = nil
		return nil
	}
	*l = stringList{string(*s)}
	return nil
}

type jsonPayload struct {
	To          stringList      `json:"to"`
	Cc          stringList      `json:"cc"`
	Bcc         stringList      `json:"bcc"`
	From        rawString       `json:"from"`
	Subject     rawString       `json:"subject"`
	Text        *rawString      `json:"text"`
	HTML        *rawString      `json:"html"`
	Headers     json.RawMessage `json:"headers"`
	Attachments any             `json:"attachments"`
	Envelope    any             `json:"envelope"`
	Charsets    any             `json:"charsets"`
}

// FromJSON decodes a flat JSON payload. The headers field may be a string
// blob or an object; recipient fields may be an array or a single string.
func FromJSON(r io.Reader) (*parser.Payload, error) {
	var jp jsonPayload
	if err := json.NewDecoder(r).Decode(&jp); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	raw, err := decodeHeaders(jp.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	return &parser.Payload{
		To:          jp.To,
		Cc:          jp.Cc,
		Bcc:         jp.Bcc,
		From:        string(jp.From),
		Subject:     string(jp.Subject),
		Text:        jp.Text.ptr(),
		HTML:        jp.HTML.ptr(),
		Headers:     raw,
		Attachments: jp.Attachments,
		Envelope:    jp.Envelope,
		Charsets:    jp.Charsets,
	}, nil
}

// decodeHeaders keeps a string blob byte for byte and hands objects to
// headers.Raw.
func decodeHeaders(data json.RawMessage) (headers.Raw, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var blob rawString
		if err := blob.UnmarshalJSON(data); err != nil {
			return headers.Raw{}, err
		}
		return headers.Blob(string(blob)), nil
	}

	var raw headers.Raw
	if len(data) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return headers.Raw{}, err
	}
	return raw, nil
}

// FromForm builds a payload from form fields. Values keep their raw bytes,
// so bodies in legacy charsets survive until ApplyCharsets runs.
func FromForm(v url.Values) *parser.Payload {
	p := &parser.Payload{
		To:      v[FieldTo],
		Cc:      v[FieldCc],
		Bcc:     v[FieldBcc],
		From:    v.Get(FieldFrom),
		Subject: v.Get(FieldSubject),
		Text:    optional(v, FieldText),
		HTML:    optional(v, FieldHTML),
	}

	if v.Has(FieldHeaders) {
		p.Headers = headers.Blob(v.Get(FieldHeaders))
	}
	if v.Has(FieldAttachments) {
		p.Attachments = v.Get(FieldAttachments)
	}
	if v.Has(FieldEnvelope) {
		p.Envelope = v.Get(FieldEnvelope)
	}
	if v.Has(FieldCharsets) {
		p.Charsets = v.Get(FieldCharsets)
	}

	return p
}

func optional(v url.Values, key string) *string {
	if !v.Has(key) {
		return nil
	}
	s := v.Get(key)
	return &s
}
