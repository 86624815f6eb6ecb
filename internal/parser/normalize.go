// Package parser assembles a normalized Email from a raw inbound payload.
package parser

import (
	"strings"

	"github.com/felo/mailnorm/internal/address"
	"github.com/felo/mailnorm/internal/headers"
	"github.com/felo/mailnorm/internal/reply"
	"github.com/felo/mailnorm/internal/sanitize"
)

// Normalizer turns payloads into Emails. It is immutable after New and can
// be shared between goroutines.
type Normalizer struct {
	extractor *reply.Extractor
}

// New creates a Normalizer using the given reply markers
func New(cfg reply.Config) *Normalizer {
	return &Normalizer{extractor: reply.New(cfg)}
}

// Normalize builds an Email from p. It never fails; missing fields degrade
// to empty values.
func (n *Normalizer) Normalize(p *Payload) *Email {
	if p == nil {
		p = &Payload{}
	}

	e := &Email{
		To:          address.ParseList(p.To),
		Cc:          address.ParseList(p.Cc),
		Bcc:         address.ParseList(p.Bcc),
		From:        address.Parse(p.From),
		Subject:     cleanText(p.Subject),
		Headers:     headers.Parse(p.Headers),
		RawHeaders:  p.Headers,
		Attachments: p.Attachments,
		Envelope:    p.Envelope,
		Charsets:    p.Charsets,
	}

	e.Body = n.extractor.Extract(textOrSanitizedHTML(p))

	if p.Text != nil {
		rawText := sanitize.Text(*p.Text)
		e.RawText = &rawText
	}
	if p.HTML != nil {
		rawHTML := sanitize.HTML(*p.HTML)
		e.RawHTML = &rawHTML
	}
	e.RawBody = selectRawBody(e.RawText, e.RawHTML)

	return e
}

// textOrSanitizedHTML picks the channel fed to reply extraction: the plain
// text when it has content, the sanitized HTML otherwise.
func textOrSanitizedHTML(p *Payload) string {
	if p.Text != nil {
		if text := cleanText(*p.Text); text != "" {
			return text
		}
	}
	if p.HTML != nil {
		return sanitize.HTML(*p.HTML)
	}
	return ""
}

func selectRawBody(rawText, rawHTML *string) string {
	if rawText != nil && *rawText != "" {
		return *rawText
	}
	if rawHTML != nil {
		return *rawHTML
	}
	return ""
}

func cleanText(s string) string {
	return strings.TrimSpace(sanitize.Bytes(s))
}
