package parser

import (
	"github.com/felo/mailnorm/internal/address"
	"github.com/felo/mailnorm/internal/headers"
)

// Payload is the flat field map handed over by the receiving layer. Text
// and HTML are nil when the channel was not sent at all.
type Payload struct {
	To          []string
	Cc          []string
	Bcc         []string
	From        string
	Subject     string
	Text        *string
	HTML        *string
	Headers     headers.Raw
	Attachments any
	Envelope    any
	Charsets    any
}

// Email is the normalized form of one inbound message
type Email struct {
	To      []address.Address `json:"to"`
	Cc      []address.Address `json:"cc"`
	Bcc     []address.Address `json:"bcc"`
	From    address.Address   `json:"from"`
	Subject string            `json:"subject"`

	// Body is the reply text with quoted history removed.
	//
	// Deprecated: kept for callers of the original field name; it always
	// equals the extracted reply.
	Body string `json:"body"`

	RawText *string `json:"raw_text"`
	RawHTML *string `json:"raw_html"`
	RawBody string  `json:"raw_body"`

	Headers    headers.Map `json:"headers"`
	RawHeaders headers.Raw `json:"raw_headers"`

	Attachments any `json:"attachments"`
	Envelope    any `json:"envelope"`
	Charsets    any `json:"charsets"`
}

// Reply returns the newly written text of the message.
func (e *Email) Reply() string {
	return e.Body
}
