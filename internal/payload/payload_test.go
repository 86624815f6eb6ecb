package payload

import (
	"net/url"
	"strings"
	"testing"

	"github.com/felo/mailnorm/internal/parser"
	"github.com/felo/mailnorm/internal/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	body := `{
		"to": ["caleb@example.com", "<joel@example.com>"],
		"cc": "Charles Conway <charles+123@example.com>",
		"from": "ralph@example.com",
		"subject": "Status",
		"text": "hi guys",
		"headers": {"X-Mailer": "Airmail (271)"},
		"attachments": [{"filename": "report.pdf"}],
		"envelope": "{\"from\":\"ralph@example.com\"}"
	}`

	p, err := FromJSON(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"caleb@example.com", "<joel@example.com>"}, p.To)
	assert.Equal(t, []string{"Charles Conway <charles+123@example.com>"}, p.Cc)
	assert.Nil(t, p.Bcc)
	assert.Equal(t, "ralph@example.com", p.From)
	require.NotNil(t, p.Text)
	assert.Equal(t, "hi guys", *p.Text)
	assert.Nil(t, p.HTML)
	assert.True(t, p.Headers.IsStructured())
	assert.Equal(t, "Airmail (271)", p.Headers.Fields()["X-Mailer"])
	assert.Equal(t, `{"from":"ralph@example.com"}`, p.Envelope)
	assert.Len(t, p.Attachments, 1)
}

func TestFromJSONHeaderBlob(t *testing.T) {
	p, err := FromJSON(strings.NewReader(`{"from":"a@example.com","headers":"X-Mailer: Airmail\nMime-Version: 1.0"}`))
	require.NoError(t, err)

	assert.False(t, p.Headers.IsStructured())
	assert.Equal(t, "X-Mailer: Airmail\nMime-Version: 1.0", p.Headers.BlobValue())
}

func TestFromJSONKeepsInvalidBytes(t *testing.T) {
	body := "{\"to\":[\"Caf\xE9 <a@example.com>\"],\"from\":\"b\xFF@example.com\"," +
		"\"subject\":\"Caf\xE9\",\"text\":\"Hell\xF3.\\n\\u00e9\\ud83d\\ude00\\/\",\"html\":null," +
		"\"headers\":\"X-Note: \xC0ok\",\"charsets\":{\"subject\":\"iso-8859-1\",\"to\":\"iso-8859-1\"}}"

	p, err := FromJSON(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "Caf\xE9", p.Subject)
	assert.Equal(t, []string{"Caf\xE9 <a@example.com>"}, p.To)
	require.NotNil(t, p.Text)
	assert.Equal(t, "Hell\xF3.\né😀/", *p.Text)
	assert.Nil(t, p.HTML)
	assert.Equal(t, "X-Note: \xC0ok", p.Headers.BlobValue())

	assert.Empty(t, ApplyCharsets(p))
	assert.Equal(t, "Café", p.Subject)
	assert.Equal(t, []string{"Café <a@example.com>"}, p.To)

	email := parser.New(reply.DefaultConfig()).Normalize(p)
	assert.Equal(t, "b@example.com", email.From.Email)
	assert.Equal(t, "Hell.\né😀/", email.Body)
	assert.Equal(t, "ok", email.Headers.String("X-Note"))
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "plain", input: `"abc"`, expected: "abc"},
		{name: "escapes", input: `"a\"b\\c\/d\b\f\n\r\t"`, expected: "a\"b\\c/d\b\f\n\r\t"},
		{name: "surrogate pair", input: `"\ud83d\ude00"`, expected: "😀"},
		{name: "lone surrogate", input: "\"\\ud83dx\xC0\"", expected: "\uFFFDx\xC0"},
		{name: "surrogate before plain escape", input: `"\ud83d\u0041"`, expected: "\uFFFDA"},
		{name: "raw invalid byte", input: "\"Hell\xF3\"", expected: "Hell\xF3"},
		{name: "not a string", input: `12`, wantErr: true},
		{name: "short unicode escape", input: `"\u12"`, wantErr: true},
		{name: "unknown escape", input: `"\x"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unquote([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON(strings.NewReader(`{"to": 12}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode payload")

	_, err = FromJSON(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestFromForm(t *testing.T) {
	v := url.Values{}
	v.Add(FieldTo, "caleb@example.com")
	v.Add(FieldTo, "Swift <swift@example.com>")
	v.Set(FieldFrom, "ralph@example.com")
	v.Set(FieldHTML, "<b>hi</b>")
	v.Set(FieldHeaders, "X-Mailer: test")
	v.Set(FieldCharsets, `{"html":"utf-8"}`)

	p := FromForm(v)

	assert.Equal(t, []string{"caleb@example.com", "Swift <swift@example.com>"}, p.To)
	assert.Nil(t, p.Text, "missing field stays absent")
	require.NotNil(t, p.HTML)
	assert.Equal(t, "<b>hi</b>", *p.HTML)
	assert.Equal(t, "X-Mailer: test", p.Headers.BlobValue())
	assert.Equal(t, `{"html":"utf-8"}`, p.Charsets)
	assert.Nil(t, p.Envelope)
}

func TestApplyCharsets(t *testing.T) {
	text := "Hell\xF3."
	subject := "Caf\xE9"
	p := &parser.Payload{
		From:     "ralph@example.com",
		Subject:  subject,
		Text:     &text,
		Charsets: `{"text":"iso-8859-1","subject":"windows-1252","from":"UTF-8"}`,
	}

	errs := ApplyCharsets(p)

	assert.Empty(t, errs)
	assert.Equal(t, "Helló.", *p.Text)
	assert.Equal(t, "Café", p.Subject)
	assert.Equal(t, "ralph@example.com", p.From)
}

func TestApplyCharsetsLeavesValidUTF8(t *testing.T) {
	text := "Helló."
	p := &parser.Payload{Text: &text, Charsets: map[string]any{"text": "iso-8859-1"}}

	assert.Empty(t, ApplyCharsets(p))
	assert.Equal(t, "Helló.", *p.Text)
}

func TestApplyCharsetsErrors(t *testing.T) {
	text := "Hell\xF3."
	p := &parser.Payload{Text: &text, Charsets: `{"text":"x-unknown-charset"}`}

	errs := ApplyCharsets(p)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "field text")
	assert.Equal(t, "Hell\xF3.", *p.Text, "field keeps its bytes")

	errs = ApplyCharsets(&parser.Payload{Charsets: "{not json"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "failed to parse charsets")

	assert.Empty(t, ApplyCharsets(&parser.Payload{}))
	assert.Nil(t, ApplyCharsets(nil))
}

func TestFormCharsetsThroughNormalize(t *testing.T) {
	v := url.Values{}
	v.Set(FieldFrom, "bye@example.com")
	v.Set(FieldText, "Hell\xF3.\n\n-- REPLY ABOVE THIS LINE --\nold")
	v.Set(FieldCharsets, `{"text":"iso-8859-1"}`)

	p := FromForm(v)
	require.Empty(t, ApplyCharsets(p))
	e := parser.New(reply.DefaultConfig()).Normalize(p)

	assert.Equal(t, "Helló.", e.Body)
	assert.Equal(t, `{"text":"iso-8859-1"}`, e.Charsets)
}
