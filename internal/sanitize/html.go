package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

// htmlPolicy is the allow-list applied to HTML bodies. A bluemonday policy
// is safe for concurrent use once built.
var htmlPolicy = newHTMLPolicy()

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "span", "br", "div", "blockquote",
		"b", "i", "u", "strong", "em",
		"ul", "ol", "li",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")

	// cid: points at an inline MIME part, data: carries the image itself
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "cid", "data")

	return p
}

// HTML sanitizes an HTML body: invalid bytes are removed, markup outside the
// allow-list is stripped (text content kept), entities are decoded and the
// result is trimmed.
//
// Entities are decoded after sanitizing, so escaped markup such as
// "&lt;script&gt;" comes back as a literal "<script>". The result is not
// safe to render as HTML without escaping it again.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	cleaned := Bytes(s)
	cleaned = htmlPolicy.Sanitize(cleaned)
	cleaned = html.UnescapeString(cleaned)
	return strings.TrimSpace(cleaned)
}

// Text sanitizes a plain-text body. All markup is removed, leaving only the
// decoded text.
func Text(s string) string {
	cleaned := strings.TrimSpace(Bytes(s))
	if cleaned == "" {
		return ""
	}
	return stripMarkup(cleaned)
}

// stripMarkup keeps the text tokens of s and drops tags, comments and the
// content of script and style elements.
func stripMarkup(s string) string {
	z := nethtml.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			return b.String()
		case nethtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case nethtml.StartTagToken:
			if isRawTextElement(z) {
				skip++
			}
		case nethtml.EndTagToken:
			if isRawTextElement(z) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawTextElement(z *nethtml.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
