package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/mailnorm/internal/parser"
	"github.com/felo/mailnorm/internal/reply"
)

// setupTestRouter creates the full router with a silent logger
func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := New(parser.New(reply.DefaultConfig()), zerolog.Nop())
	return h.Routes()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Request-Id"))
}

func TestNormalizeJSON(t *testing.T) {
	router := setupTestRouter(t)

	body := `{
		"to": ["Bob <bob@example.com>"],
		"from": "ralph@example.com",
		"subject": "Report",
		"text": "Looks good.\n\nOn 2010-01-01 12:00:00 Tristan wrote:\n> Check out this report.",
		"headers": "X-Mailer: Airmail (271)"
	}`
	req := httptest.NewRequest("POST", "/normalize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	out := decodeResponse(t, w)
	assert.Equal(t, "Looks good.", out["body"])
	assert.Equal(t, "Report", out["subject"])
	assert.Equal(t, map[string]any{"X-Mailer": "Airmail (271)"}, out["headers"])
	assert.Equal(t, "X-Mailer: Airmail (271)", out["raw_headers"])

	to := out["to"].([]any)
	require.Len(t, to, 1)
	assert.Equal(t, "Bob", to[0].(map[string]any)["name"])
}

func TestNormalizeURLEncodedForm(t *testing.T) {
	router := setupTestRouter(t)

	form := url.Values{}
	form.Add("to", "caleb@example.com")
	form.Add("to", "<joel@example.com>")
	form.Set("from", "ralph@example.com")
	form.Set("text", "Hell\xF3.")
	form.Set("charsets", `{"text":"iso-8859-1"}`)

	req := httptest.NewRequest("POST", "/normalize", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code, w.Body.String())
	out := decodeResponse(t, w)
	assert.Equal(t, "Helló.", out["body"])
	assert.Equal(t, "Helló.", out["raw_text"])
	assert.Nil(t, out["raw_html"])
	assert.Len(t, out["to"], 2)
}

func TestNormalizeMultipartForm(t *testing.T) {
	router := setupTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("from", "Bob <bob@example.com>"))
	require.NoError(t, mw.WriteField("html", `<p>Hi</p><img src="cid:logo" alt="logo">`))
	fw, err := mw.CreateFormFile("attachment1", "report.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/normalize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code, w.Body.String())
	out := decodeResponse(t, w)
	assert.Equal(t, `<p>Hi</p><img src="cid:logo" alt="logo">`, out["raw_body"])

	attachments := out["attachments"].([]any)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, "report.pdf", att["filename"])
	assert.Equal(t, "attachment1", att["field"])
	assert.EqualValues(t, 8, att["size"])
}

func TestNormalizeRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{name: "malformed json", contentType: "application/json", body: `{"to":`, status: 400},
		{name: "wrong json shape", contentType: "application/json", body: `{"to": 5}`, status: 400},
		{name: "unsupported type", contentType: "text/plain", body: "hello", status: 415},
		{name: "invalid content type", contentType: "multipart/form-data; boundary=", body: "", status: 400},
	}

	router := setupTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/normalize", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestNormalizeMethodNotAllowed(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/normalize", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 405, w.Code)
}
