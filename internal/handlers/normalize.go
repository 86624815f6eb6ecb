package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"

	"github.com/rs/zerolog/hlog"

	"github.com/felo/mailnorm/internal/parser"
	"github.com/felo/mailnorm/internal/payload"
)

const (
	maxBodyBytes  = 32 << 20
	maxFormMemory = 8 << 20
)

var errUnsupportedMedia = errors.New("unsupported content type")

// AttachmentInfo describes an uploaded file without its content
type AttachmentInfo struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Normalize handles an inbound payload posted as JSON or as a form and
// responds with the normalized email
func (h *Handlers) Normalize(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	p, err := decodePayload(r)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected payload")
		status := http.StatusBadRequest
		if errors.Is(err, errUnsupportedMedia) {
			status = http.StatusUnsupportedMediaType
		}
		http.Error(w, err.Error(), status)
		return
	}

	for _, cerr := range payload.ApplyCharsets(p) {
		log.Warn().Err(cerr).Msg("Charset conversion skipped")
	}

	email := h.normalizer.Normalize(p)
	log.Debug().
		Int("to", len(email.To)).
		Int("headers", email.Headers.Len()).
		Bool("reply_trimmed", email.Body != email.RawBody).
		Msg("Payload normalized")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(email); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func decodePayload(r *http.Request) (*parser.Payload, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType := "application/json"
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("invalid content type: %w", err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		return payload.FromJSON(io.LimitReader(r.Body, maxBodyBytes))
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		p := payload.FromForm(url.Values(r.MultipartForm.Value))
		if files := attachmentInfo(r.MultipartForm.File); len(files) > 0 {
			p.Attachments = files
		}
		return p, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		return payload.FromForm(r.PostForm), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedMedia, mediaType)
	}
}

func attachmentInfo(files map[string][]*multipart.FileHeader) []AttachmentInfo {
	var out []AttachmentInfo
	for field, headers := range files {
		for _, fh := range headers {
			out = append(out, AttachmentInfo{
				Field:       field,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}
