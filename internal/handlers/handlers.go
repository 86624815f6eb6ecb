package handlers

import (
	"github.com/rs/zerolog"

	"github.com/felo/mailnorm/internal/parser"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	normalizer *parser.Normalizer
	log        zerolog.Logger
}

// New creates a new Handlers instance
func New(normalizer *parser.Normalizer, log zerolog.Logger) *Handlers {
	return &Handlers{
		normalizer: normalizer,
		log:        log,
	}
}
