// Package qa provides the extractive-answer oracle: given a context and a
// question, it returns a short answer span and a confidence score.
package qa

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
)

// ErrModelUnavailable is returned when the answer oracle cannot be reached or
// fails. The caller reports it to the user; retries, if any, belong to the
// oracle's own transport, not to this package.
var ErrModelUnavailable = errors.New("answer model unavailable")

// Answer is an extractive answer: a contiguous span from the provided context
// and the model's own confidence in it.
type Answer struct {
	Span  string
	Score float64 // in [0,1]
}

// Answerer extracts an answer span for a question from the given context text.
type Answerer interface {
	Answer(ctx context.Context, contextText, question string) (*Answer, error)
	Close() error
}

// NewAnswerer creates an answerer for the configured provider.
// Supported providers: "http" (default, remote QA endpoint) and "mock".
func NewAnswerer(cfg *config.QAConfig) (Answerer, error) {
	switch cfg.Provider {
	case "http", "":
		return NewHTTPAnswerer(cfg)
	case "mock":
		return NewMockAnswerer(), nil
	default:
		return nil, fmt.Errorf("unknown qa provider: %s (supported: http, mock)", cfg.Provider)
	}
}
