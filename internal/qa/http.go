package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hyperjump/kotae/internal/config"
)

// HTTPAnswerer calls a remote question-answering endpoint. The endpoint takes
// a JSON body with the question and context and returns the extracted span
// with a score, in the shape used by hosted inference APIs for extractive QA
// models. Failures are wrapped in ErrModelUnavailable; the client never
// retries on its own.
type HTTPAnswerer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPAnswerer creates a client for the configured endpoint. The API key is
// read from the environment variable named in the config, when set.
func NewHTTPAnswerer(cfg *config.QAConfig) (*HTTPAnswerer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("qa endpoint is required for the http provider")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	apiKey := ""
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	return &HTTPAnswerer{
		endpoint: cfg.Endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type qaRequest struct {
	Inputs qaInputs `json:"inputs"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// Answer posts the question and context to the endpoint and returns the span.
func (a *HTTPAnswerer) Answer(ctx context.Context, contextText, question string) (*Answer, error) {
	body, err := json.Marshal(qaRequest{Inputs: qaInputs{Question: question, Context: contextText}})
	if err != nil {
		return nil, fmt.Errorf("marshal qa request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build qa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: endpoint returned %d: %s", ErrModelUnavailable, resp.StatusCode, string(b))
	}

	var out qaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrModelUnavailable, err)
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return &Answer{Span: out.Answer, Score: out.Score}, nil
}

// Close is a no-op; the underlying http.Client needs no teardown.
func (a *HTTPAnswerer) Close() error { return nil }
