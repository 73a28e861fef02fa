package qa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
)

func TestNewAnswerer_Providers(t *testing.T) {
	if _, err := NewAnswerer(&config.QAConfig{Provider: "bogus"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewAnswerer(&config.QAConfig{Provider: "http"}); err == nil {
		t.Error("expected error for http provider without endpoint")
	}
	a, err := NewAnswerer(&config.QAConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("mock provider: %v", err)
	}
	defer a.Close()
}

func TestHTTPAnswerer_Answer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req qaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Inputs.Question != "what is it?" || req.Inputs.Context == "" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(qaResponse{Answer: "a span", Score: 0.8})
	}))
	defer srv.Close()

	t.Setenv("KOTAE_QA_KEY", "secret")
	a, err := NewHTTPAnswerer(&config.QAConfig{
		Endpoint:       srv.URL,
		APIKeyEnv:      "KOTAE_QA_KEY",
		TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	ans, err := a.Answer(context.Background(), "some context text", "what is it?")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Span != "a span" || ans.Score != 0.8 {
		t.Errorf("got %+v", ans)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
}

func TestHTTPAnswerer_ClampsScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(qaResponse{Answer: "x", Score: 1.7})
	}))
	defer srv.Close()

	a, err := NewHTTPAnswerer(&config.QAConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	ans, err := a.Answer(context.Background(), "c", "q")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Score != 1 {
		t.Errorf("score not clamped: %f", ans.Score)
	}
}

func TestHTTPAnswerer_ServerErrorWrapsModelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, err := NewHTTPAnswerer(&config.QAConfig{Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Answer(context.Background(), "c", "q"); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("want ErrModelUnavailable, got %v", err)
	}
}

func TestHTTPAnswerer_ConnectionRefusedWrapsModelUnavailable(t *testing.T) {
	a, err := NewHTTPAnswerer(&config.QAConfig{Endpoint: "http://127.0.0.1:1", TimeoutSeconds: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Answer(context.Background(), "c", "q"); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("want ErrModelUnavailable, got %v", err)
	}
}

func TestMockAnswerer(t *testing.T) {
	m := NewMockAnswerer()
	ans, err := m.Answer(context.Background(), "c", "q")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Span != "mock answer" || ans.Score != 1.0 {
		t.Errorf("got %+v", ans)
	}

	m.Err = ErrModelUnavailable
	if _, err := m.Answer(context.Background(), "c", "q"); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("want injected error, got %v", err)
	}

	m.Fn = func(ctx context.Context, contextText, question string) (*Answer, error) {
		return &Answer{Span: question, Score: 0.5}, nil
	}
	ans, _ = m.Answer(context.Background(), "c", "echo")
	if ans.Span != "echo" {
		t.Errorf("Fn override ignored: %+v", ans)
	}
	if m.Calls != 3 {
		t.Errorf("calls: got %d", m.Calls)
	}
}
