package qa

import "context"

// MockAnswerer returns canned answers for tests and offline development.
// Span, Score and Err set the fixed response; Fn, when non-nil, overrides
// everything and computes the answer per call.
type MockAnswerer struct {
	Span  string
	Score float64
	Err   error
	Fn    func(ctx context.Context, contextText, question string) (*Answer, error)

	Calls int
}

// NewMockAnswerer creates a mock that echoes a fixed span with full confidence.
func NewMockAnswerer() *MockAnswerer {
	return &MockAnswerer{Span: "mock answer", Score: 1.0}
}

func (m *MockAnswerer) Answer(ctx context.Context, contextText, question string) (*Answer, error) {
	m.Calls++
	if m.Fn != nil {
		return m.Fn(ctx, contextText, question)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &Answer{Span: m.Span, Score: m.Score}, nil
}

func (m *MockAnswerer) Close() error { return nil }
