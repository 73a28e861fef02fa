// Package embedding provides the text embedding oracle: a local ONNX model,
// a deterministic mock, and an LRU cache shared by both.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
)

// Embedder produces fixed-length vector embeddings for text. The output
// dimension is constant for the lifetime of the embedder. Implementations
// must return an error on failure, never a silent zero vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// NewEmbedder creates an embedder for the configured provider.
// Supported providers: "onnx" (default; requires CGO and the onnxruntime
// library) and "mock" (deterministic, for development and tests).
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "onnx", "":
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, mock)", cfg.Provider)
	}
}
