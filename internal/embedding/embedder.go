// Package embedding provides text embedding providers and the embedding cache.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text. Implementations must be
// deterministic: identical input text yields an identical vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Model() string
	Close() error
}

// ErrNotReady is returned when an operation needs an embedding provider
// that is not configured or failed to initialize. Callers surface it as
// "service not ready"; it is never retried silently.
var ErrNotReady = errors.New("embedding provider not ready")
