package domain

import "context"

// Embedder maps raw image bytes to a unit-length embedding vector.
// Implementations must be safe for concurrent use.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector through the decorator chain.
type EmbeddingResult struct {
	Vector []float32
}

// Dimension returns the vector length.
func (r EmbeddingResult) Dimension() int { return len(r.Vector) }
