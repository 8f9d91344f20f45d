package search

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Repository defines the candidate retrieval contract.
type Repository interface {
	TopK(ctx context.Context, vector []float32, k int, minRaw float64) ([]domain.Candidate, error)
}

// Embedder vectorizes a query image into an embedding.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error)
}
