package index

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Repository defines the storage contract for indexing.
type Repository interface {
	Insert(ctx context.Context, doc *domain.Document) error
}

// Embedder vectorizes an image into an embedding.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error)
}
