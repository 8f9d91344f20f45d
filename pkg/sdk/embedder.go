package imagedex

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Embedder is the public contract for image embedding providers.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	v, err := a.inner.EmbedImage(ctx, image)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed image: %w", err)
	}
	return domain.EmbeddingResult{Vector: v}, nil
}

// noopEmbedder returns an error on every call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) EmbedImage(context.Context, []byte) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"imagedex: embedder not configured (use WithEmbedder)",
	)
}
