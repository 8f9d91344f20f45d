// Package index implements the indexing operation: embed an image and
// persist it as a new document for its entity.
package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/logger"
)

// Receipt describes a successful indexing call.
type Receipt struct {
	DocumentID string
	Dimension  int
}

// Service handles image indexing with automatic vectorization.
type Service struct {
	repo      Repository
	embedder  Embedder
	vectorDim int
	now       func() time.Time
}

// New creates an indexing service. vectorDim is the dimension the index
// was created with; embeddings of any other length are rejected.
func New(repo Repository, embedder Embedder, vectorDim int) *Service {
	return &Service{
		repo:      repo,
		embedder:  embedder,
		vectorDim: vectorDim,
		now:       time.Now,
	}
}

// Index embeds the image and stores it as a fresh document owned by
// entityID. Every call creates a new document; nothing is overwritten,
// so an entity accumulates one document per call.
func (s *Service) Index(ctx context.Context, image []byte, entityID string) (Receipt, error) {
	if len(image) == 0 {
		return Receipt{}, fmt.Errorf("image is required: %w", domain.ErrValidation)
	}
	if entityID == "" {
		return Receipt{}, fmt.Errorf("entity_id is required: %w", domain.ErrValidation)
	}

	result, err := s.embedder.EmbedImage(ctx, image)
	if err != nil {
		return Receipt{}, fmt.Errorf("vectorize image: %w", err)
	}
	if result.Dimension() != s.vectorDim {
		return Receipt{}, fmt.Errorf("vectorize image: %w",
			domain.NewDimensionMismatch(result.Dimension(), s.vectorDim))
	}

	doc := &domain.Document{
		ID:       s.documentID(entityID),
		EntityID: entityID,
		Vector:   result.Vector,
	}
	if err := s.repo.Insert(ctx, doc); err != nil {
		return Receipt{}, fmt.Errorf("store document: %w", err)
	}

	logger.FromContext(ctx).Debug("document indexed",
		zap.String("entity_id", entityID),
		zap.String("document_id", doc.ID),
		zap.Int("dimension", result.Dimension()),
	)
	return Receipt{DocumentID: doc.ID, Dimension: result.Dimension()}, nil
}

// documentID derives a collision-resistant id from the entity and the
// current time. Nanosecond resolution keeps rapid re-indexing of the
// same entity from colliding.
func (s *Service) documentID(entityID string) string {
	return fmt.Sprintf("%s_%d", entityID, s.now().UnixNano())
}
