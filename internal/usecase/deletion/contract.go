package deletion

import (
	"context"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Repository defines the storage contract for entity deletion.
type Repository interface {
	ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.DocumentRef, int, error)
	Delete(ctx context.Context, docID string) error
}
