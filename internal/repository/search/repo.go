// Package search retrieves scored candidates from the vector index.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/imagedex/internal/db"
	"github.com/kailas-cloud/imagedex/internal/domain"
)

// store is the consumer interface for candidate retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo runs KNN queries against the photo index and maps hits to
// domain candidates.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a search repository. keyPrefix must match the one the photo
// repository writes under.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// IndexName returns the FT index queried by TopK.
func (r *Repo) IndexName() string {
	return r.keyPrefix + "photo:idx"
}

// TopK returns up to k candidates nearest to vector, best raw score first.
// minRaw prunes hits below the given raw score at the engine when the
// driver supports it; callers still re-check the threshold on decode.
func (r *Repo) TopK(ctx context.Context, vector []float32, k int, minRaw float64) ([]domain.Candidate, error) {
	// The engine returns only the RETURN-listed fields, so the distance
	// must be requested explicitly or every hit parses with score 0.
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"entity_id", "__vector_score"},
		MinRawScore:  minRaw,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		candidates = append(candidates, domain.Candidate{
			DocumentID: strings.TrimPrefix(entry.Key, r.docKeyPrefix()),
			EntityID:   entry.Fields["entity_id"],
			RawScore:   entry.Score,
		})
	}
	return candidates, nil
}

func (r *Repo) docKeyPrefix() string {
	return r.keyPrefix + "photo:"
}
