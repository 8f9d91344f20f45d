// Package photo persists embedding documents as hashes behind an FT index.
package photo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/imagedex/internal/db"
	"github.com/kailas-cloud/imagedex/internal/domain"
)

// store is the consumer interface for photo documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements document persistence for the photo collection.
type Repo struct {
	store     store
	keyPrefix string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a photo repository. keyPrefix namespaces all keys
// (e.g. "imagedex:").
func New(s store, keyPrefix string, vectorDim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, vectorDim: vectorDim}
}

// WithHNSW sets HNSW build parameters for EnsureIndex.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// IndexName returns the FT index name for the photo collection.
func (r *Repo) IndexName() string {
	return r.keyPrefix + "photo:idx"
}

// EnsureIndex creates the FT index if it does not exist yet.
// Safe to call on every startup.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("probe index: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        r.IndexName(),
		StorageType: db.StorageHash,
		Prefixes:    []string{r.docKeyPrefix()},
		Fields: []db.IndexField{
			{Name: "entity_id", Type: db.IndexFieldTag},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil // lost a startup race, index is there
		}
		return fmt.Errorf("create index: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Insert stores one embedding document under a fresh key. Existing
// documents are never touched.
func (r *Repo) Insert(ctx context.Context, doc *domain.Document) error {
	key := r.docKey(doc.ID)
	fields := map[string]string{
		"entity_id": doc.EntityID,
		"vector":    db.EncodeVector(doc.Vector),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("insert %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ListByEntity enumerates documents belonging to an entity, bounded by
// limit. The returned total is the engine's full match count, which may
// exceed the number of refs when the bound was hit.
func (r *Repo) ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.DocumentRef, int, error) {
	sr, err := r.store.SearchTag(ctx, &db.TagQuery{
		IndexName:    r.IndexName(),
		Field:        "entity_id",
		Value:        entityID,
		Limit:        limit,
		ReturnFields: []string{"entity_id"},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list by entity %s: %w: %w", entityID, domain.ErrStoreUnavailable, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, 0, nil
	}

	refs := make([]domain.DocumentRef, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		refs = append(refs, domain.DocumentRef{
			ID:       r.docIDFromKey(entry.Key),
			EntityID: entry.Fields["entity_id"],
		})
	}
	return refs, sr.Total, nil
}

// Delete removes one document by id. Deleting an already-removed document
// succeeds (idempotent per remaining document).
func (r *Repo) Delete(ctx context.Context, docID string) error {
	key := r.docKey(docID)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Repo) docKeyPrefix() string {
	return r.keyPrefix + "photo:"
}

func (r *Repo) docKey(id string) string {
	return r.docKeyPrefix() + id
}

func (r *Repo) docIDFromKey(key string) string {
	return strings.TrimPrefix(key, r.docKeyPrefix())
}
