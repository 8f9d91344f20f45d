package index

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

type mockRepo struct {
	insertFn func(ctx context.Context, doc *domain.Document) error
	inserted []*domain.Document
}

func (m *mockRepo) Insert(ctx context.Context, doc *domain.Document) error {
	m.inserted = append(m.inserted, doc)
	if m.insertFn != nil {
		return m.insertFn(ctx, doc)
	}
	return nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, image []byte) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, image)
}

func fixedVector(dim int) []float32 {
	v := make([]float32, dim)
	v[0] = 1
	return v
}

func TestIndex_Success(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{
		embedFn: func(context.Context, []byte) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Vector: fixedVector(512)}, nil
		},
	}
	svc := New(repo, emb, 512)
	svc.now = func() time.Time { return time.Unix(0, 1700000000000000000) }

	receipt, err := svc.Index(context.Background(), []byte("img"), "rig-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.DocumentID != "rig-42_1700000000000000000" {
		t.Errorf("unexpected document id %q", receipt.DocumentID)
	}
	if receipt.Dimension != 512 {
		t.Errorf("unexpected dimension %d", receipt.Dimension)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].EntityID != "rig-42" {
		t.Errorf("unexpected insert: %+v", repo.inserted)
	}
}

func TestIndex_NeverOverwrites(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{
		embedFn: func(context.Context, []byte) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Vector: fixedVector(512)}, nil
		},
	}
	svc := New(repo, emb, 512)

	r1, err := svc.Index(context.Background(), []byte("img"), "rig-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := svc.Index(context.Background(), []byte("img"), "rig-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r1.DocumentID == r2.DocumentID {
		t.Errorf("same entity produced the same document id twice: %s", r1.DocumentID)
	}
	if len(repo.inserted) != 2 {
		t.Errorf("expected 2 inserts, got %d", len(repo.inserted))
	}
	for _, doc := range repo.inserted {
		if !strings.HasPrefix(doc.ID, "rig-42_") {
			t.Errorf("document id %q does not embed its entity", doc.ID)
		}
	}
}

func TestIndex_Validation(t *testing.T) {
	svc := New(&mockRepo{}, &mockEmbedder{}, 512)

	if _, err := svc.Index(context.Background(), nil, "e1"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing image: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Index(context.Background(), []byte("img"), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing entity: expected ErrValidation, got %v", err)
	}
}

func TestIndex_EmbedderFailure(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{
		embedFn: func(context.Context, []byte) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, domain.ErrEmbedding
		},
	}
	svc := New(repo, emb, 512)

	_, err := svc.Index(context.Background(), []byte("img"), "e1")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("nothing must be stored when embedding fails")
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{
		embedFn: func(context.Context, []byte) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Vector: fixedVector(384)}, nil
		},
	}
	svc := New(repo, emb, 512)

	_, err := svc.Index(context.Background(), []byte("img"), "e1")
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	var dim *domain.DimensionMismatchError
	if !errors.As(err, &dim) || dim.Got != 384 || dim.Want != 512 {
		t.Errorf("unexpected mismatch detail: %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("nothing must be stored on dimension mismatch")
	}
}

func TestIndex_StoreFailure(t *testing.T) {
	repo := &mockRepo{
		insertFn: func(context.Context, *domain.Document) error {
			return domain.ErrStoreUnavailable
		},
	}
	emb := &mockEmbedder{
		embedFn: func(context.Context, []byte) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Vector: fixedVector(512)}, nil
		},
	}
	svc := New(repo, emb, 512)

	_, err := svc.Index(context.Background(), []byte("img"), "e1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
