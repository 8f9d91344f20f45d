package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/imagedex/internal/db"
	"github.com/kailas-cloud/imagedex/internal/domain"
)

type mockStore struct {
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	return m.searchKNNFn(ctx, q)
}

func TestTopK_MapsEntriesToCandidates(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			if q.IndexName != "imagedex:photo:idx" || q.K != 10 || q.MinRawScore != 1.7 {
				t.Errorf("unexpected query: %+v", q)
			}
			// The RETURN projection must request the distance field or a
			// live engine strips the score from every hit.
			scoreRequested := false
			for _, f := range q.ReturnFields {
				if f == "__vector_score" {
					scoreRequested = true
				}
			}
			if !scoreRequested {
				t.Errorf("__vector_score missing from ReturnFields: %v", q.ReturnFields)
			}
			return &db.SearchResult{
				Total: 2,
				Entries: []db.SearchEntry{
					{Key: "imagedex:photo:e1_5", Score: 1.92, Fields: map[string]string{"entity_id": "e1"}},
					{Key: "imagedex:photo:e2_9", Score: 1.81, Fields: map[string]string{"entity_id": "e2"}},
				},
			}, nil
		},
	}
	repo := New(ms, "imagedex:")

	got, err := repo.TopK(context.Background(), []float32{0.1}, 10, 1.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	want := domain.Candidate{DocumentID: "e1_5", EntityID: "e1", RawScore: 1.92}
	if got[0] != want {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}

func TestTopK_Empty(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return &db.SearchResult{}, nil
		},
	}
	repo := New(ms, "imagedex:")

	got, err := repo.TopK(context.Background(), []float32{0.1}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestTopK_StoreErrorMapsToUnavailable(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return nil, &db.Error{Op: db.OpSearch, Err: context.DeadlineExceeded}
		},
	}
	repo := New(ms, "imagedex:")

	_, err := repo.TopK(context.Background(), []float32{0.1}, 10, 0)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
