// Package search implements similarity search: embed a query image,
// retrieve nearest documents and reduce them to the best match per entity.
package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/logger"
)

// Options tunes a single search call.
type Options struct {
	// Threshold overrides the configured minimum similarity when set.
	// Valid range [-1, 1].
	Threshold *float64
	// Window overrides the retrieval depth (candidates fetched before
	// deduplication) when positive.
	Window int
}

// Result is the outcome of one search call.
type Result struct {
	Matches   []domain.Match
	Threshold float64
}

// Service handles similarity search over indexed images.
type Service struct {
	repo             Repository
	embedder         Embedder
	codec            domain.ScoreCodec
	vectorDim        int
	defaultThreshold float64
	defaultWindow    int
}

// New creates a search service. defaultThreshold is the minimum cosine
// similarity a hit must reach; defaultWindow bounds how many raw
// candidates are pulled before per-entity reduction.
func New(repo Repository, embedder Embedder, codec domain.ScoreCodec,
	vectorDim int, defaultThreshold float64, defaultWindow int,
) *Service {
	return &Service{
		repo:             repo,
		embedder:         embedder,
		codec:            codec,
		vectorDim:        vectorDim,
		defaultThreshold: defaultThreshold,
		defaultWindow:    defaultWindow,
	}
}

// Search embeds the query image and returns at most one match per entity,
// each at or above the similarity threshold, ordered best first. An empty
// index or a threshold nothing reaches yields an empty match list, not an
// error.
func (s *Service) Search(ctx context.Context, image []byte, opts Options) (Result, error) {
	if len(image) == 0 {
		return Result{}, fmt.Errorf("image is required: %w", domain.ErrValidation)
	}

	threshold := s.defaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if threshold < -1 || threshold > 1 {
		return Result{}, fmt.Errorf("min_similarity %v out of range [-1, 1]: %w",
			threshold, domain.ErrValidation)
	}
	window := s.defaultWindow
	if opts.Window > 0 {
		window = opts.Window
	}

	result, err := s.embedder.EmbedImage(ctx, image)
	if err != nil {
		return Result{}, fmt.Errorf("vectorize query: %w", err)
	}
	if result.Dimension() != s.vectorDim {
		return Result{}, fmt.Errorf("vectorize query: %w",
			domain.NewDimensionMismatch(result.Dimension(), s.vectorDim))
	}

	candidates, err := s.repo.TopK(ctx, result.Vector, window, s.codec.Encode(threshold))
	if err != nil {
		return Result{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	matches := s.reduce(candidates, threshold)
	logger.FromContext(ctx).Debug("search completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Float64("threshold", threshold),
	)
	return Result{Matches: matches, Threshold: threshold}, nil
}

// reduce decodes raw scores, drops hits below the threshold and keeps the
// single best-scoring document per entity. The threshold is re-applied
// here even when the engine pre-filtered, so drivers that cannot filter
// server-side stay correct.
func (s *Service) reduce(candidates []domain.Candidate, threshold float64) []domain.Match {
	best := make(map[string]int, len(candidates))
	matches := make([]domain.Match, 0, len(candidates))

	for _, c := range candidates {
		similarity := s.codec.Decode(c.RawScore)
		if similarity < threshold {
			continue
		}
		if i, seen := best[c.EntityID]; seen {
			if similarity > matches[i].Similarity {
				matches[i].Similarity = similarity
				matches[i].DocumentID = c.DocumentID
			}
			continue
		}
		best[c.EntityID] = len(matches)
		matches = append(matches, domain.Match{
			EntityID:   c.EntityID,
			Similarity: similarity,
			DocumentID: c.DocumentID,
		})
	}

	// Stable keeps first-seen order between equal scores deterministic.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}
