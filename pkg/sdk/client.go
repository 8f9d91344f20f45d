package imagedex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/db"
	dbredis "github.com/kailas-cloud/imagedex/internal/db/redis"
	dbvalkey "github.com/kailas-cloud/imagedex/internal/db/valkey"
	"github.com/kailas-cloud/imagedex/internal/domain"
	photorepo "github.com/kailas-cloud/imagedex/internal/repository/photo"
	searchrepo "github.com/kailas-cloud/imagedex/internal/repository/search"
	deletionuc "github.com/kailas-cloud/imagedex/internal/usecase/deletion"
	healthuc "github.com/kailas-cloud/imagedex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/imagedex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/imagedex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// SearchOptions override the client's search defaults per call.
type SearchOptions struct {
	// MinSimilarity overrides the configured threshold. Must be in [-1, 1].
	MinSimilarity *float64
	// Window overrides the candidate window size.
	Window int
}

// Client is an embedded imagedex instance: index, search and delete
// images against a Valkey or Redis vector store without running a server.
type Client struct {
	store    db.Store
	indexer  *indexuc.Service
	searcher *searchuc.Service
	deleter  *deletionuc.Service
	health   *healthuc.Service
	logger   *zap.Logger
}

// New creates a Client. At least one of WithValkey or WithRedis is
// required; WithEmbedder is required for Index and Search.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: 512,
		keyPrefix:        "imagedex:",
		hnswM:            32,
		hnswEFConstruct:  400,
		minSimilarity:    0.7,
		window:           100,
		scanLimit:        1000,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, fmt.Errorf("imagedex: no store configured (use WithValkey or WithRedis)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}

	client, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return client, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey":
		return dbvalkey.NewStore(dbvalkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
	case "redis":
		return dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	var embedder domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}

	photoRepo := photorepo.New(store, cfg.keyPrefix, cfg.vectorDimensions).
		WithHNSW(photorepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	searchRepo := searchrepo.New(store, cfg.keyPrefix)

	if err := photoRepo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	var embeddingCheck healthuc.EmbeddingChecker
	if hc, ok := embedder.(healthuc.EmbeddingChecker); ok {
		embeddingCheck = hc
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		store:    store,
		indexer:  indexuc.New(photoRepo, embedder, cfg.vectorDimensions),
		searcher: searchuc.New(searchRepo, embedder, domain.OffsetCodec{}, cfg.vectorDimensions, cfg.minSimilarity, cfg.window),
		deleter:  deletionuc.New(photoRepo, cfg.scanLimit),
		health:   healthuc.New(store, embeddingCheck),
		logger:   logger,
	}, nil
}

// Index embeds the image and stores it under a fresh document for entityID.
// Repeated calls with the same entity add documents, they never overwrite.
func (c *Client) Index(ctx context.Context, image []byte, entityID string) (IndexReceipt, error) {
	receipt, err := c.indexer.Index(ctx, image, entityID)
	if err != nil {
		return IndexReceipt{}, err
	}
	return IndexReceipt{
		DocumentID: receipt.DocumentID,
		Dimension:  receipt.Dimension,
	}, nil
}

// Search returns at most one match per entity, sorted by similarity
// descending. opts may be nil to use the configured defaults.
func (c *Client) Search(ctx context.Context, image []byte, opts *SearchOptions) ([]Match, error) {
	var ucOpts searchuc.Options
	if opts != nil {
		ucOpts.Threshold = opts.MinSimilarity
		ucOpts.Window = opts.Window
	}

	result, err := c.searcher.Search(ctx, image, ucOpts)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, Match{
			EntityID:   m.EntityID,
			Similarity: m.Similarity,
			DocumentID: m.DocumentID,
		})
	}
	return matches, nil
}

// DeleteEntity removes every document indexed for entityID. When some
// deletions fail the report carries the counts and the error wraps
// domain.ErrPartialDeletion.
func (c *Client) DeleteEntity(ctx context.Context, entityID string) (DeletionReport, error) {
	report, err := c.deleter.DeleteEntity(ctx, entityID)
	out := DeletionReport{
		TotalFound: report.TotalFound,
		Deleted:    report.Deleted,
		Failed:     report.Failed,
		Errors:     report.Errors,
	}
	return out, err
}

// Health checks the store and, when configured, the embedder.
func (c *Client) Health(ctx context.Context) Health {
	report := c.health.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	return Health{
		Healthy: report.Status == healthuc.Healthy,
		Checks:  checks,
	}
}

// Ping verifies the store connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the underlying store connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}
