package imagedex

import "go.uber.org/zap"

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	embedder Embedder

	vectorDimensions int
	keyPrefix        string
	hnswM            int
	hnswEFConstruct  int

	minSimilarity float64
	window        int
	scanLimit     int

	logger *zap.Logger
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the image embedding provider. Required for Index and
// Search; DeleteEntity and Ping work without it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the embedding dimension. Defaults to 512.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithKeyPrefix sets the storage key prefix. Defaults to "imagedex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithSearchDefaults sets the similarity threshold and candidate window.
// Defaults: 0.7 and 100.
func WithSearchDefaults(minSimilarity float64, window int) Option {
	return optionFunc(func(c *clientConfig) {
		c.minSimilarity = minSimilarity
		c.window = window
	})
}

// WithScanLimit bounds how many documents one DeleteEntity call enumerates.
// Default: 1000.
func WithScanLimit(limit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.scanLimit = limit
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
