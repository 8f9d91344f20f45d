// Package embedding decorates the embedding provider with resilience
// and observability concerns. Transport metrics live in transport/clip;
// this layer owns failure isolation.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// BreakerConfig tunes the circuit protecting the embedding provider.
type BreakerConfig struct {
	// MaxFailures trips the circuit after this many consecutive failures.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// HalfOpenMaxRequests bounds probe requests in half-open state.
	HalfOpenMaxRequests uint32
}

// DefaultBreakerConfig returns the production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:         3,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}
}

// BreakerEmbedder wraps an Embedder with a circuit breaker so a dead
// provider fails fast instead of queueing requests against a timeout.
type BreakerEmbedder struct {
	inner   domain.Embedder
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerEmbedder wraps inner with a circuit breaker. A zero cfg uses
// the production defaults.
func NewBreakerEmbedder(inner domain.Embedder, cfg BreakerConfig, log *zap.Logger) *BreakerEmbedder {
	if cfg == (BreakerConfig{}) {
		cfg = DefaultBreakerConfig()
	}
	settings := gobreaker.Settings{
		Name:        "embedder",
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Caller mistakes never reached the provider; counting them would
		// let a few bad uploads trip the circuit for everyone.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrInvalidImage)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("embedder circuit state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerEmbedder{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// EmbedImage delegates to the inner embedder through the circuit. A
// rejected call (open circuit) surfaces as an embedding failure so the
// transport maps it like any other provider outage.
func (b *BreakerEmbedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.EmbedImage(ctx, image)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.EmbeddingResult{}, fmt.Errorf("embedder circuit open: %w", domain.ErrEmbedding)
		}
		return domain.EmbeddingResult{}, err
	}
	return out.(domain.EmbeddingResult), nil
}

// HealthCheck probes the inner provider directly, bypassing the circuit.
// Health probes must observe the real provider state, not the breaker's.
func (b *BreakerEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := b.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("inner health check: %w", err)
	}
	return nil
}

// State reports the circuit state for diagnostics.
func (b *BreakerEmbedder) State() string {
	return b.breaker.State().String()
}
