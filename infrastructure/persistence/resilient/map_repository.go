// Package resilient wraps a repository with a circuit breaker so a failing
// table is given time to recover instead of being hammered on every drag.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"conceptmap/application/ports"
	pkgerrors "conceptmap/pkg/errors"
)

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // closed-state window for clearing counts
	Timeout     time.Duration // open-state duration before probing
	MaxFailures uint32        // consecutive failures that trip the breaker
}

// DefaultBreakerConfig returns a default configuration
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
	}
}

// MapRepository guards another ports.MapRepository with a circuit breaker.
// Domain outcomes (not found, conflict, validation) do not count as failures.
type MapRepository struct {
	next    ports.MapRepository
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewMapRepository creates the decorator
func NewMapRepository(next ports.MapRepository, cfg BreakerConfig, logger *zap.Logger) *MapRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})

	return &MapRepository{next: next, breaker: breaker, logger: logger}
}

// State returns the breaker state, for readiness checks
func (r *MapRepository) State() gobreaker.State {
	return r.breaker.State()
}

// FetchMap implements ports.MapRepository
func (r *MapRepository) FetchMap(ctx context.Context, mapID string) (*ports.MapDocument, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.next.FetchMap(ctx, mapID)
	})
	if err != nil {
		return nil, r.translate(err)
	}
	return result.(*ports.MapDocument), nil
}

// SaveMap implements ports.MapRepository
func (r *MapRepository) SaveMap(ctx context.Context, doc *ports.MapDocument) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.next.SaveMap(ctx, doc)
	})
	return r.translate(err)
}

// ListMaps implements ports.MapRepository
func (r *MapRepository) ListMaps(ctx context.Context, ownerID string) ([]ports.MapSummary, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.next.ListMaps(ctx, ownerID)
	})
	if err != nil {
		return nil, r.translate(err)
	}
	return result.([]ports.MapSummary), nil
}

func (r *MapRepository) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError("map storage").WithCause(err)
	}
	return err
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return pkgerrors.IsClientError(err)
}
