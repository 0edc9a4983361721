package store

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"pushrelay/internal/config"
	"pushrelay/pkg/circuitbreaker"
)

// CircuitBreakerRepository fails store calls fast while Redis is persistently
// down, instead of stalling every candidate on a timing-out connection. A run
// sees an open breaker the same way it sees any store error.
type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig) *CircuitBreakerRepository {
	if !cfg.Enabled {
		return &CircuitBreakerRepository{
			repo: repo,
			cb:   nil,
		}
	}

	cbConfig := circuitbreaker.DefaultConfig("redis-store")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinRequests) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (r *CircuitBreakerRepository) State() string {
	if r.cb == nil {
		return "disabled"
	}
	return r.cb.State().String()
}

func (r *CircuitBreakerRepository) GetCursor(ctx context.Context, user string) (string, error) {
	if r.cb == nil {
		return r.repo.GetCursor(ctx, user)
	}

	result, err := r.execute(ctx, func() (interface{}, error) {
		return r.repo.GetCursor(ctx, user)
	})
	if err != nil {
		return "", err
	}

	cursor, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("repository returned invalid result type")
	}
	return cursor, nil
}

func (r *CircuitBreakerRepository) SetCursor(ctx context.Context, user, eventID string) error {
	if r.cb == nil {
		return r.repo.SetCursor(ctx, user, eventID)
	}

	_, err := r.execute(ctx, func() (interface{}, error) {
		return nil, r.repo.SetCursor(ctx, user, eventID)
	})
	return err
}

func (r *CircuitBreakerRepository) HasFetched(ctx context.Context, shas []string) (map[string]bool, error) {
	if r.cb == nil {
		return r.repo.HasFetched(ctx, shas)
	}
	return r.executeBulkHas(ctx, func() (interface{}, error) {
		return r.repo.HasFetched(ctx, shas)
	})
}

func (r *CircuitBreakerRepository) HasSent(ctx context.Context, shas []string) (map[string]bool, error) {
	if r.cb == nil {
		return r.repo.HasSent(ctx, shas)
	}
	return r.executeBulkHas(ctx, func() (interface{}, error) {
		return r.repo.HasSent(ctx, shas)
	})
}

func (r *CircuitBreakerRepository) MarkFetched(ctx context.Context, shas []string) error {
	if r.cb == nil {
		return r.repo.MarkFetched(ctx, shas)
	}

	_, err := r.execute(ctx, func() (interface{}, error) {
		return nil, r.repo.MarkFetched(ctx, shas)
	})
	return err
}

func (r *CircuitBreakerRepository) MarkSent(ctx context.Context, shas []string) error {
	if r.cb == nil {
		return r.repo.MarkSent(ctx, shas)
	}

	_, err := r.execute(ctx, func() (interface{}, error) {
		return nil, r.repo.MarkSent(ctx, shas)
	})
	return err
}

func (r *CircuitBreakerRepository) executeBulkHas(ctx context.Context, fn func() (interface{}, error)) (map[string]bool, error) {
	result, err := r.execute(ctx, fn)
	if err != nil {
		return nil, err
	}

	flags, ok := result.(map[string]bool)
	if !ok {
		return nil, fmt.Errorf("repository returned invalid result type")
	}
	return flags, nil
}

func (r *CircuitBreakerRepository) execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	result, err := r.cb.ExecuteWithContext(ctx, fn)

	r.cb.RecordRequest(err == nil)

	if err != nil {
		if r.cb.IsOpen() {
			return nil, fmt.Errorf("circuit breaker is open for redis-store: %w", err)
		}
		return nil, err
	}

	return result, nil
}
