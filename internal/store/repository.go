// Package store is the client for the idempotency store: per-user event
// cursors plus two independent sha-keyed flag sets, "fetched" and "sent".
// Flags are monotonic; marking an already-marked sha is a no-op and nothing
// ever unsets one. A missing key reads as false.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pushrelay/internal/constants"
	"pushrelay/pkg/telemetry"
)

type Repository interface {
	GetCursor(ctx context.Context, user string) (string, error)
	SetCursor(ctx context.Context, user, eventID string) error

	// Bulk flag operations resolve every sha in a single round trip.
	HasFetched(ctx context.Context, shas []string) (map[string]bool, error)
	HasSent(ctx context.Context, shas []string) (map[string]bool, error)
	MarkFetched(ctx context.Context, shas []string) error
	MarkSent(ctx context.Context, shas []string) error
}

type RedisRepository struct {
	client *redis.Client
	sink   telemetry.Sink
}

func NewRepository(client *redis.Client, sink telemetry.Sink) Repository {
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	return &RedisRepository{client: client, sink: sink}
}

// GetCursor returns the last-seen event id for user, or "" when no run has
// recorded one yet.
func (r *RedisRepository) GetCursor(ctx context.Context, user string) (string, error) {
	start := time.Now()
	val, err := r.client.Get(ctx, constants.KeyPrefixCursor+user).Result()
	if errors.Is(err, redis.Nil) {
		r.sink.ObserveStoreOp("get_cursor", time.Since(start), nil)
		return "", nil
	}
	r.sink.ObserveStoreOp("get_cursor", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("redis GET cursor for %s failed: %w", user, err)
	}
	return val, nil
}

func (r *RedisRepository) SetCursor(ctx context.Context, user, eventID string) error {
	start := time.Now()
	err := r.client.Set(ctx, constants.KeyPrefixCursor+user, eventID, 0).Err()
	r.sink.ObserveStoreOp("set_cursor", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("redis SET cursor for %s failed: %w", user, err)
	}
	return nil
}

func (r *RedisRepository) HasFetched(ctx context.Context, shas []string) (map[string]bool, error) {
	return r.bulkHas(ctx, "has_fetched", constants.KeyPrefixFetched, shas)
}

func (r *RedisRepository) HasSent(ctx context.Context, shas []string) (map[string]bool, error) {
	return r.bulkHas(ctx, "has_sent", constants.KeyPrefixSent, shas)
}

func (r *RedisRepository) MarkFetched(ctx context.Context, shas []string) error {
	return r.bulkMark(ctx, "mark_fetched", constants.KeyPrefixFetched, shas)
}

func (r *RedisRepository) MarkSent(ctx context.Context, shas []string) error {
	return r.bulkMark(ctx, "mark_sent", constants.KeyPrefixSent, shas)
}

func (r *RedisRepository) bulkHas(ctx context.Context, op, prefix string, shas []string) (map[string]bool, error) {
	if len(shas) == 0 {
		return map[string]bool{}, nil
	}

	keys := make([]string, len(shas))
	for i, sha := range shas {
		keys[i] = prefix + sha
	}

	start := time.Now()
	vals, err := r.client.MGet(ctx, keys...).Result()
	r.sink.ObserveStoreOp(op, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("redis MGET (%s) failed: %w", op, err)
	}

	flags := make(map[string]bool, len(shas))
	for i, sha := range shas {
		flags[sha] = vals[i] != nil
	}
	return flags, nil
}

func (r *RedisRepository) bulkMark(ctx context.Context, op, prefix string, shas []string) error {
	if len(shas) == 0 {
		return nil
	}

	pairs := make([]interface{}, 0, len(shas)*2)
	for _, sha := range shas {
		pairs = append(pairs, prefix+sha, "1")
	}

	start := time.Now()
	err := r.client.MSet(ctx, pairs...).Err()
	r.sink.ObserveStoreOp(op, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("redis MSET (%s) failed: %w", op, err)
	}
	return nil
}
