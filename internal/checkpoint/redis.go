package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wf:ckpt:"

// redisStore keeps one Redis hash per invocation, field-per-step. The hash
// expires after the configured TTL so abandoned invocations do not
// accumulate forever.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed checkpoint store.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisStore{client: client, ttl: ttl}
}

func invocationKey(invocationID string) string {
	return keyPrefix + invocationID
}

func (s *redisStore) Get(ctx context.Context, invocationID, step string) ([]byte, bool, error) {
	value, err := s.client.HGet(ctx, invocationKey(invocationID), step).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checkpoint get %s/%s: %w", invocationID, step, err)
	}
	return value, true, nil
}

func (s *redisStore) Put(ctx context.Context, invocationID, step string, value []byte) error {
	key := invocationKey(invocationID)
	if err := s.client.HSet(ctx, key, step, value).Err(); err != nil {
		return fmt.Errorf("checkpoint put %s/%s: %w", invocationID, step, err)
	}
	// Refresh retention on every write so a long-running invocation keeps
	// its earlier checkpoints for the full window after its last step.
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("checkpoint expire %s: %w", invocationID, err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, invocationID string) error {
	if err := s.client.Del(ctx, invocationKey(invocationID)).Err(); err != nil {
		return fmt.Errorf("checkpoint clear %s: %w", invocationID, err)
	}
	return nil
}
