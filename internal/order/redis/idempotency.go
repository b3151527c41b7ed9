package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// inFlight marks a key whose checkout has not produced an order yet.
const inFlight = "pending"

// Reserve claims an idempotency key. When the key is already taken it
// returns the order id stored under it, or "" while the first checkout is
// still running.
func (r *Redis) Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	redisKey := idempotencyPrefix + key
	ok, err := r.Client.SetNX(ctx, redisKey, inFlight, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := r.Client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		// Expired between SETNX and GET; try once more.
		ok, err = r.Client.SetNX(ctx, redisKey, inFlight, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		return "", ok, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == inFlight {
		return "", false, nil
	}
	return val, false, nil
}

// Complete records the order a reserved key produced.
func (r *Redis) Complete(ctx context.Context, key, orderID string, ttl time.Duration) error {
	if err := r.Client.Set(ctx, idempotencyPrefix+key, orderID, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release frees a key whose checkout failed before creating an order.
func (r *Redis) Release(ctx context.Context, key string) error {
	redisKey := idempotencyPrefix + key
	val, err := r.Client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val != inFlight {
		return nil
	}
	return r.Client.Del(ctx, redisKey).Err()
}
