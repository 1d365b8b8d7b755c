package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter counts hits per key in fixed windows.
type RateCounter struct {
	client redis.Cmdable
}

func NewRateCounter(client redis.Cmdable) *RateCounter {
	return &RateCounter{client: client}
}

// Hit increments the counter for key and returns the new value. The window starts with the
// first hit.
func (r *RateCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate counter %s: %w", key, err)
	}
	return incr.Val(), ttl.Val(), nil
}

func getJSON(ctx context.Context, client redis.Cmdable, key string) ([]byte, bool, error) {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}
