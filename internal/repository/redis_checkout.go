package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cake_heaven_back_end/internal/checkout"

	"github.com/redis/go-redis/v9"
)

// PendingCheckoutTTL is how long a shopper has to complete a payment.
const PendingCheckoutTTL = 24 * time.Hour

func checkoutKey(paymentID string) string {
	return "checkout:" + paymentID
}

type RedisCheckoutStore struct {
	client *redis.Client
}

func NewRedisCheckoutStore(client *redis.Client) *RedisCheckoutStore {
	return &RedisCheckoutStore{client: client}
}

func (s *RedisCheckoutStore) Save(ctx context.Context, p checkout.Pending) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	return s.client.Set(ctx, checkoutKey(p.PaymentID), data, PendingCheckoutTTL).Err()
}

func (s *RedisCheckoutStore) Get(ctx context.Context, paymentID string) (checkout.Pending, error) {
	return decodePending(s.client.Get(ctx, checkoutKey(paymentID)))
}

// Claim uses GETDEL so that two confirmations of one payment cannot both proceed.
func (s *RedisCheckoutStore) Claim(ctx context.Context, paymentID string) (checkout.Pending, error) {
	return decodePending(s.client.GetDel(ctx, checkoutKey(paymentID)))
}

func decodePending(cmd *redis.StringCmd) (checkout.Pending, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return checkout.Pending{}, checkout.ErrNotFound
	}
	if err != nil {
		return checkout.Pending{}, fmt.Errorf("redis %s: %w", cmd.Name(), err)
	}

	var p checkout.Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return checkout.Pending{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return p, nil
}
