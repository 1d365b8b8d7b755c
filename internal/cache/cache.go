package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cake_heaven_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	ProductCacheTTL      = 10 * time.Minute
	ActiveCouponCacheTTL = 5 * time.Minute

	activeCouponsKey = "coupons:active"
)

func productKey(id string) string {
	return "product:" + id
}

// ProductCache stores product snapshots as JSON.
type ProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewProductCache(client redis.Cmdable) *ProductCache {
	return &ProductCache{client: client, ttl: ProductCacheTTL}
}

func (c *ProductCache) GetProduct(ctx context.Context, id string) (models.Product, bool, error) {
	data, ok, err := getJSON(ctx, c.client, productKey(id))
	if err != nil || !ok {
		return models.Product{}, false, err
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Product{}, false, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return p, true, nil
}

func (c *ProductCache) SetProduct(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	return c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

func (c *ProductCache) InvalidateProduct(ctx context.Context, id string) error {
	return c.client.Del(ctx, productKey(id)).Err()
}

// ActiveCoupons caches the list behind the coupon browsing endpoint.
type ActiveCoupons struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewActiveCoupons(client redis.Cmdable) *ActiveCoupons {
	return &ActiveCoupons{client: client, ttl: ActiveCouponCacheTTL}
}

func (c *ActiveCoupons) Get(ctx context.Context) ([]models.Coupon, bool, error) {
	data, ok, err := getJSON(ctx, c.client, activeCouponsKey)
	if err != nil || !ok {
		return nil, false, err
	}

	var coupons []models.Coupon
	if err := json.Unmarshal(data, &coupons); err != nil {
		return nil, false, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return coupons, true, nil
}

func (c *ActiveCoupons) Set(ctx context.Context, coupons []models.Coupon) error {
	data, err := json.Marshal(coupons)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	return c.client.Set(ctx, activeCouponsKey, data, c.ttl).Err()
}

func (c *ActiveCoupons) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, activeCouponsKey).Err()
}
