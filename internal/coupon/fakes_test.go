package coupon_test

import (
	"context"
	"sync"
	"time"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]models.Coupon
	usages  []models.CouponUsage
}

func newFakeRepo(coupons ...models.Coupon) *fakeRepo {
	r := &fakeRepo{coupons: make(map[uuid.UUID]models.Coupon)}
	for _, c := range coupons {
		r.coupons[c.ID] = c
	}
	return r
}

func (r *fakeRepo) GetByCode(_ context.Context, code string) (models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return models.Coupon{}, coupon.ErrNotFound
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[id]
	if !ok {
		return models.Coupon{}, coupon.ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) List(_ context.Context) ([]models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, c models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.coupons {
		if existing.Code == c.Code {
			return coupon.ErrCodeExists
		}
	}
	r.coupons[c.ID] = c
	return nil
}

func (r *fakeRepo) Update(_ context.Context, c models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[c.ID]; !ok {
		return coupon.ErrNotFound
	}
	r.coupons[c.ID] = c
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[id]; !ok {
		return coupon.ErrNotFound
	}
	delete(r.coupons, id)
	return nil
}

func (r *fakeRepo) CountUserUsage(_ context.Context, couponID uuid.UUID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.usages {
		if u.CouponID == couponID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) RecordUsage(_ context.Context, usage models.CouponUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[usage.CouponID]
	if !ok {
		return coupon.ErrNotFound
	}
	c.UsedCount++
	r.coupons[c.ID] = c
	r.usages = append(r.usages, usage)
	return nil
}

type fakeCache struct {
	coupons     []models.Coupon
	hit         bool
	sets        int
	invalidates int
}

func (c *fakeCache) Get(context.Context) ([]models.Coupon, bool, error) {
	return c.coupons, c.hit, nil
}

func (c *fakeCache) Set(_ context.Context, coupons []models.Coupon) error {
	c.coupons = coupons
	c.hit = true
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.coupons = nil
	c.hit = false
	c.invalidates++
	return nil
}

type fakeCatalog map[string]string

func (f fakeCatalog) Categories(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if cat, ok := f[id]; ok {
			out[id] = cat
		}
	}
	return out, nil
}

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func activeCoupon(code string, typ models.DiscountType, amount float64) models.Coupon {
	return models.Coupon{
		ID:             uuid.New(),
		Code:           code,
		DiscountType:   typ,
		DiscountAmount: amount,
		ValidFrom:      fixedNow.Add(-24 * time.Hour),
		ValidUntil:     fixedNow.Add(24 * time.Hour),
		IsActive:       true,
		CreatedAt:      fixedNow.Add(-48 * time.Hour),
		UpdatedAt:      fixedNow.Add(-48 * time.Hour),
	}
}

func ptr[T any](v T) *T {
	return &v
}
