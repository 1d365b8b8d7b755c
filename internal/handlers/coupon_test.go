package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/handlers"
	"cake_heaven_back_end/internal/middleware"
	"cake_heaven_back_end/internal/models"
	"cake_heaven_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCoupons struct {
	mu      sync.Mutex
	coupons map[uuid.UUID]models.Coupon
}

func (f *fakeCoupons) Apply(_ context.Context, _ string, req models.ApplyRequest) (models.AppliedCoupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.coupons {
		if c.Code == coupon.NormalizeCode(req.Code) {
			if req.CartTotal < c.MinimumPurchase {
				return models.AppliedCoupon{}, &coupon.RejectionError{Reason: coupon.ReasonBelowMinimum, Message: "Minimum purchase not met"}
			}
			return models.AppliedCoupon{Coupon: c, Discount: coupon.ComputeDiscount(c, req.CartTotal)}, nil
		}
	}
	return models.AppliedCoupon{}, &coupon.RejectionError{Reason: coupon.ReasonNotFound, Message: "Invalid coupon code"}
}

func (f *fakeCoupons) List(context.Context) ([]models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Coupon, 0, len(f.coupons))
	for _, c := range f.coupons {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCoupons) Get(_ context.Context, id uuid.UUID) (models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok {
		return models.Coupon{}, coupon.ErrNotFound
	}
	return c, nil
}

func (f *fakeCoupons) Create(_ context.Context, in coupon.CreateInput, createdBy string) (models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := coupon.NormalizeCode(in.Code)
	for _, c := range f.coupons {
		if c.Code == code {
			return models.Coupon{}, coupon.ErrCodeExists
		}
	}
	c := models.Coupon{
		ID: uuid.New(), Code: code, DiscountType: in.DiscountType, DiscountAmount: in.DiscountAmount,
		ValidFrom: time.Now().Add(-time.Minute), ValidUntil: in.ValidUntil, IsActive: true, CreatedBy: createdBy,
	}
	f.coupons[c.ID] = c
	return c, nil
}

func (f *fakeCoupons) Update(_ context.Context, id uuid.UUID, in coupon.UpdateInput) (models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok {
		return models.Coupon{}, coupon.ErrNotFound
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	f.coupons[id] = c
	return c, nil
}

func (f *fakeCoupons) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.coupons[id]; !ok {
		return coupon.ErrNotFound
	}
	delete(f.coupons, id)
	return nil
}

type fakeFlyers struct{}

func (fakeFlyers) Generate(_ context.Context, c models.Coupon) (services.Flyer, error) {
	return services.Flyer{Code: c.Code, Object: "coupons/" + c.Code + ".png", URL: "https://objects.local/" + c.Code}, nil
}

type couponFixture struct {
	cartFixture
	coupons *fakeCoupons
}

func newCouponFixture(role string) *couponFixture {
	svc := &fakeCoupons{coupons: map[uuid.UUID]models.Coupon{}}
	h := handlers.NewCouponHandler(svc, func(ctx context.Context) ([]models.Coupon, error) { return svc.List(ctx) }, fakeFlyers{}, zap.NewNop())

	r := gin.New()
	auth := func(c *gin.Context) {
		c.Set(middleware.KeyUserID, "admin-1")
		c.Set(middleware.KeyRole, role)
		c.Next()
	}
	r.GET("/api/coupons/active", h.Active)
	r.POST("/api/coupons/apply", auth, h.Apply)
	admin := r.Group("/api/admin/coupons", auth, middleware.RequireAdmin)
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.GET("/:id", h.Get)
	admin.PATCH("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
	admin.GET("/:id/flyer", h.Flyer)

	f := &couponFixture{coupons: svc}
	f.router = r
	return f
}

func TestAdminCouponLifecycle(t *testing.T) {
	f := newCouponFixture("admin")

	w := f.do(t, http.MethodPost, "/api/admin/coupons", map[string]any{
		"code":           "cake10",
		"discountType":   "percentage",
		"discountAmount": 10,
		"validUntil":     time.Now().Add(24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Coupon](t, w)
	assert.Equal(t, "CAKE10", created.Code)
	assert.Equal(t, "admin-1", created.CreatedBy)

	w = f.do(t, http.MethodPost, "/api/admin/coupons", map[string]any{
		"code": "CAKE10", "discountType": "percentage", "discountAmount": 5, "validUntil": time.Now().Add(time.Hour),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/coupons/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", decode[map[string]any](t, w)["status"])

	w = f.do(t, http.MethodPatch, "/api/admin/coupons/"+created.ID.String(), map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.Coupon](t, w).IsActive)

	w = f.do(t, http.MethodGet, "/api/admin/coupons/"+created.ID.String()+"/flyer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coupons/CAKE10.png", decode[services.Flyer](t, w).Object)

	w = f.do(t, http.MethodDelete, "/api/admin/coupons/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/coupons/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	f := newCouponFixture("customer")
	w := f.do(t, http.MethodGet, "/api/admin/coupons", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCouponBadID(t *testing.T) {
	f := newCouponFixture("admin")
	w := f.do(t, http.MethodGet, "/api/admin/coupons/xyz", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyEndpoint(t *testing.T) {
	f := newCouponFixture("customer")
	c := models.Coupon{
		ID: uuid.New(), Code: "CAKE10", DiscountType: models.DiscountPercentage, DiscountAmount: 10,
		MinimumPurchase: 500, IsActive: true,
	}
	f.coupons.coupons[c.ID] = c

	w := f.do(t, http.MethodPost, "/api/coupons/apply", models.ApplyRequest{Code: "cake10", CartTotal: 1000})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100.0, decode[models.AppliedCoupon](t, w).Discount)

	w = f.do(t, http.MethodPost, "/api/coupons/apply", models.ApplyRequest{Code: "CAKE10", CartTotal: 100})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "below_minimum", decode[map[string]string](t, w)["reason"])

	w = f.do(t, http.MethodPost, "/api/coupons/apply", models.ApplyRequest{Code: "NOPE", CartTotal: 100})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid coupon code", decode[map[string]string](t, w)["error"])

	w = f.do(t, http.MethodPost, "/api/coupons/apply", map[string]any{"cartTotal": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActiveCoupons(t *testing.T) {
	f := newCouponFixture("customer")
	w := f.do(t, http.MethodGet, "/api/coupons/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"coupons":[]}`, w.Body.String())
}
