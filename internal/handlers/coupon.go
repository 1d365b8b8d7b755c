package handlers

import (
	"context"
	"net/http"
	"time"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/middleware"
	"cake_heaven_back_end/internal/models"
	"cake_heaven_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CouponService interface {
	Apply(ctx context.Context, userID string, req models.ApplyRequest) (models.AppliedCoupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (models.Coupon, error)
	Create(ctx context.Context, in coupon.CreateInput, createdBy string) (models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, in coupon.UpdateInput) (models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActiveSource lists the coupons shown to shoppers. It is the local service or the remote
// coupon API, depending on where coupons are validated.
type ActiveSource func(ctx context.Context) ([]models.Coupon, error)

type FlyerGenerator interface {
	Generate(ctx context.Context, c models.Coupon) (services.Flyer, error)
}

type CouponHandler struct {
	coupons CouponService
	active  ActiveSource
	flyers  FlyerGenerator
	log     *zap.Logger
}

func NewCouponHandler(coupons CouponService, active ActiveSource, flyers FlyerGenerator, log *zap.Logger) *CouponHandler {
	return &CouponHandler{coupons: coupons, active: active, flyers: flyers, log: log}
}

func couponID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon id"})
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/coupons/apply
func (h *CouponHandler) Apply(c *gin.Context) {
	var req models.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	applied, err := h.coupons.Apply(c.Request.Context(), c.GetString(middleware.KeyUserID), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, applied)
}

// GET /api/coupons/active
func (h *CouponHandler) Active(c *gin.Context) {
	coupons, err := h.active(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

var timeNow = time.Now

type adminCoupon struct {
	models.Coupon
	Status models.CouponStatus `json:"status"`
}

func withStatus(list []models.Coupon) []adminCoupon {
	out := make([]adminCoupon, 0, len(list))
	for _, cp := range list {
		out = append(out, adminCoupon{Coupon: cp, Status: cp.Status(timeNow())})
	}
	return out
}

// GET /api/admin/coupons
func (h *CouponHandler) List(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": withStatus(coupons), "total": len(coupons)})
}

// GET /api/admin/coupons/:id
func (h *CouponHandler) Get(c *gin.Context) {
	id, ok := couponID(c)
	if !ok {
		return
	}
	cp, err := h.coupons.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, withStatus([]models.Coupon{cp})[0])
}

// POST /api/admin/coupons
func (h *CouponHandler) Create(c *gin.Context) {
	var in coupon.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	cp, err := h.coupons.Create(c.Request.Context(), in, c.GetString(middleware.KeyUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

// PATCH /api/admin/coupons/:id
func (h *CouponHandler) Update(c *gin.Context) {
	id, ok := couponID(c)
	if !ok {
		return
	}
	var in coupon.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	cp, err := h.coupons.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// DELETE /api/admin/coupons/:id
func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := couponID(c)
	if !ok {
		return
	}
	if err := h.coupons.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coupon deleted"})
}

// GET /api/admin/coupons/:id/flyer
func (h *CouponHandler) Flyer(c *gin.Context) {
	id, ok := couponID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cp, err := h.coupons.Get(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	flyer, err := h.flyers.Generate(ctx, cp)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, flyer)
}
