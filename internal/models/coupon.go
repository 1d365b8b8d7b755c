package models

import (
	"time"

	"github.com/google/uuid"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type CouponStatus string

const (
	CouponInactive CouponStatus = "inactive"
	CouponUpcoming CouponStatus = "upcoming"
	CouponExpired  CouponStatus = "expired"
	CouponActive   CouponStatus = "active"
)

type Coupon struct {
	ID                   uuid.UUID    `json:"id"`
	Code                 string       `json:"code"`
	Description          string       `json:"description,omitempty"`
	DiscountType         DiscountType `json:"discountType"`
	DiscountAmount       float64      `json:"discountAmount"`
	MinimumPurchase      float64      `json:"minimumPurchase"`
	MaximumDiscount      *float64     `json:"maximumDiscount,omitempty"`
	ValidFrom            time.Time    `json:"validFrom"`
	ValidUntil           time.Time    `json:"validUntil"`
	IsActive             bool         `json:"isActive"`
	UsageLimit           *int         `json:"usageLimit,omitempty"`
	PerUserLimit         *int         `json:"perUserLimit,omitempty"`
	UsedCount            int          `json:"usedCount"`
	ApplicableProducts   []string     `json:"applicableProducts,omitempty"`
	ApplicableCategories []string     `json:"applicableCategories,omitempty"`
	CreatedBy            string       `json:"createdBy,omitempty"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

// Status derives the display status of the coupon at the given instant.
func (c Coupon) Status(now time.Time) CouponStatus {
	switch {
	case !c.IsActive:
		return CouponInactive
	case now.Before(c.ValidFrom):
		return CouponUpcoming
	case now.After(c.ValidUntil):
		return CouponExpired
	default:
		return CouponActive
	}
}

// Restricted reports whether the coupon only applies to some products or categories.
func (c Coupon) Restricted() bool {
	return len(c.ApplicableProducts) > 0 || len(c.ApplicableCategories) > 0
}

type CouponUsage struct {
	ID       uuid.UUID `json:"id"`
	CouponID uuid.UUID `json:"couponId"`
	UserID   string    `json:"userId"`
	OrderRef string    `json:"orderRef"`
	UsedAt   time.Time `json:"usedAt"`
}

// ApplyLine is one cart line as sent to the coupon validator.
type ApplyLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type ApplyRequest struct {
	Code      string      `json:"code" binding:"required"`
	CartTotal float64     `json:"cartTotal"`
	Products  []ApplyLine `json:"products"`
}

// AppliedCoupon is the validator's answer to an accepted code.
type AppliedCoupon struct {
	Coupon   Coupon  `json:"coupon"`
	Discount float64 `json:"discount"`
}
