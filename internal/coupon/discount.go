package coupon

import "cake_heaven_back_end/internal/models"

// ComputeDiscount derives the discount a coupon grants on a subtotal.
// Percentage discounts are capped by MaximumDiscount; fixed discounts never exceed the subtotal.
func ComputeDiscount(c models.Coupon, subtotal float64) float64 {
	if subtotal <= 0 {
		return 0
	}

	var discount float64
	switch c.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal * (c.DiscountAmount / 100)
	case models.DiscountFixed:
		discount = c.DiscountAmount
	}

	if c.MaximumDiscount != nil && discount > *c.MaximumDiscount {
		discount = *c.MaximumDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}
