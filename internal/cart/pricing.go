package cart

import (
	"cake_heaven_back_end/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// PricingRules holds the tax and shipping parameters used to derive totals.
type PricingRules struct {
	TaxRate               float64
	FreeShippingThreshold float64
	ShippingFee           float64
	Currency              currency.Unit
}

func DefaultPricingRules() PricingRules {
	return PricingRules{
		TaxRate:               0.05,
		FreeShippingThreshold: 1000,
		ShippingFee:           100,
		Currency:              currency.INR,
	}
}

type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Shipping  float64 `json:"shipping"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
	Currency  string  `json:"currency"`
}

// Rounded returns a copy with every amount rounded to two decimals for display.
func (t Totals) Rounded() Totals {
	t.Subtotal = round2(t.Subtotal)
	t.Tax = round2(t.Tax)
	t.Shipping = round2(t.Shipping)
	t.Discount = round2(t.Discount)
	t.Total = round2(t.Total)
	return t
}

// MinorUnits converts the total into the smallest currency unit (paise, cents).
func (t Totals) MinorUnits() int64 {
	return decimal.NewFromFloat(t.Total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// EffectiveUnitPrice is the discounted price when one is set, the list price otherwise.
func EffectiveUnitPrice(p models.Product) float64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.Price
}

func LineSubtotal(item models.CartItem) float64 {
	return EffectiveUnitPrice(item.Product) * float64(item.Quantity)
}

func Subtotal(c models.Cart) float64 {
	var subtotal float64
	for _, item := range c.Items {
		subtotal += LineSubtotal(item)
	}
	return subtotal
}

// RecomputeTotals derives the totals with the default rules.
func RecomputeTotals(c models.Cart, state CouponState) Totals {
	return DefaultPricingRules().RecomputeTotals(c, state)
}

func (r PricingRules) RecomputeTotals(c models.Cart, state CouponState) Totals {
	return r.TotalsWithDiscount(c, state.EffectiveDiscount())
}

// TotalsWithDiscount derives the totals for an explicit discount. The total never drops below zero.
func (r PricingRules) TotalsWithDiscount(c models.Cart, discount float64) Totals {
	subtotal := Subtotal(c)
	tax := subtotal * r.TaxRate

	shipping := r.ShippingFee
	if subtotal > r.FreeShippingThreshold {
		shipping = 0
	}

	total := subtotal + tax + shipping - discount
	if total < 0 {
		total = 0
	}

	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}

	return Totals{
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Discount:  discount,
		Total:     total,
		ItemCount: count,
		Currency:  r.Currency.String(),
	}
}
