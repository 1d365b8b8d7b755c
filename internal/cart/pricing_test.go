package cart_test

import (
	"testing"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestEffectiveUnitPrice(t *testing.T) {
	tests := []struct {
		name    string
		product models.Product
		want    float64
	}{
		{name: "list price only", product: product(500), want: 500},
		{name: "discount price wins", product: discounted(500, 420), want: 420},
		{name: "zero discount price falls back to list price", product: discounted(500, 0), want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cart.EffectiveUnitPrice(tt.product))
		})
	}
}

func TestSubtotalIsSumOfLines(t *testing.T) {
	s := newSession(cart.InvalidateOnMutation)

	var want float64
	for range gofakeit.IntRange(1, 8) {
		p := randomProduct()
		q := gofakeit.IntRange(1, 10)
		_, ok := s.AddItem(p, q, nil)
		require.True(t, ok)
		want += cart.EffectiveUnitPrice(p) * float64(q)
	}

	assert.InDelta(t, want, cart.Subtotal(s.Cart), tolerance)
}

func TestTaxAndShipping(t *testing.T) {
	for range 50 {
		s := newSession(cart.InvalidateOnMutation)
		s.AddItem(randomProduct(), gofakeit.IntRange(1, 10), nil)

		totals := cart.RecomputeTotals(s.Cart, s.Coupon)
		assert.InDelta(t, 0.05*totals.Subtotal, totals.Tax, tolerance)
		if totals.Subtotal > 1000 {
			assert.Zero(t, totals.Shipping)
		} else {
			assert.Equal(t, 100.0, totals.Shipping)
		}
	}
}

func TestRecomputeTotalsScenarios(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		quantity int
		discount float64
		want     cart.Totals
	}{
		{
			name:     "threshold is exclusive",
			price:    500,
			quantity: 2,
			want:     cart.Totals{Subtotal: 1000, Tax: 50, Shipping: 100, Total: 1150, ItemCount: 2, Currency: "INR"},
		},
		{
			name:     "free shipping above threshold",
			price:    400,
			quantity: 3,
			want:     cart.Totals{Subtotal: 1200, Tax: 60, Shipping: 0, Total: 1260, ItemCount: 3, Currency: "INR"},
		},
		{
			name:     "capped percentage discount",
			price:    500,
			quantity: 2,
			discount: 50,
			want:     cart.Totals{Subtotal: 1000, Tax: 50, Shipping: 100, Discount: 50, Total: 1100, ItemCount: 2, Currency: "INR"},
		},
		{
			name:     "total never negative",
			price:    10,
			quantity: 1,
			discount: 500,
			want:     cart.Totals{Subtotal: 10, Tax: 0.5, Shipping: 100, Discount: 500, Total: 0, ItemCount: 1, Currency: "INR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(cart.InvalidateOnMutation)
			s.AddItem(product(tt.price), tt.quantity, nil)

			got := cart.DefaultPricingRules().TotalsWithDiscount(s.Cart, tt.discount).Rounded()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotalsIgnoreDiscountUnlessApplied(t *testing.T) {
	state := cart.CouponState{Phase: cart.PhaseRejected, Discount: 40}
	s := newSession(cart.InvalidateOnMutation)
	s.AddItem(product(500), 2, nil)

	assert.Zero(t, cart.RecomputeTotals(s.Cart, state).Discount)

	state.Phase = cart.PhaseApplied
	assert.Equal(t, 40.0, cart.RecomputeTotals(s.Cart, state).Discount)
}

func TestTotalsRoundingAndMinorUnits(t *testing.T) {
	totals := cart.Totals{Subtotal: 333.333, Tax: 16.66665, Shipping: 100, Total: 449.99965}

	rounded := totals.Rounded()
	assert.Equal(t, 333.33, rounded.Subtotal)
	assert.Equal(t, 16.67, rounded.Tax)
	assert.Equal(t, 450.0, rounded.Total)
	assert.Equal(t, int64(45000), totals.MinorUnits())
}
