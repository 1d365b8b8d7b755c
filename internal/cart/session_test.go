package cart_test

import (
	"strings"
	"testing"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem(t *testing.T) {
	t.Run("new line gets a fresh id", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)

		id, ok := s.AddItem(product(300), 2, nil)
		require.True(t, ok)
		require.Len(t, s.Cart.Items, 1)
		assert.NotEqual(t, uuid.Nil, id)
		assert.Equal(t, id, s.Cart.Items[0].ID)
		assert.Equal(t, 2, s.Cart.Items[0].Quantity)
	})

	t.Run("quantity above ceiling is clamped", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)

		s.AddItem(product(300), 25, nil)
		assert.Equal(t, models.MaxQuantity, s.Cart.Items[0].Quantity)
	})

	t.Run("quantity is clamped to the stock on hand", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		p := product(300)
		p.Stock = 4

		id, _ := s.AddItem(p, 3, nil)
		s.AddItem(p, 3, nil)
		assert.Equal(t, 4, s.Cart.Items[0].Quantity)

		assert.False(t, s.UpdateQuantity(id, 6))
		assert.True(t, s.UpdateQuantity(id, 2))
		assert.Equal(t, 2, s.Cart.Items[0].Quantity)
	})

	t.Run("unknown stock does not lower the ceiling", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		p := product(300)
		p.Stock = 0

		s.AddItem(p, 12, nil)
		assert.Equal(t, models.MaxQuantity, s.Cart.Items[0].Quantity)
	})

	t.Run("quantity below one is ignored", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)

		_, ok := s.AddItem(product(300), 0, nil)
		assert.False(t, ok)
		assert.Empty(t, s.Cart.Items)
	})

	t.Run("same product and customization merges", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		p := product(300)
		custom := &models.Customizations{Message: "Happy birthday"}

		first, _ := s.AddItem(p, 4, custom)
		second, _ := s.AddItem(p, 9, custom)

		require.Len(t, s.Cart.Items, 1)
		assert.Equal(t, first, second)
		assert.Equal(t, models.MaxQuantity, s.Cart.Items[0].Quantity)
	})

	t.Run("different customization makes a new line", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		p := product(300)

		s.AddItem(p, 1, &models.Customizations{Message: "Happy birthday"})
		s.AddItem(p, 1, &models.Customizations{Message: "Congratulations"})

		assert.Len(t, s.Cart.Items, 2)
	})

	t.Run("long customization is truncated", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)

		s.AddItem(product(300), 1, &models.Customizations{Message: strings.Repeat("a", 400)})
		assert.Len(t, s.Cart.Items[0].Customizations.Message, models.MaxCustomizationLength)
	})
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	s := newSession(cart.InvalidateOnMutation)
	keep, _ := s.AddItem(product(100), 1, nil)
	drop, _ := s.AddItem(product(200), 1, nil)

	assert.True(t, s.RemoveItem(drop))
	once := s.Cart

	assert.False(t, s.RemoveItem(drop))
	assert.Empty(t, cmp.Diff(once, s.Cart))
	require.Len(t, s.Cart.Items, 1)
	assert.Equal(t, keep, s.Cart.Items[0].ID)
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		want     int
		changed  bool
	}{
		{name: "within range: ok", quantity: 7, want: 7, changed: true},
		{name: "lower bound: ok", quantity: 1, want: 1, changed: true},
		{name: "upper bound: ok", quantity: 10, want: 10, changed: true},
		{name: "zero: no-op", quantity: 0, want: 3},
		{name: "negative: no-op", quantity: -2, want: 3},
		{name: "eleven: no-op", quantity: 11, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(cart.InvalidateOnMutation)
			id, _ := s.AddItem(product(150), 3, nil)

			assert.Equal(t, tt.changed, s.UpdateQuantity(id, tt.quantity))
			assert.Equal(t, tt.want, s.Cart.Items[0].Quantity)
		})
	}

	t.Run("unknown id: no-op", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		s.AddItem(product(150), 3, nil)

		assert.False(t, s.UpdateQuantity(uuid.New(), 5))
		assert.Equal(t, 3, s.Cart.Items[0].Quantity)
	})
}

func TestUpdateCustomization(t *testing.T) {
	s := newSession(cart.InvalidateOnMutation)
	id, _ := s.AddItem(product(150), 1, &models.Customizations{Message: "Hi", SpecialInstructions: "No nuts"})
	s.Coupon = cart.CouponState{Phase: cart.PhaseApplied, Coupon: ptr(percentCoupon(10, nil, 0)), Discount: 15}
	before := cart.Subtotal(s.Cart)

	ok := s.UpdateCustomization(id, models.CustomizationPatch{Message: ptr("Happy anniversary")})
	require.True(t, ok)

	assert.Equal(t, models.Customizations{Message: "Happy anniversary", SpecialInstructions: "No nuts"}, s.Cart.Items[0].Customizations)
	assert.Equal(t, before, cart.Subtotal(s.Cart))
	assert.Equal(t, cart.PhaseApplied, s.Coupon.Phase)

	assert.False(t, s.UpdateCustomization(uuid.New(), models.CustomizationPatch{Message: ptr("x")}))
}

func TestClearDropsCoupon(t *testing.T) {
	states := []cart.CouponState{
		{Phase: cart.PhaseNone},
		{Phase: cart.PhaseApplied, Coupon: ptr(percentCoupon(10, nil, 0)), Discount: 30, Ticket: 4},
		{Phase: cart.PhaseValidating, PendingCode: "CAKE10", Ticket: 2},
		{Phase: cart.PhaseRejected, Error: "coupon expired", Ticket: 1},
	}

	for _, policy := range []cart.InvalidationPolicy{cart.InvalidateOnMutation, cart.InvalidateOnClear} {
		for _, state := range states {
			t.Run(string(policy)+"/"+string(state.Phase), func(t *testing.T) {
				s := newSession(policy)
				s.AddItem(product(500), 2, nil)
				s.Coupon = state

				s.Clear()

				assert.Empty(t, s.Cart.Items)
				assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
				assert.Nil(t, s.Coupon.Coupon)
				assert.Zero(t, s.Coupon.EffectiveDiscount())
			})
		}
	}
}

func TestInvalidationPolicy(t *testing.T) {
	applied := func(minimum float64) cart.CouponState {
		return cart.CouponState{Phase: cart.PhaseApplied, Coupon: ptr(percentCoupon(10, nil, minimum)), Discount: 50}
	}

	t.Run("any mutation: removing an unrelated line drops the coupon", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		s.AddItem(product(500), 2, nil)
		other, _ := s.AddItem(product(50), 1, nil)
		s.Coupon = applied(0)

		s.RemoveItem(other)
		assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
	})

	t.Run("any mutation: adding drops the coupon", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		s.AddItem(product(500), 2, nil)
		s.Coupon = applied(0)

		s.AddItem(product(50), 1, nil)
		assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
	})

	t.Run("clear only: adding keeps the coupon", func(t *testing.T) {
		s := newSession(cart.InvalidateOnClear)
		s.AddItem(product(500), 2, nil)
		s.Coupon = applied(0)

		s.AddItem(product(50), 1, nil)
		assert.Equal(t, cart.PhaseApplied, s.Coupon.Phase)
		assert.Equal(t, 50.0, s.Coupon.EffectiveDiscount())
	})

	t.Run("clear only: dropping below minimum purchase drops the coupon", func(t *testing.T) {
		s := newSession(cart.InvalidateOnClear)
		id, _ := s.AddItem(product(500), 2, nil)
		s.Coupon = applied(800)

		s.UpdateQuantity(id, 1)
		assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
	})
}

func TestMutationClearsRefusal(t *testing.T) {
	for _, policy := range []cart.InvalidationPolicy{cart.InvalidateOnMutation, cart.InvalidateOnClear} {
		t.Run(string(policy), func(t *testing.T) {
			s := newSession(policy)
			id, _ := s.AddItem(product(500), 1, nil)
			s.Coupon = cart.CouponState{Phase: cart.PhaseRejected, Error: "coupon expired", Ticket: 3}

			s.UpdateQuantity(id, 2)

			assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
			assert.Empty(t, s.Coupon.Error)
			assert.Equal(t, uint64(3), s.Coupon.Ticket)
		})
	}

	t.Run("transport failure notice goes too", func(t *testing.T) {
		s := newSession(cart.InvalidateOnClear)
		s.AddItem(product(500), 1, nil)
		s.Coupon = cart.CouponState{Phase: cart.PhaseNone, Error: cart.TransportFailureMessage}

		s.AddItem(product(50), 1, nil)
		assert.Empty(t, s.Coupon.Error)
	})
}

func TestCompleteCheckout(t *testing.T) {
	t.Run("only paid lines leave the cart", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		s.AddItem(product(500), 2, nil)
		paid := append([]models.CartItem(nil), s.Cart.Items...)
		late, _ := s.AddItem(product(800), 1, nil)
		s.Coupon = cart.CouponState{Phase: cart.PhaseApplied, Coupon: ptr(percentCoupon(10, nil, 0)), Discount: 80, Ticket: 2}

		s.CompleteCheckout(paid)

		require.Len(t, s.Cart.Items, 1)
		assert.Equal(t, late, s.Cart.Items[0].ID)
		assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
	})

	t.Run("quantity added after payment started is kept", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		p := product(500)
		id, _ := s.AddItem(p, 2, nil)
		paid := append([]models.CartItem(nil), s.Cart.Items...)
		s.AddItem(p, 3, nil)

		s.CompleteCheckout(paid)

		require.Len(t, s.Cart.Items, 1)
		assert.Equal(t, id, s.Cart.Items[0].ID)
		assert.Equal(t, 3, s.Cart.Items[0].Quantity)
	})

	t.Run("everything paid empties the cart", func(t *testing.T) {
		s := newSession(cart.InvalidateOnMutation)
		s.AddItem(product(500), 2, nil)
		paid := append([]models.CartItem(nil), s.Cart.Items...)

		s.CompleteCheckout(paid)

		assert.Empty(t, s.Cart.Items)
		assert.Equal(t, cart.PhaseNone, s.Coupon.Phase)
	})
}
