package cart

import (
	"time"

	"cake_heaven_back_end/internal/models"

	"github.com/google/uuid"
)

// InvalidationPolicy decides which cart mutations drop an applied coupon.
type InvalidationPolicy string

const (
	// InvalidateOnMutation drops the coupon on any add, remove or quantity change.
	InvalidateOnMutation InvalidationPolicy = "any_mutation"
	// InvalidateOnClear keeps the coupon until the cart is cleared, unless the subtotal
	// falls below the coupon's minimum purchase.
	InvalidateOnClear InvalidationPolicy = "clear_only"
)

func (p InvalidationPolicy) Valid() bool {
	return p == InvalidateOnMutation || p == InvalidateOnClear
}

// Session is the cart of one shopper together with its coupon state.
type Session struct {
	UserID    string      `json:"userId"`
	Cart      models.Cart `json:"cart"`
	Coupon    CouponState `json:"coupon"`
	UpdatedAt time.Time   `json:"updatedAt"`

	policy InvalidationPolicy
	now    func() time.Time
}

func NewSession(userID string, policy InvalidationPolicy) *Session {
	s := &Session{UserID: userID}
	s.Bind(policy, time.Now)
	return s
}

// Bind attaches the runtime settings that are not persisted with the session.
func (s *Session) Bind(policy InvalidationPolicy, now func() time.Time) {
	if !policy.Valid() {
		policy = InvalidateOnMutation
	}
	if now == nil {
		now = time.Now
	}
	s.policy = policy
	s.now = now
	if s.Cart.Items == nil {
		s.Cart.Items = []models.CartItem{}
	}
	if s.Coupon.Phase == "" {
		s.Coupon.Phase = PhaseNone
	}
}

func (s *Session) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Session) find(itemID uuid.UUID) int {
	for i := range s.Cart.Items {
		if s.Cart.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// AddItem puts quantity units of product in the cart. A line with the same product and
// customizations is merged into; otherwise a new line is created. Quantities are clamped to
// the line ceiling and a quantity below MinQuantity is ignored.
func (s *Session) AddItem(product models.Product, quantity int, customizations *models.Customizations) (uuid.UUID, bool) {
	if quantity < models.MinQuantity {
		return uuid.Nil, false
	}

	var custom models.Customizations
	if customizations != nil {
		custom = truncateCustomizations(*customizations)
	}
	ceiling := quantityCeiling(product)

	for i := range s.Cart.Items {
		item := &s.Cart.Items[i]
		if item.Product.ID != product.ID || item.Customizations != custom {
			continue
		}
		item.Quantity = min(item.Quantity+quantity, ceiling)
		item.Product = product
		s.afterMutation()
		return item.ID, true
	}

	item := models.CartItem{
		ID:             uuid.New(),
		Product:        product,
		Quantity:       min(quantity, ceiling),
		Customizations: custom,
		AddedAt:        s.clock(),
	}
	s.Cart.Items = append(s.Cart.Items, item)
	s.afterMutation()
	return item.ID, true
}

// quantityCeiling is MaxQuantity, lowered to the stock on hand when the snapshot carries one.
func quantityCeiling(p models.Product) int {
	if p.Stock > 0 && p.Stock < models.MaxQuantity {
		return p.Stock
	}
	return models.MaxQuantity
}

// RemoveItem deletes a line. Unknown ids are ignored.
func (s *Session) RemoveItem(itemID uuid.UUID) bool {
	i := s.find(itemID)
	if i < 0 {
		return false
	}
	s.Cart.Items = append(s.Cart.Items[:i], s.Cart.Items[i+1:]...)
	s.afterMutation()
	return true
}

// UpdateQuantity overwrites a line's quantity. Out of range quantities and unknown ids are ignored.
func (s *Session) UpdateQuantity(itemID uuid.UUID, quantity int) bool {
	if quantity < models.MinQuantity || quantity > models.MaxQuantity {
		return false
	}
	i := s.find(itemID)
	if i < 0 || s.Cart.Items[i].Quantity == quantity || quantity > quantityCeiling(s.Cart.Items[i].Product) {
		return false
	}
	s.Cart.Items[i].Quantity = quantity
	s.afterMutation()
	return true
}

// UpdateCustomization merges the patch into a line's customizations. Prices are unaffected,
// so the applied coupon is kept.
func (s *Session) UpdateCustomization(itemID uuid.UUID, patch models.CustomizationPatch) bool {
	i := s.find(itemID)
	if i < 0 {
		return false
	}
	custom := s.Cart.Items[i].Customizations
	if patch.Message != nil {
		custom.Message = *patch.Message
	}
	if patch.SpecialInstructions != nil {
		custom.SpecialInstructions = *patch.SpecialInstructions
	}
	s.Cart.Items[i].Customizations = truncateCustomizations(custom)
	s.touch()
	return true
}

// Clear empties the cart and drops any coupon, including one being validated.
func (s *Session) Clear() {
	s.Cart.Items = []models.CartItem{}
	s.resetCoupon()
	s.touch()
}

// CompleteCheckout takes the paid lines out of the cart and drops the coupon. Lines added or
// grown after the checkout started keep their unpaid quantity.
func (s *Session) CompleteCheckout(paid []models.CartItem) {
	for _, p := range paid {
		i := s.find(p.ID)
		if i < 0 {
			continue
		}
		if left := s.Cart.Items[i].Quantity - p.Quantity; left > 0 {
			s.Cart.Items[i].Quantity = left
			continue
		}
		s.Cart.Items = append(s.Cart.Items[:i], s.Cart.Items[i+1:]...)
	}
	if len(s.Cart.Items) == 0 {
		s.Clear()
		return
	}
	s.resetCoupon()
	s.touch()
}

func (s *Session) Totals(rules PricingRules) Totals {
	return rules.RecomputeTotals(s.Cart, s.Coupon)
}

func (s *Session) afterMutation() {
	s.touch()

	switch s.Coupon.Phase {
	case PhaseRejected:
		// the refusal message only describes the cart it was given for
		s.resetCoupon()
		return
	case PhaseNone:
		s.Coupon.Error = ""
		return
	case PhaseValidating:
		// the pending result was priced against the previous cart; resetting retires its ticket
		s.resetCoupon()
		return
	}

	if s.policy == InvalidateOnClear {
		if s.Coupon.Coupon != nil && Subtotal(s.Cart) < s.Coupon.Coupon.MinimumPurchase {
			s.resetCoupon()
		}
		return
	}
	s.resetCoupon()
}

func (s *Session) touch() {
	s.UpdatedAt = s.clock()
}

func truncateCustomizations(c models.Customizations) models.Customizations {
	c.Message = truncate(c.Message, models.MaxCustomizationLength)
	c.SpecialInstructions = truncate(c.SpecialInstructions, models.MaxCustomizationLength)
	return c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
