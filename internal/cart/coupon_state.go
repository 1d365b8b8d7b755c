package cart

import (
	"time"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"
)

type CouponPhase string

const (
	PhaseNone       CouponPhase = "none"
	PhaseValidating CouponPhase = "validating"
	PhaseApplied    CouponPhase = "applied"
	PhaseRejected   CouponPhase = "rejected"
)

// ValidationTimeout after which a validating state is considered abandoned.
const ValidationTimeout = 30 * time.Second

// TransportFailureMessage is shown when the validator could not be reached.
const TransportFailureMessage = "failed to apply coupon, try again"

// CouponState tracks the coupon applied to a cart. Discount is the validator's figure
// and is never recomputed locally.
type CouponState struct {
	Phase       CouponPhase           `json:"phase"`
	Coupon      *models.Coupon        `json:"coupon,omitempty"`
	Discount    float64               `json:"discount"`
	Error       string                `json:"error,omitempty"`
	PendingCode string                `json:"pendingCode,omitempty"`
	Ticket      uint64                `json:"ticket"`
	StartedAt   time.Time             `json:"startedAt,omitzero"`
	Previous    *models.AppliedCoupon `json:"previous,omitempty"`
}

// EffectiveDiscount is the discount pricing should use right now.
func (c CouponState) EffectiveDiscount() float64 {
	if c.Phase == PhaseApplied {
		return c.Discount
	}
	return 0
}

// Ticket identifies one apply attempt; a result is only committed for the current ticket.
type Ticket struct {
	Seq  uint64
	Code string
}

type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeRejected         Outcome = "rejected"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeStale            Outcome = "stale"
)

// BeginApply moves the coupon state to validating. An applied coupon is set aside so two
// coupons never stack; it comes back only if the validator cannot be reached.
func (s *Session) BeginApply(code string) (Ticket, error) {
	code = coupon.NormalizeCode(code)
	if code == "" {
		return Ticket{}, ErrEmptyCode
	}
	if len(s.Cart.Items) == 0 {
		return Ticket{}, ErrEmptyCart
	}

	now := s.clock()
	if s.Coupon.Phase == PhaseValidating && now.Sub(s.Coupon.StartedAt) < ValidationTimeout {
		return Ticket{}, ErrApplyInFlight
	}

	previous := s.Coupon.Previous
	if s.Coupon.Phase == PhaseApplied && s.Coupon.Coupon != nil {
		previous = &models.AppliedCoupon{Coupon: *s.Coupon.Coupon, Discount: s.Coupon.Discount}
	}
	if s.Coupon.Phase != PhaseValidating && s.Coupon.Phase != PhaseApplied {
		previous = nil
	}

	seq := s.Coupon.Ticket + 1
	s.Coupon = CouponState{
		Phase:       PhaseValidating,
		PendingCode: code,
		Ticket:      seq,
		StartedAt:   now,
		Previous:    previous,
	}
	s.touch()
	return Ticket{Seq: seq, Code: code}, nil
}

// ApplyRequest describes the cart to the validator.
func (s *Session) ApplyRequest(code string) models.ApplyRequest {
	lines := make([]models.ApplyLine, 0, len(s.Cart.Items))
	for _, item := range s.Cart.Items {
		lines = append(lines, models.ApplyLine{Product: item.Product.ID, Quantity: item.Quantity})
	}
	return models.ApplyRequest{
		Code:      code,
		CartTotal: Subtotal(s.Cart),
		Products:  lines,
	}
}

// ResolveApply commits a validator result. Results for a ticket that is no longer current,
// because the cart was cleared or another apply started, are discarded.
func (s *Session) ResolveApply(t Ticket, result models.AppliedCoupon, err error) Outcome {
	if s.Coupon.Phase != PhaseValidating || s.Coupon.Ticket != t.Seq {
		return OutcomeStale
	}

	seq := s.Coupon.Ticket
	previous := s.Coupon.Previous
	defer s.touch()

	if err == nil {
		c := result.Coupon
		s.Coupon = CouponState{Phase: PhaseApplied, Coupon: &c, Discount: result.Discount, Ticket: seq}
		return OutcomeApplied
	}

	if rej, ok := coupon.AsRejection(err); ok {
		s.Coupon = CouponState{Phase: PhaseRejected, Error: rej.Message, Ticket: seq}
		return OutcomeRejected
	}

	if previous != nil {
		c := previous.Coupon
		s.Coupon = CouponState{Phase: PhaseApplied, Coupon: &c, Discount: previous.Discount, Ticket: seq}
	} else {
		s.Coupon = CouponState{Phase: PhaseNone, Ticket: seq}
	}
	s.Coupon.Error = TransportFailureMessage
	return OutcomeTransportFailure
}

// RemoveCoupon drops the applied coupon, or abandons one being validated.
func (s *Session) RemoveCoupon() bool {
	if s.Coupon.Phase == PhaseNone && s.Coupon.Error == "" {
		return false
	}
	s.resetCoupon()
	s.touch()
	return true
}

func (s *Session) resetCoupon() {
	s.Coupon = CouponState{Phase: PhaseNone, Ticket: s.Coupon.Ticket}
}
