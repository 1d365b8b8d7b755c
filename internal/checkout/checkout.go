package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"
	"cake_heaven_back_end/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("checkout not found")
	ErrPaymentIncomplete = errors.New("payment has not succeeded")
)

// CouponRejectedError is returned when the applied coupon no longer holds for the cart.
// The coupon has been removed from the cart by then.
type CouponRejectedError struct {
	Rejection *coupon.RejectionError
}

func (e *CouponRejectedError) Error() string {
	return "applied coupon is no longer valid: " + e.Rejection.Message
}

func (e *CouponRejectedError) Unwrap() error {
	return e.Rejection
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (payment.Intent, error)
	GetIntent(ctx context.Context, id string) (payment.Intent, error)
}

// PendingStore holds checkouts between payment creation and confirmation. Claim removes and
// returns the checkout in one step; only one caller gets it, later ones get ErrNotFound.
type PendingStore interface {
	Save(ctx context.Context, p Pending) error
	Get(ctx context.Context, paymentID string) (Pending, error)
	Claim(ctx context.Context, paymentID string) (Pending, error)
}

type Redeemer interface {
	Redeem(ctx context.Context, couponID uuid.UUID, userID, orderRef string) error
}

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to string, order Pending) error
}

// Pending is a checkout waiting for its payment.
type Pending struct {
	PaymentID  string            `json:"paymentId"`
	UserID     string            `json:"userId"`
	Email      string            `json:"email"`
	Items      []models.CartItem `json:"items"`
	CouponID   *uuid.UUID        `json:"couponId,omitempty"`
	CouponCode string            `json:"couponCode,omitempty"`
	Totals     cart.Totals       `json:"totals"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type Started struct {
	PaymentID    string      `json:"paymentId"`
	ClientSecret string      `json:"clientSecret"`
	Amount       int64       `json:"amount"`
	Totals       cart.Totals `json:"totals"`
}

type Service struct {
	engine    *cart.Engine
	validator cart.Validator
	payments  PaymentGateway
	pending   PendingStore
	redeemer  Redeemer
	mailer    Mailer
	log       *zap.Logger
	now       func() time.Time
}

func NewService(engine *cart.Engine, validator cart.Validator, payments PaymentGateway, pending PendingStore,
	redeemer Redeemer, mailer Mailer, log *zap.Logger) *Service {
	return &Service{
		engine:    engine,
		validator: validator,
		payments:  payments,
		pending:   pending,
		redeemer:  redeemer,
		mailer:    mailer,
		log:       log,
		now:       time.Now,
	}
}

// Start prices the cart, re-checking any applied coupon with the validator, and opens a payment
// for the total.
func (s *Service) Start(ctx context.Context, userID, email string) (Started, error) {
	view, err := s.engine.Get(ctx, userID)
	if err != nil {
		return Started{}, err
	}
	sess := view.Session
	if len(sess.Cart.Items) == 0 {
		return Started{}, cart.ErrEmptyCart
	}
	if sess.Coupon.Phase == cart.PhaseValidating {
		return Started{}, cart.ErrApplyInFlight
	}

	rules := s.engine.Rules()
	var (
		discount float64
		applied  *models.Coupon
	)
	if sess.Coupon.Phase == cart.PhaseApplied && sess.Coupon.Coupon != nil {
		code := sess.Coupon.Coupon.Code
		result, err := s.validator.Apply(ctx, userID, sess.ApplyRequest(code))
		if rej, ok := coupon.AsRejection(err); ok {
			if _, rerr := s.engine.RemoveCoupon(ctx, userID); rerr != nil {
				s.log.Warn("⚠️ could not drop rejected coupon", zap.String("user_id", userID), zap.Error(rerr))
			}
			return Started{}, &CouponRejectedError{Rejection: rej}
		}
		if err != nil {
			return Started{}, fmt.Errorf("validator.Apply: %w", err)
		}
		discount = result.Discount
		applied = &result.Coupon
	}

	totals := rules.TotalsWithDiscount(sess.Cart, discount).Rounded()
	amount := totals.MinorUnits()

	metadata := map[string]string{"user_id": userID, "email": email}
	if applied != nil {
		metadata["coupon_code"] = applied.Code
	}

	intent, err := s.payments.CreateIntent(ctx, amount, totals.Currency, metadata)
	if err != nil {
		return Started{}, fmt.Errorf("payments.CreateIntent: %w", err)
	}

	p := Pending{
		PaymentID: intent.ID,
		UserID:    userID,
		Email:     email,
		Items:     sess.Cart.Items,
		Totals:    totals,
		CreatedAt: s.now(),
	}
	if applied != nil {
		id := applied.ID
		p.CouponID = &id
		p.CouponCode = applied.Code
	}
	if err := s.pending.Save(ctx, p); err != nil {
		return Started{}, fmt.Errorf("pending.Save: %w", err)
	}

	s.log.Info("💳 checkout started", zap.String("user_id", userID), zap.String("payment_id", intent.ID),
		zap.Int64("amount", amount), zap.String("coupon", p.CouponCode))

	return Started{
		PaymentID:    intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Totals:       totals,
	}, nil
}

// Confirm finishes a paid checkout: the coupon is redeemed, the paid lines leave the cart and
// the shopper is emailed. Redemption, cart and email failures are logged; the order stands.
func (s *Service) Confirm(ctx context.Context, userID, paymentID string) (Pending, error) {
	p, err := s.pending.Get(ctx, paymentID)
	if err != nil {
		return Pending{}, err
	}
	if p.UserID != userID {
		return Pending{}, ErrNotFound
	}

	intent, err := s.payments.GetIntent(ctx, paymentID)
	if err != nil {
		return Pending{}, fmt.Errorf("payments.GetIntent: %w", err)
	}
	if !intent.Succeeded() {
		return Pending{}, ErrPaymentIncomplete
	}

	// a concurrent confirm of the same payment loses here
	p, err = s.pending.Claim(ctx, paymentID)
	if err != nil {
		return Pending{}, err
	}

	if p.CouponID != nil && s.redeemer != nil {
		if err := s.redeemer.Redeem(ctx, *p.CouponID, userID, paymentID); err != nil {
			s.log.Error("❌ coupon redemption failed", zap.String("payment_id", paymentID),
				zap.String("coupon", p.CouponCode), zap.Error(err))
		}
	}

	if _, _, err := s.engine.Mutate(ctx, userID, func(sess *cart.Session) bool {
		sess.CompleteCheckout(p.Items)
		return true
	}); err != nil {
		s.log.Error("❌ paid lines not removed from cart", zap.String("payment_id", paymentID), zap.Error(err))
	}

	if s.mailer != nil && p.Email != "" {
		if err := s.mailer.SendOrderConfirmation(ctx, p.Email, p); err != nil {
			s.log.Warn("⚠️ confirmation email failed", zap.String("payment_id", paymentID), zap.Error(err))
		}
	}

	s.log.Info("✅ checkout confirmed", zap.String("user_id", userID), zap.String("payment_id", paymentID))
	return p, nil
}
