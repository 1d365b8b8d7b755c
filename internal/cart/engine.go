package cart

import (
	"context"
	"fmt"
	"time"

	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/models"

	"go.uber.org/zap"
)

// Store persists sessions. Update must apply fn atomically with respect to other updates
// of the same user's session.
type Store interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Update(ctx context.Context, userID string, fn func(*Session) error) (*Session, error)
}

// Notifier tells other connections of the same shopper that the cart changed.
type Notifier interface {
	Publish(ctx context.Context, userID string, event string) error
}

// Validator is the service of record for coupon eligibility and discount.
type Validator interface {
	Apply(ctx context.Context, userID string, req models.ApplyRequest) (models.AppliedCoupon, error)
}

const (
	EventUpdated = "updated"
	EventCleared = "cleared"
)

type Engine struct {
	store     Store
	validator Validator
	notifier  Notifier
	rules     PricingRules
	policy    InvalidationPolicy
	log       *zap.Logger
	now       func() time.Time
}

type EngineOption func(*Engine)

func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

func WithPricingRules(r PricingRules) EngineOption {
	return func(e *Engine) { e.rules = r }
}

func WithPolicy(p InvalidationPolicy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, validator Validator, log *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:     store,
		validator: validator,
		rules:     DefaultPricingRules(),
		policy:    InvalidateOnMutation,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Rules() PricingRules {
	return e.rules
}

// View is a session along with the totals derived from it.
type View struct {
	Session *Session
	Totals  Totals
}

func (e *Engine) view(s *Session) View {
	return View{Session: s, Totals: s.Totals(e.rules)}
}

func (e *Engine) bind(s *Session) {
	s.Bind(e.policy, e.now)
}

func (e *Engine) Get(ctx context.Context, userID string) (View, error) {
	s, err := e.store.Load(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("store.Load: %w", err)
	}
	e.bind(s)
	return e.view(s), nil
}

// Mutate applies fn to the user's session and saves it. fn reports whether it changed anything;
// listeners are notified only then.
func (e *Engine) Mutate(ctx context.Context, userID string, fn func(*Session) bool) (View, bool, error) {
	var changed, cleared bool
	s, err := e.store.Update(ctx, userID, func(s *Session) error {
		e.bind(s)
		changed = fn(s)
		cleared = changed && len(s.Cart.Items) == 0
		return nil
	})
	if err != nil {
		return View{}, false, fmt.Errorf("store.Update: %w", err)
	}
	e.bind(s)

	if changed {
		event := EventUpdated
		if cleared {
			event = EventCleared
		}
		e.notify(ctx, userID, event)
	}
	return e.view(s), changed, nil
}

// ApplyCoupon validates code against the user's cart and records the result. The validator
// is called outside the store update, so the cart may change meanwhile; such a result is
// reported as OutcomeStale and not applied.
func (e *Engine) ApplyCoupon(ctx context.Context, userID, code string) (View, Outcome, error) {
	var (
		ticket Ticket
		req    models.ApplyRequest
	)
	_, err := e.store.Update(ctx, userID, func(s *Session) error {
		e.bind(s)
		t, err := s.BeginApply(code)
		if err != nil {
			return err
		}
		ticket = t
		req = s.ApplyRequest(t.Code)
		return nil
	})
	if err != nil {
		return View{}, "", err
	}
	e.notify(ctx, userID, EventUpdated)

	result, verr := e.validator.Apply(ctx, userID, req)
	if verr != nil {
		if _, rejected := coupon.AsRejection(verr); !rejected {
			e.log.Warn("⚠️ coupon validation failed", zap.String("user_id", userID),
				zap.String("code", ticket.Code), zap.Error(verr))
		}
	}

	var outcome Outcome
	s, err := e.store.Update(context.WithoutCancel(ctx), userID, func(s *Session) error {
		e.bind(s)
		outcome = s.ResolveApply(ticket, result, verr)
		return nil
	})
	if err != nil {
		return View{}, "", fmt.Errorf("store.Update: %w", err)
	}
	e.bind(s)

	if outcome != OutcomeStale {
		e.notify(ctx, userID, EventUpdated)
	}
	e.log.Info("coupon apply resolved", zap.String("user_id", userID),
		zap.String("code", ticket.Code), zap.String("outcome", string(outcome)))

	return e.view(s), outcome, nil
}

func (e *Engine) RemoveCoupon(ctx context.Context, userID string) (View, error) {
	v, _, err := e.Mutate(ctx, userID, func(s *Session) bool {
		return s.RemoveCoupon()
	})
	return v, err
}

func (e *Engine) notify(ctx context.Context, userID, event string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(context.WithoutCancel(ctx), userID, event); err != nil {
		e.log.Warn("⚠️ cart notification failed", zap.String("user_id", userID), zap.Error(err))
	}
}
