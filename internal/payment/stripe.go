package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

var ErrNotConfigured = errors.New("payment provider not configured")

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Succeeded reports whether the shopper has paid.
func (i Intent) Succeeded() bool {
	return i.Status == string(stripe.PaymentIntentStatusSucceeded)
}

// Stripe creates and reads PaymentIntents.
type Stripe struct{}

// NewStripe sets the process-wide Stripe key.
func NewStripe(secretKey string) (*Stripe, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	stripe.Key = secretKey
	return &Stripe{}, nil
}

// CreateIntent opens a payment for amount, expressed in the currency's minor unit.
func (s *Stripe) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("paymentintent.New: %w", err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) GetIntent(_ context.Context, id string) (Intent, error) {
	pi, err := paymentintent.Get(id, nil)
	if err != nil {
		return Intent{}, fmt.Errorf("paymentintent.Get: %w", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

// Disabled stands in for the provider when no key is configured; every call fails
// with ErrNotConfigured.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, int64, string, map[string]string) (Intent, error) {
	return Intent{}, ErrNotConfigured
}

func (Disabled) GetIntent(context.Context, string) (Intent, error) {
	return Intent{}, ErrNotConfigured
}
