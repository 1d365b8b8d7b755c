package coupon

import (
	"errors"
	"fmt"
)

// Reason categorises why a code was refused.
type Reason string

const (
	ReasonNotFound             Reason = "not_found"
	ReasonInactive             Reason = "inactive"
	ReasonNotYetActive         Reason = "not_yet_active"
	ReasonExpired              Reason = "expired"
	ReasonBelowMinimum         Reason = "below_minimum"
	ReasonUsageLimitExceeded   Reason = "usage_limit_exceeded"
	ReasonPerUserLimitExceeded Reason = "per_user_limit_exceeded"
	ReasonNotApplicable        Reason = "not_applicable"
)

var (
	ErrNotFound     = errors.New("coupon not found")
	ErrCodeExists   = errors.New("coupon code already exists")
	ErrInvalidInput = errors.New("invalid coupon input")
)

// RejectionError is returned when a coupon exists but cannot be used on the cart.
// It is meant to be shown to the shopper as is.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func reject(reason Reason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a RejectionError if it is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
