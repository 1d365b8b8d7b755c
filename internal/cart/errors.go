package cart

import "errors"

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrEmptyCode      = errors.New("coupon code is required")
	ErrApplyInFlight  = errors.New("a coupon is already being validated")
	ErrSessionChanged = errors.New("cart session changed concurrently")
)
