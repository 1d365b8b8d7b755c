package handlers

import (
	"errors"
	"net/http"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/catalog"
	"cake_heaven_back_end/internal/checkout"
	"cake_heaven_back_end/internal/coupon"
	"cake_heaven_back_end/internal/payment"
	"cake_heaven_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps domain errors to a status and a message safe to show.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	if rej, ok := coupon.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		if rej.Reason == coupon.ReasonNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": rej.Message, "reason": rej.Reason})
		return
	}

	var status int
	switch {
	case errors.Is(err, cart.ErrEmptyCart), errors.Is(err, cart.ErrEmptyCode), errors.Is(err, coupon.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, coupon.ErrNotFound), errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, checkout.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cart.ErrApplyInFlight), errors.Is(err, cart.ErrSessionChanged), errors.Is(err, coupon.ErrCodeExists):
		status = http.StatusConflict
	case errors.Is(err, checkout.ErrPaymentIncomplete):
		status = http.StatusPaymentRequired
	case errors.Is(err, payment.ErrNotConfigured), errors.Is(err, services.ErrStorageNotConfigured):
		status = http.StatusServiceUnavailable
	default:
		log.Error("❌ request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": userMessage(err)})
}

// userMessage strips the wrapping context added on the way up.
func userMessage(err error) string {
	for _, known := range []error{
		cart.ErrEmptyCart, cart.ErrEmptyCode, cart.ErrApplyInFlight, cart.ErrSessionChanged,
		coupon.ErrNotFound, coupon.ErrCodeExists, catalog.ErrProductNotFound,
		checkout.ErrNotFound, checkout.ErrPaymentIncomplete,
		payment.ErrNotConfigured, services.ErrStorageNotConfigured,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
