package handlers

import (
	"errors"
	"net/http"

	"cake_heaven_back_end/internal/checkout"
	"cake_heaven_back_end/internal/client"
	"cake_heaven_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	log      *zap.Logger
}

func NewCheckoutHandler(svc *checkout.Service, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, log: log}
}

// POST /api/checkout
func (h *CheckoutHandler) Start(c *gin.Context) {
	ctx := client.WithBearerToken(c.Request.Context(), c.GetString(middleware.KeyToken))
	started, err := h.checkout.Start(ctx, c.GetString(middleware.KeyUserID), c.GetString(middleware.KeyEmail))
	if err != nil {
		var rejected *checkout.CouponRejectedError
		if errors.As(err, &rejected) {
			c.JSON(http.StatusConflict, gin.H{
				"error":  rejected.Error(),
				"reason": rejected.Rejection.Reason,
			})
			return
		}
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, started)
}

// POST /api/checkout/confirm
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	var req struct {
		PaymentID string `json:"paymentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	order, err := h.checkout.Confirm(c.Request.Context(), c.GetString(middleware.KeyUserID), req.PaymentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order confirmed", "order": order})
}
