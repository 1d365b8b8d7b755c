package handlers

import (
	"context"
	"net/http"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/client"
	"cake_heaven_back_end/internal/middleware"
	"cake_heaven_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type ProductSource interface {
	Product(ctx context.Context, id string) (models.Product, error)
}

// Subscriber delivers cart events for one shopper until stop is called.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan string, func(), error)
}

type CartHandler struct {
	engine   *cart.Engine
	products ProductSource
	events   Subscriber
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewCartHandler accepts websocket handshakes from the listed browser origins only; "*" allows any.
func NewCartHandler(engine *cart.Engine, products ProductSource, events Subscriber, origins []string, log *zap.Logger) *CartHandler {
	return &CartHandler{
		engine:   engine,
		products: products,
		events:   events,
		upgrader: websocket.Upgrader{CheckOrigin: originAllowed(origins)},
		log:      log,
	}
}

type CartResponse struct {
	Items  []models.CartItem `json:"items"`
	Totals cart.Totals       `json:"totals"`
	Coupon cart.CouponState  `json:"coupon"`
}

func newCartResponse(v cart.View) CartResponse {
	return CartResponse{
		Items:  v.Session.Cart.Items,
		Totals: v.Totals.Rounded(),
		Coupon: v.Session.Coupon,
	}
}

func itemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	v, err := h.engine.Get(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(v))
}

type addItemRequest struct {
	ProductID      string                 `json:"productId" binding:"required"`
	Quantity       int                    `json:"quantity"`
	Customizations *models.Customizations `json:"customizations"`
}

// POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	product, err := h.products.Product(ctx, req.ProductID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var added uuid.UUID
	v, changed, err := h.engine.Mutate(ctx, c.GetString(middleware.KeyUserID), func(s *cart.Session) bool {
		id, ok := s.AddItem(product, req.Quantity, req.Customizations)
		added = id
		return ok
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"itemId": added, "cart": newCartResponse(v)})
}

// PATCH /api/cart/items/:id/quantity
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	v, _, err := h.engine.Mutate(c.Request.Context(), c.GetString(middleware.KeyUserID), func(s *cart.Session) bool {
		return s.UpdateQuantity(id, req.Quantity)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(v))
}

// PATCH /api/cart/items/:id/customization
func (h *CartHandler) UpdateCustomization(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var patch models.CustomizationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	v, _, err := h.engine.Mutate(c.Request.Context(), c.GetString(middleware.KeyUserID), func(s *cart.Session) bool {
		return s.UpdateCustomization(id, patch)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(v))
}

// DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	v, _, err := h.engine.Mutate(c.Request.Context(), c.GetString(middleware.KeyUserID), func(s *cart.Session) bool {
		return s.RemoveItem(id)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(v))
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	v, _, err := h.engine.Mutate(c.Request.Context(), c.GetString(middleware.KeyUserID), func(s *cart.Session) bool {
		s.Clear()
		return true
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(v))
}

// POST /api/cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx := client.WithBearerToken(c.Request.Context(), c.GetString(middleware.KeyToken))
	v, outcome, err := h.engine.ApplyCoupon(ctx, c.GetString(middleware.KeyUserID), req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	body := gin.H{"outcome": outcome, "cart": newCartResponse(v)}
	switch outcome {
	case cart.OutcomeApplied:
		c.JSON(http.StatusOK, body)
	case cart.OutcomeRejected:
		body["error"] = v.Session.Coupon.Error
		c.JSON(http.StatusUnprocessableEntity, body)
	case cart.OutcomeTransportFailure:
		body["error"] = cart.TransportFailureMessage
		c.JSON(http.StatusBadGateway, body)
	default:
		body["error"] = "cart changed while the coupon was being checked"
		c.JSON(http.StatusConflict, body)
	}
}

// DELETE /api/cart/coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	v, err := h.engine.RemoveCoupon(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(v))
}
