package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cake_heaven_back_end/internal/cart"
	"cake_heaven_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// originAllowed checks the handshake Origin itself: browsers skip CORS preflight for websockets.
// Clients that send no Origin are not browsers and pass.
func originAllowed(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] {
			return true
		}
		return allowed[origin]
	}
}

type cartEvent struct {
	Type string        `json:"type"`
	Cart *CartResponse `json:"cart,omitempty"`
}

// Stream keeps a shopper's open tabs in sync: every cart event is answered with the
// current cart.
func (h *CartHandler) Stream(c *gin.Context) {
	userID := c.GetString(middleware.KeyUserID)

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	events, stop, err := h.events.Subscribe(ctx, userID)
	if err != nil {
		h.log.Error("❌ cart subscription failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live cart updates unavailable"})
		return
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("⚠️ websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := h.pushCart(ctx, conn, userID, "connected"); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			kind := "cart_updated"
			if event == cart.EventCleared {
				kind = "cart_cleared"
			}
			if err := h.pushCart(ctx, conn, userID, kind); err != nil {
				h.log.Debug("websocket write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *CartHandler) pushCart(ctx context.Context, conn *websocket.Conn, userID, kind string) error {
	v, err := h.engine.Get(ctx, userID)
	if err != nil {
		h.log.Warn("⚠️ cart reload failed", zap.String("user_id", userID), zap.Error(err))
		return conn.WriteJSON(cartEvent{Type: "error"})
	}
	resp := newCartResponse(v)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(cartEvent{Type: kind, Cart: &resp})
}
