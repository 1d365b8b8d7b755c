package routes

import (
	"net/http"

	"cake_heaven_back_end/internal/handlers"
	"cake_heaven_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Cart      *handlers.CartHandler
	Coupons   *handlers.CouponHandler
	Checkout  *handlers.CheckoutHandler
	Limiter   middleware.Counter
	JWTSecret []byte
	Log       *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := middleware.AuthRequired(d.JWTSecret, d.Log)
	couponLimit := middleware.CouponApplyRateLimit(d.Limiter, d.Log)
	cartLimit := middleware.CartRateLimit(d.Limiter, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Coupons
	api.GET("/coupons/active", d.Coupons.Active)
	api.POST("/coupons/apply", auth, couponLimit, d.Coupons.Apply)

	// Cart
	cart := api.Group("/cart", auth)
	{
		cart.GET("", d.Cart.Get)
		cart.DELETE("", d.Cart.Clear)
		cart.POST("/items", cartLimit, d.Cart.AddItem)
		cart.PATCH("/items/:id/quantity", d.Cart.UpdateQuantity)
		cart.PATCH("/items/:id/customization", d.Cart.UpdateCustomization)
		cart.DELETE("/items/:id", d.Cart.RemoveItem)
		cart.POST("/coupon", couponLimit, d.Cart.ApplyCoupon)
		cart.DELETE("/coupon", d.Cart.RemoveCoupon)
		cart.GET("/ws", d.Cart.Stream)
	}

	// Checkout
	api.POST("/checkout", auth, d.Checkout.Start)
	api.POST("/checkout/confirm", auth, d.Checkout.Confirm)

	// Admin
	admin := api.Group("/admin/coupons", auth, middleware.RequireAdmin)
	{
		admin.GET("", d.Coupons.List)
		admin.GET("/:id", d.Coupons.Get)
		admin.POST("", middleware.AuditAdminAction("coupon.create", d.Log), d.Coupons.Create)
		admin.PATCH("/:id", middleware.AuditAdminAction("coupon.update", d.Log), d.Coupons.Update)
		admin.DELETE("/:id", middleware.AuditAdminAction("coupon.delete", d.Log), d.Coupons.Delete)
		admin.GET("/:id/flyer", middleware.AuditAdminAction("coupon.flyer", d.Log), d.Coupons.Flyer)
	}
}
