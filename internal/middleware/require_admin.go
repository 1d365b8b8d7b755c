package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin lets only tokens with the "admin" role through.
func RequireAdmin(c *gin.Context) {
	if c.GetString(KeyRole) != "admin" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.Next()
}
