package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuditAdminAction logs the outcome of an admin write once the handler has run.
func AuditAdminAction(action string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("admin_id", c.GetString(KeyUserID)),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
		}
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			log.Info("🛡️ admin action", fields...)
		} else {
			log.Warn("🛡️ admin action failed", fields...)
		}
	}
}
