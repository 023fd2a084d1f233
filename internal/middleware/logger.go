package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/reqctx"
)

// Logger returns a zap-based request logging middleware.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("client_ip", c.ClientIP()),
		}
		if scope, ok := reqctx.ScopeFrom(c); ok {
			fields = append(fields, zap.String("workspace", scope.WorkspaceSlug), zap.String("user_id", scope.Principal.UserID.String()))
		} else if p, ok := reqctx.PrincipalFrom(c); ok {
			fields = append(fields, zap.String("user_id", p.UserID.String()))
		}
		logger.Info("request", fields...)
	}
}
