package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/response"
)

// ErrorHandler renders the last error recorded on the context. Causes of
// 500 responses are logged and never sent to the client.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		if apperror.StatusOf(err) >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		response.Render(c, err)
	}
}

// NotFound answers unknown routes with the error envelope.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Fail(c, apperror.NotFound("route not found"))
	}
}

// Recovery turns a panic into a logged 500 with the error envelope.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Render(c, apperror.Internal("internal server error", fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}
