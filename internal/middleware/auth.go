package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/identity"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/response"
)

// TokenVerifier resolves a bearer token to a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Principal, error)
}

// Authenticate requires an "Authorization: Bearer <token>" header and attaches the verified principal.
func Authenticate(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			response.Fail(c, apperror.Unauthorized("missing or invalid authorization header"))
			return
		}
		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrTokenRevoked) {
				response.Fail(c, apperror.Unauthorized("invalid or expired token"))
				return
			}
			logger.Error("token verification failed", zap.Error(err))
			response.Fail(c, apperror.Internal("failed to verify token", err))
			return
		}
		if principal == nil {
			response.Fail(c, apperror.Unauthorized("invalid or expired token"))
			return
		}
		reqctx.SetPrincipal(c, reqctx.Principal{
			UserID:    principal.ID,
			Email:     principal.Email,
			Token:     token,
			ExpiresAt: principal.ExpiresAt,
		})
		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// TokenFromQuery copies ?<param>=<token> into the Authorization header when
// the header is absent. Browsers cannot set headers on WebSocket upgrades.
func TokenFromQuery(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query(param); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
