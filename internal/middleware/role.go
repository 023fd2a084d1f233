package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/response"
)

// RequireRole allows only callers whose workspace role is in roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}
	denied := "access denied; allowed roles: " + strings.Join(names, ", ")
	return func(c *gin.Context) {
		scope, ok := reqctx.ScopeFrom(c)
		if !ok || scope.Role == "" {
			response.Fail(c, apperror.Forbidden("workspace role not resolved"))
			return
		}
		if _, ok := allowed[scope.Role]; !ok {
			response.Fail(c, apperror.Forbidden(denied))
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only workspace admins.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireProfessional allows admins and professionals.
func RequireProfessional() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleProfessional)
}

// OwnerFunc resolves the user that owns the resource addressed by the request.
type OwnerFunc func(c *gin.Context, scope reqctx.Scope) (uuid.UUID, error)

// RequireOwnership allows admins unconditionally and otherwise only the resource owner.
func RequireOwnership(owner OwnerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := reqctx.ScopeFrom(c)
		if !ok {
			response.Fail(c, apperror.Forbidden("workspace role not resolved"))
			return
		}
		if scope.Role == models.RoleAdmin {
			c.Next()
			return
		}
		ownerID, err := owner(c, scope)
		if err != nil {
			response.Fail(c, err)
			return
		}
		if ownerID != scope.Principal.UserID {
			response.Fail(c, apperror.Forbidden("only the owner or an admin can modify this resource"))
			return
		}
		c.Next()
	}
}
