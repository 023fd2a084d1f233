// Package reqctx holds the values the middleware pipeline attaches to a request.
// Each stage stores a complete value; later stages read it and never modify it.
package reqctx

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/models"
)

const (
	principalKey = "principal"
	scopeKey     = "workspace_scope"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Scope is the workspace a request operates in and the caller's role there.
type Scope struct {
	Principal     Principal
	WorkspaceID   uuid.UUID
	WorkspaceSlug string
	OwnerID       uuid.UUID
	Role          models.Role
}

// IsOwner reports whether the caller owns the workspace.
func (s Scope) IsOwner() bool { return s.OwnerID == s.Principal.UserID }

// SetPrincipal attaches the authenticated caller.
func SetPrincipal(c *gin.Context, p Principal) { c.Set(principalKey, p) }

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// SetScope attaches the resolved workspace scope.
func SetScope(c *gin.Context, s Scope) { c.Set(scopeKey, s) }

// ScopeFrom returns the resolved workspace scope, if any.
func ScopeFrom(c *gin.Context) (Scope, bool) {
	v, ok := c.Get(scopeKey)
	if !ok {
		return Scope{}, false
	}
	s, ok := v.(Scope)
	return s, ok
}

// MustPrincipal returns the caller on routes behind authentication.
func MustPrincipal(c *gin.Context) Principal {
	p, ok := PrincipalFrom(c)
	if !ok {
		panic("reqctx: principal missing; route is not behind authentication")
	}
	return p
}

// MustScope returns the scope on routes behind the tenant resolver.
func MustScope(c *gin.Context) Scope {
	s, ok := ScopeFrom(c)
	if !ok {
		panic("reqctx: workspace scope missing; route is not behind the tenant resolver")
	}
	return s
}
