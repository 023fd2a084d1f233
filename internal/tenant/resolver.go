// Package tenant resolves the workspace addressed by a request and the caller's membership in it.
package tenant

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/response"
)

// Store reads workspaces and memberships. Missing rows are reported as pgx.ErrNoRows.
type Store interface {
	GetBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Member, error)
}

// SlugParam is the path parameter of workspace-scoped routes.
type SlugParam struct {
	WorkspaceSlug string `uri:"workspace_slug" validate:"required,min=3,slug"`
}

// Resolver turns a slug and a principal into a Scope.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve runs the checks in order and stops at the first failure:
// slug present, workspace exists, membership exists, membership active,
// workspace not suspended or cancelled.
func (r *Resolver) Resolve(ctx context.Context, slug string, principal reqctx.Principal) (reqctx.Scope, error) {
	if slug == "" {
		return reqctx.Scope{}, apperror.BadRequest("workspace slug is required")
	}

	ws, err := r.store.GetBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return reqctx.Scope{}, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return reqctx.Scope{}, apperror.Internal("failed to load workspace", err)
	}

	member, err := r.store.GetMembership(ctx, ws.ID, principal.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return reqctx.Scope{}, apperror.Forbidden("you do not have access to this workspace")
	}
	if err != nil {
		return reqctx.Scope{}, apperror.Internal("failed to load membership", err)
	}
	if !member.Active {
		return reqctx.Scope{}, apperror.Forbidden("your membership in this workspace is inactive")
	}
	if ws.SubscriptionStatus.Blocked() {
		return reqctx.Scope{}, apperror.Forbidden("workspace is " + string(ws.SubscriptionStatus))
	}

	return reqctx.Scope{
		Principal:     principal,
		WorkspaceID:   ws.ID,
		WorkspaceSlug: ws.Slug,
		OwnerID:       ws.OwnerID,
		Role:          member.Role,
	}, nil
}

// Middleware resolves the workspace named by the path parameter param.
// It must run after authentication.
func (r *Resolver) Middleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := reqctx.PrincipalFrom(c)
		if !ok {
			response.Fail(c, apperror.Unauthorized("not authenticated"))
			return
		}
		scope, err := r.Resolve(c.Request.Context(), c.Param(param), principal)
		if err != nil {
			response.Fail(c, err)
			return
		}
		reqctx.SetScope(c, scope)
		c.Next()
	}
}
