package members

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/response"
	"github.com/clinicflow/backend/pkg/validation"
)

// InviteRequest is the body for POST /:workspace_slug/members.
type InviteRequest struct {
	Email string `json:"email" normalize:"trim,lower" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=ADMIN PROFESSIONAL STAFF"`
}

// UpdateRoleRequest is the body for PATCH /:workspace_slug/members/:id.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN PROFESSIONAL STAFF"`
}

// IDParam is the member id path parameter.
type IDParam struct {
	ID string `uri:"id" validate:"required,uuid"`
}

// Handler handles member HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a member handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Invite handles POST /:workspace_slug/members (ADMIN).
func (h *Handler) Invite(c *gin.Context) {
	req := validation.BodyOf[InviteRequest](c)
	scope := reqctx.MustScope(c)

	member, err := h.svc.Invite(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, req.Email, models.Role(req.Role))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "member invited successfully", member)
}

// List handles GET /:workspace_slug/members.
func (h *Handler) List(c *gin.Context) {
	scope := reqctx.MustScope(c)

	list, err := h.svc.List(c.Request.Context(), scope.WorkspaceID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /:workspace_slug/members/:id.
func (h *Handler) Get(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	scope := reqctx.MustScope(c)

	member, err := h.svc.Get(c.Request.Context(), scope.WorkspaceID, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, member)
}

// UpdateRole handles PATCH /:workspace_slug/members/:id (ADMIN).
func (h *Handler) UpdateRole(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	req := validation.BodyOf[UpdateRoleRequest](c)
	scope := reqctx.MustScope(c)

	member, err := h.svc.UpdateRole(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, id, models.Role(req.Role))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKMessage(c, "member role updated successfully", member)
}

// Remove handles DELETE /:workspace_slug/members/:id (ADMIN).
func (h *Handler) Remove(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	scope := reqctx.MustScope(c)

	if err := h.svc.Remove(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "member removed successfully")
}
