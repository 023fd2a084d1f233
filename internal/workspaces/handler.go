package workspaces

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/response"
	"github.com/clinicflow/backend/pkg/validation"
)

// CreateRequest is the body for POST /workspaces.
type CreateRequest struct {
	Name string `json:"nome" normalize:"trim" validate:"required,min=3,max=100"`
	Slug string `json:"slug" validate:"omitempty,min=3,max=50,slug"`
}

// UpdateRequest is the body for PATCH /workspaces/:slug.
type UpdateRequest struct {
	Name *string `json:"nome" normalize:"trim" validate:"omitempty,min=3,max=100"`
	Slug *string `json:"slug" validate:"omitempty,min=3,max=50,slug"`
	Plan *string `json:"plano_assinatura" validate:"omitempty,min=1"`
}

// SlugParam is the path parameter of /workspaces/:slug.
type SlugParam struct {
	Slug string `uri:"slug" validate:"required,min=3,slug"`
}

// Handler handles workspace HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a workspace handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /workspaces.
func (h *Handler) Create(c *gin.Context) {
	req := validation.BodyOf[CreateRequest](c)
	principal := reqctx.MustPrincipal(c)

	ws, err := h.svc.Create(c.Request.Context(), principal.UserID, req.Name, req.Slug)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "workspace created successfully", ws)
}

// Get handles GET /workspaces/:slug.
func (h *Handler) Get(c *gin.Context) {
	param := validation.ParamsOf[SlugParam](c)
	principal := reqctx.MustPrincipal(c)

	detail, err := h.svc.Get(c.Request.Context(), param.Slug, principal.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, detail)
}

// Update handles PATCH /workspaces/:slug (ADMIN).
func (h *Handler) Update(c *gin.Context) {
	req := validation.BodyOf[UpdateRequest](c)
	scope := reqctx.MustScope(c)

	ws, err := h.svc.Update(c.Request.Context(), scope.WorkspaceID, UpdateParams{
		Name: req.Name,
		Slug: req.Slug,
		Plan: req.Plan,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKMessage(c, "workspace updated successfully", ws)
}

// Delete handles DELETE /workspaces/:slug (ADMIN and owner).
func (h *Handler) Delete(c *gin.Context) {
	scope := reqctx.MustScope(c)

	if err := h.svc.Delete(c.Request.Context(), scope.WorkspaceID, scope.OwnerID, scope.Principal.UserID); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "workspace deleted successfully")
}
