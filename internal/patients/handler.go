package patients

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/pagination"
	"github.com/clinicflow/backend/pkg/response"
	"github.com/clinicflow/backend/pkg/validation"
)

// Fields are the optional patient attributes shared by create and update.
type Fields struct {
	BirthDate *string `json:"data_nascimento" validate:"omitempty,datetime=2006-01-02,pastdate"`
	CPF       *string `json:"cpf" normalize:"trim" validate:"omitempty,cpf"`
	Phone     *string `json:"telefone" normalize:"trim" validate:"omitempty,phonebr"`
	Email     *string `json:"email" normalize:"trim,lower" validate:"omitempty,email"`
	Address   *string `json:"endereco" normalize:"trim" validate:"omitempty,max=500"`
	Notes     *string `json:"observacoes" normalize:"trim" validate:"omitempty,max=1000"`
}

// CreateRequest is the body for POST /:workspace_slug/patients.
type CreateRequest struct {
	Name string `json:"nome" normalize:"trim" validate:"required,min=3,max=200"`
	Fields
}

// UpdateRequest is the body for PATCH /:workspace_slug/patients/:id.
type UpdateRequest struct {
	Name *string `json:"nome" normalize:"trim" validate:"omitempty,min=3,max=200"`
	Fields
}

// ListQuery is the query string of GET /:workspace_slug/patients.
type ListQuery struct {
	pagination.Params
	Search string `form:"search" normalize:"trim" validate:"max=100"`
}

// SearchQuery is the query string of GET /:workspace_slug/patients/search.
type SearchQuery struct {
	Q     string `form:"q" normalize:"trim" validate:"required,max=100"`
	Limit int    `form:"limit" default:"10" validate:"gte=1,lte=50"`
}

// IDParam is the patient id path parameter.
type IDParam struct {
	ID string `uri:"id" validate:"required,uuid"`
}

func (f Fields) input(name *string) Input {
	return Input{
		Name:      name,
		BirthDate: f.BirthDate,
		CPF:       f.CPF,
		Phone:     f.Phone,
		Email:     f.Email,
		Address:   f.Address,
		Notes:     f.Notes,
	}
}

// Handler handles patient HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a patient handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /:workspace_slug/patients (ADMIN, PROFESSIONAL).
func (h *Handler) Create(c *gin.Context) {
	req := validation.BodyOf[CreateRequest](c)
	scope := reqctx.MustScope(c)

	p, err := h.svc.Create(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, req.Fields.input(&req.Name))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "patient created successfully", p)
}

// List handles GET /:workspace_slug/patients.
func (h *Handler) List(c *gin.Context) {
	q := validation.QueryOf[ListQuery](c)
	scope := reqctx.MustScope(c)

	list, meta, err := h.svc.List(c.Request.Context(), scope.WorkspaceID, q.Search, q.Params)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.List(c, list, meta)
}

// Search handles GET /:workspace_slug/patients/search.
func (h *Handler) Search(c *gin.Context) {
	q := validation.QueryOf[SearchQuery](c)
	scope := reqctx.MustScope(c)

	list, err := h.svc.Search(c.Request.Context(), scope.WorkspaceID, q.Q, q.Limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /:workspace_slug/patients/:id.
func (h *Handler) Get(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	scope := reqctx.MustScope(c)

	detail, err := h.svc.Get(c.Request.Context(), scope.WorkspaceID, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, detail)
}

// Update handles PATCH /:workspace_slug/patients/:id (ADMIN, PROFESSIONAL).
func (h *Handler) Update(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	req := validation.BodyOf[UpdateRequest](c)
	scope := reqctx.MustScope(c)

	p, err := h.svc.Update(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, id, req.Fields.input(req.Name))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKMessage(c, "patient updated successfully", p)
}

// Delete handles DELETE /:workspace_slug/patients/:id (ADMIN, PROFESSIONAL).
func (h *Handler) Delete(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	scope := reqctx.MustScope(c)

	if err := h.svc.Delete(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "patient deleted successfully")
}
