package consultations

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
	"github.com/clinicflow/backend/pkg/response"
	"github.com/clinicflow/backend/pkg/validation"
)

// CreateRequest is the body for POST /:workspace_slug/consultations.
type CreateRequest struct {
	PatientID      string  `json:"paciente_id" validate:"required,uuid"`
	ChiefComplaint *string `json:"queixa_principal" normalize:"trim" validate:"omitempty,min=3,max=1000"`
}

// UpdateRequest is the body for PATCH /:workspace_slug/consultations/:id.
type UpdateRequest struct {
	ChiefComplaint *string `json:"queixa_principal" normalize:"trim" validate:"omitempty,min=3,max=1000"`
	Status         *string `json:"status" validate:"omitempty,oneof=in_progress completed cancelled"`
	CompletedAt    *string `json:"concluida_em" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ListQuery is the query string of GET /:workspace_slug/consultations.
type ListQuery struct {
	pagination.Params
	Status         string `form:"status" validate:"omitempty,oneof=in_progress completed cancelled"`
	PatientID      string `form:"paciente_id" validate:"omitempty,uuid"`
	ProfessionalID string `form:"profissional_id" validate:"omitempty,uuid"`
	From           string `form:"data_inicio" validate:"omitempty,datetime=2006-01-02"`
	To             string `form:"data_fim" validate:"omitempty,datetime=2006-01-02"`
}

// Check rejects a date range that ends before it starts.
func (q *ListQuery) Check() []apperror.FieldError {
	from, errFrom := time.Parse(validation.DateLayout, q.From)
	to, errTo := time.Parse(validation.DateLayout, q.To)
	if errFrom == nil && errTo == nil && to.Before(from) {
		return []apperror.FieldError{{Field: "data_fim", Message: "data_fim must be on or after data_inicio"}}
	}
	return nil
}

// Filter converts the validated query into a list filter.
func (q ListQuery) Filter() Filter {
	var f Filter
	if q.Status != "" {
		s := models.ConsultationStatus(q.Status)
		f.Status = &s
	}
	if q.PatientID != "" {
		id := uuid.MustParse(q.PatientID)
		f.PatientID = &id
	}
	if q.ProfessionalID != "" {
		id := uuid.MustParse(q.ProfessionalID)
		f.ProfessionalID = &id
	}
	if t, err := time.Parse(validation.DateLayout, q.From); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(validation.DateLayout, q.To); err == nil {
		f.To = &t
	}
	return f
}

// IDParam is the consultation id path parameter.
type IDParam struct {
	ID string `uri:"id" validate:"required,uuid"`
}

// Handler handles consultation HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a consultation handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Owner resolves the professional of the consultation in the path, for the ownership gate.
func (h *Handler) Owner(c *gin.Context, scope reqctx.Scope) (uuid.UUID, error) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	return h.svc.OwnerOf(c.Request.Context(), scope.WorkspaceID, id)
}

// Create handles POST /:workspace_slug/consultations (ADMIN, PROFESSIONAL).
func (h *Handler) Create(c *gin.Context) {
	req := validation.BodyOf[CreateRequest](c)
	scope := reqctx.MustScope(c)

	cons, err := h.svc.Create(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, uuid.MustParse(req.PatientID), req.ChiefComplaint)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "consultation created successfully", cons)
}

// List handles GET /:workspace_slug/consultations.
func (h *Handler) List(c *gin.Context) {
	q := validation.QueryOf[ListQuery](c)
	scope := reqctx.MustScope(c)

	list, meta, err := h.svc.List(c.Request.Context(), scope.WorkspaceID, q.Filter(), q.Params)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.List(c, list, meta)
}

// Get handles GET /:workspace_slug/consultations/:id.
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

// Update handles PATCH /:workspace_slug/consultations/:id (ADMIN or the consultation's professional).
func (h *Handler) Update(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	req := validation.BodyOf[UpdateRequest](c)
	scope := reqctx.MustScope(c)

	p := UpdateParams{ChiefComplaint: req.ChiefComplaint}
	if req.Status != nil {
		s := models.ConsultationStatus(*req.Status)
		p.Status = &s
	}
	if req.CompletedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.CompletedAt)
		if err != nil {
			response.Fail(c, apperror.Validation([]apperror.FieldError{{Field: "concluida_em", Message: "concluida_em must be an ISO 8601 datetime"}}))
			return
		}
		p.CompletedAt = &t
	}

	cons, err := h.svc.Update(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, id, p)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKMessage(c, "consultation updated successfully", cons)
}

// Delete handles DELETE /:workspace_slug/consultations/:id (ADMIN or the consultation's professional).
func (h *Handler) Delete(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[IDParam](c).ID)
	scope := reqctx.MustScope(c)

	if err := h.svc.Delete(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "consultation deleted successfully")
}
