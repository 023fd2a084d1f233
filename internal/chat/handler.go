package chat

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/pagination"
	"github.com/clinicflow/backend/pkg/response"
	"github.com/clinicflow/backend/pkg/validation"
)

// SendRequest is the body for POST /:workspace_slug/chat/message.
type SendRequest struct {
	ConsultationID string  `json:"consulta_id" validate:"required,uuid"`
	Type           string  `json:"tipo_mensagem" validate:"required,oneof=text audio system"`
	Content        string  `json:"conteudo" normalize:"trim" validate:"required,max=5000"`
	AudioURL       *string `json:"audio_url" normalize:"trim" validate:"omitempty,url,max=2048"`
}

// AudioUploadRequest is the body for POST /:workspace_slug/chat/audio-upload-url.
type AudioUploadRequest struct {
	ConsultationID string `json:"consulta_id" validate:"required,uuid"`
	ContentType    string `json:"content_type" normalize:"trim,lower" validate:"required,max=100"`
}

// ConsultationParam is the consultation id path parameter.
type ConsultationParam struct {
	ConsultationID string `uri:"consultationId" validate:"required,uuid"`
}

// HistoryQuery pages the chat history.
type HistoryQuery struct {
	Page  int `form:"page" default:"1" validate:"gte=1,lte=100000"`
	Limit int `form:"limit" default:"50" validate:"gte=1,lte=200"`
}

// Streamer serves the live message stream of a consultation.
type Streamer interface {
	Serve(c *gin.Context, room, userID uuid.UUID)
}

// Handler handles chat HTTP endpoints.
type Handler struct {
	svc    *Service
	stream Streamer
}

// NewHandler creates a chat handler. stream may be nil to disable live streams.
func NewHandler(svc *Service, stream Streamer) *Handler {
	return &Handler{svc: svc, stream: stream}
}

// Send handles POST /:workspace_slug/chat/message (ADMIN, PROFESSIONAL).
func (h *Handler) Send(c *gin.Context) {
	req := validation.BodyOf[SendRequest](c)
	scope := reqctx.MustScope(c)

	msg, err := h.svc.Send(c.Request.Context(), scope.WorkspaceID, scope.Principal.UserID, SendParams{
		ConsultationID: uuid.MustParse(req.ConsultationID),
		Type:           models.MessageType(req.Type),
		Content:        req.Content,
		AudioURL:       req.AudioURL,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "message sent successfully", msg)
}

// History handles GET /:workspace_slug/chat/:consultationId.
func (h *Handler) History(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[ConsultationParam](c).ConsultationID)
	q := validation.QueryOf[HistoryQuery](c)
	scope := reqctx.MustScope(c)

	list, meta, err := h.svc.History(c.Request.Context(), scope.WorkspaceID, id, pagination.Params{Page: q.Page, Limit: q.Limit})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.List(c, list, meta)
}

// Last handles GET /:workspace_slug/chat/:consultationId/last.
func (h *Handler) Last(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[ConsultationParam](c).ConsultationID)
	scope := reqctx.MustScope(c)

	msg, err := h.svc.Last(c.Request.Context(), scope.WorkspaceID, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, msg)
}

// AudioUploadURL handles POST /:workspace_slug/chat/audio-upload-url (ADMIN, PROFESSIONAL).
func (h *Handler) AudioUploadURL(c *gin.Context) {
	req := validation.BodyOf[AudioUploadRequest](c)
	scope := reqctx.MustScope(c)

	up, err := h.svc.AudioUpload(c.Request.Context(), scope.WorkspaceID, uuid.MustParse(req.ConsultationID), req.ContentType)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, up)
}

// Stream handles GET /:workspace_slug/chat/:consultationId/ws.
func (h *Handler) Stream(c *gin.Context) {
	id := uuid.MustParse(validation.ParamsOf[ConsultationParam](c).ConsultationID)
	scope := reqctx.MustScope(c)

	if err := h.svc.CheckConsultation(c.Request.Context(), scope.WorkspaceID, id); err != nil {
		response.Fail(c, err)
		return
	}
	h.stream.Serve(c, id, scope.Principal.UserID)
}
