// Package chat stores and streams the message log of a consultation.
package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/realtime"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
	"github.com/clinicflow/backend/pkg/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SendParams is a new chat message.
type SendParams struct {
	ConsultationID uuid.UUID
	Type           models.MessageType
	Content        string
	AudioURL       *string
}

// Upload is a pre-signed audio upload target.
type Upload struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	AudioURL  string    `json:"audio_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the persistence used by Service.
type Store interface {
	ConsultationExists(ctx context.Context, workspaceID, consultationID uuid.UUID) (bool, error)
	History(ctx context.Context, consultationID uuid.UUID, page pagination.Params) ([]models.ChatMessage, int, error)
	Last(ctx context.Context, consultationID uuid.UUID) (*models.ChatMessage, error)
	Create(ctx context.Context, workspaceID, actorID uuid.UUID, p SendParams) (*models.ChatMessage, error)
}

// Publisher fans a created message out to live streams.
type Publisher interface {
	Publish(room uuid.UUID, event string, payload interface{})
}

// Presigner issues upload URLs for audio attachments.
type Presigner interface {
	PresignAudioUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
	ObjectURL(key string) string
}

var sendRules = []apperror.Rule{
	{Match: "consultation not found", Status: http.StatusNotFound},
	{Match: "no permission", Status: http.StatusForbidden, Message: "you do not have permission to send messages"},
	{Match: "invalid message type", Status: http.StatusBadRequest, Message: "invalid message type"},
}

var errConsultationNotFound = apperror.NotFound("consultation not found")

// Service implements chat operations.
type Service struct {
	store     Store
	publisher Publisher
	presigner Presigner
	logger    *zap.Logger
}

// NewService creates a chat service. publisher and presigner may be nil.
func NewService(store Store, publisher Publisher, presigner Presigner, logger *zap.Logger) *Service {
	return &Service{store: store, publisher: publisher, presigner: presigner, logger: logger}
}

// Send appends a message to a consultation and notifies its live streams.
func (s *Service) Send(ctx context.Context, workspaceID, actorID uuid.UUID, p SendParams) (*models.ChatMessage, error) {
	msg, err := s.store.Create(ctx, workspaceID, actorID, p)
	if err != nil {
		return nil, apperror.Classify(err, sendRules, "failed to send message")
	}
	if s.publisher != nil {
		s.publisher.Publish(p.ConsultationID, realtime.EventChatMessage, msg)
	}
	s.logger.Debug("chat message sent",
		zap.String("consultation_id", p.ConsultationID.String()),
		zap.String("message_id", msg.ID.String()))
	return msg, nil
}

// CheckConsultation fails with 404 unless the consultation belongs to the workspace.
func (s *Service) CheckConsultation(ctx context.Context, workspaceID, consultationID uuid.UUID) error {
	ok, err := s.store.ConsultationExists(ctx, workspaceID, consultationID)
	if err != nil {
		return apperror.Internal("failed to load consultation", err)
	}
	if !ok {
		return errConsultationNotFound
	}
	return nil
}

// History returns a page of messages, oldest first.
func (s *Service) History(ctx context.Context, workspaceID, consultationID uuid.UUID, page pagination.Params) ([]models.ChatMessage, pagination.Meta, error) {
	if err := s.CheckConsultation(ctx, workspaceID, consultationID); err != nil {
		return nil, pagination.Meta{}, err
	}
	page = page.Clamp(defaultHistoryLimit, maxHistoryLimit)
	list, total, err := s.store.History(ctx, consultationID, page)
	if err != nil {
		return nil, pagination.Meta{}, apperror.Internal("failed to load messages", err)
	}
	return list, pagination.NewMeta(total, page), nil
}

// Last returns the newest message, or nil for an empty chat.
func (s *Service) Last(ctx context.Context, workspaceID, consultationID uuid.UUID) (*models.ChatMessage, error) {
	if err := s.CheckConsultation(ctx, workspaceID, consultationID); err != nil {
		return nil, err
	}
	msg, err := s.store.Last(ctx, consultationID)
	if err != nil {
		return nil, apperror.Internal("failed to load last message", err)
	}
	return msg, nil
}

// AudioUpload returns a pre-signed PUT URL for an audio attachment of a consultation.
func (s *Service) AudioUpload(ctx context.Context, workspaceID, consultationID uuid.UUID, contentType string) (*Upload, error) {
	if s.presigner == nil {
		return nil, apperror.Unavailable("audio storage is not configured")
	}
	ext, ok := storage.AudioExtension(contentType)
	if !ok {
		return nil, apperror.BadRequest("unsupported audio content type")
	}
	if err := s.CheckConsultation(ctx, workspaceID, consultationID); err != nil {
		return nil, err
	}
	key := storage.ChatAudioKey(workspaceID.String(), consultationID.String(), uuid.NewString(), ext)
	url, expires, err := s.presigner.PresignAudioUpload(ctx, key, contentType)
	if err != nil {
		return nil, apperror.Internal("failed to create upload url", err)
	}
	return &Upload{UploadURL: url, Key: key, AudioURL: s.presigner.ObjectURL(key), ExpiresAt: expires}, nil
}
