package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType is the kind of a chat message.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageAudio  MessageType = "audio"
	MessageSystem MessageType = "system"
)

// ChatMessage is one entry of a consultation's chat log.
type ChatMessage struct {
	ID             uuid.UUID       `json:"id"`
	ConsultationID uuid.UUID       `json:"consulta_id"`
	UserID         *uuid.UUID      `json:"user_id"`
	Type           MessageType     `json:"tipo_mensagem"`
	Content        string          `json:"conteudo"`
	AudioURL       *string         `json:"audio_url"`
	AIResponse     bool            `json:"resposta_ia"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	Author         *UserSummary    `json:"users,omitempty"`
}
