package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConsultationStatus is the lifecycle state of a consultation.
type ConsultationStatus string

const (
	ConsultationInProgress ConsultationStatus = "in_progress"
	ConsultationCompleted  ConsultationStatus = "completed"
	ConsultationCancelled  ConsultationStatus = "cancelled"
)

// Consultation is one appointment between a professional and a patient.
type Consultation struct {
	ID              uuid.UUID          `json:"id"`
	WorkspaceID     uuid.UUID          `json:"workspace_id"`
	PatientID       uuid.UUID          `json:"paciente_id"`
	ProfessionalID  uuid.UUID          `json:"profissional_id"`
	ChiefComplaint  *string            `json:"queixa_principal"`
	Status          ConsultationStatus `json:"status"`
	StartedAt       time.Time          `json:"iniciada_em"`
	CompletedAt     *time.Time         `json:"concluida_em"`
	DurationMinutes *int               `json:"duracao_minutos"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ConsultationSummary is the short shape used for "last consultation".
type ConsultationSummary struct {
	ID        uuid.UUID          `json:"id"`
	Status    ConsultationStatus `json:"status"`
	StartedAt time.Time          `json:"iniciada_em"`
}

// PatientRef is the patient shape embedded in consultation lists.
type PatientRef struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"nome"`
	CPF       *string   `json:"cpf"`
	BirthDate *string   `json:"data_nascimento,omitempty"`
	Phone     *string   `json:"telefone,omitempty"`
}

// ConsultationListItem is a consultation with its patient and professional.
type ConsultationListItem struct {
	Consultation
	Patient      PatientRef   `json:"paciente"`
	Professional Professional `json:"profissional"`
}

// ConsultationDetail adds the transcription and analysis rows.
type ConsultationDetail struct {
	ConsultationListItem
	Transcriptions  []Transcription  `json:"transcriptions"`
	AnalysisResults []AnalysisResult `json:"analysis_results"`
}

// Transcription is the raw speech-to-text output of a consultation.
type Transcription struct {
	ID                   uuid.UUID `json:"id"`
	FullText             string    `json:"texto_completo"`
	AudioURL             *string   `json:"audio_url"`
	AudioDurationSeconds *int      `json:"duracao_audio_segundos"`
	Language             string    `json:"idioma"`
	ConfidenceScore      *float64  `json:"confianca_score"`
}

// AnalysisResult is the processed analysis of a consultation.
type AnalysisResult struct {
	ID                   uuid.UUID       `json:"id"`
	Diagnosis            *string         `json:"diagnostico"`
	SuggestedExams       json.RawMessage `json:"exames_sugeridos"`
	SuggestedMedications json.RawMessage `json:"medicamentos_sugeridos"`
	ClinicalNotes        *string         `json:"notas_clinicas"`
	ConfidenceLevel      *string         `json:"nivel_confianca"`
	Model                *string         `json:"modelo_ia"`
}
