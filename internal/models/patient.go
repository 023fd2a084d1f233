package models

import (
	"time"

	"github.com/google/uuid"
)

// Patient holds a patient's registration data.
type Patient struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Name        string     `json:"nome"`
	BirthDate   *string    `json:"data_nascimento"`
	CPF         *string    `json:"cpf"`
	Phone       *string    `json:"telefone"`
	Email       *string    `json:"email"`
	Address     *string    `json:"endereco"`
	Notes       *string    `json:"observacoes"`
	CreatedBy   *uuid.UUID `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PatientSummary is returned by the quick search.
type PatientSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"nome"`
	CPF       *string   `json:"cpf"`
	BirthDate *string   `json:"data_nascimento"`
	Phone     *string   `json:"telefone"`
}

// PatientDetail is a patient with consultation statistics.
type PatientDetail struct {
	Patient
	ConsultationsCount int                  `json:"consultations_count"`
	LastConsultation   *ConsultationSummary `json:"last_consultation"`
}
