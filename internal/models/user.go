package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within one workspace.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleProfessional Role = "PROFESSIONAL"
	RoleStaff        Role = "STAFF"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProfessional, RoleStaff:
		return true
	}
	return false
}

// User is a principal's profile.
type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"nome"`
	LastName  *string   `json:"sobrenome"`
	FullName  string    `json:"nome_completo"`
	Email     *string   `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	Phone     *string   `json:"telefone"`
	Specialty *string   `json:"especialidade"`
	CRM       *string   `json:"crm"`
	Active    bool      `json:"ativo"`
	Onboarded bool      `json:"onboarding"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the short user shape embedded in other responses.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"nome"`
	LastName  *string   `json:"sobrenome"`
	Email     *string   `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

// Professional is the user shape embedded in consultations.
type Professional struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"nome"`
	LastName  *string   `json:"sobrenome"`
	Specialty *string   `json:"especialidade"`
	CRM       *string   `json:"crm,omitempty"`
}
