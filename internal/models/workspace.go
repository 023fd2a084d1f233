package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is a workspace's billing state.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Blocked reports whether the workspace rejects regular operations.
func (s SubscriptionStatus) Blocked() bool {
	return s == SubscriptionSuspended || s == SubscriptionCancelled
}

// DefaultPlan is assigned to new workspaces.
const DefaultPlan = "basic"

// Workspace is a tenant (one clinic).
type Workspace struct {
	ID                 uuid.UUID          `json:"id"`
	Slug               string             `json:"slug"`
	Name               string             `json:"nome"`
	OwnerID            uuid.UUID          `json:"owner_id"`
	SubscriptionStatus SubscriptionStatus `json:"status_assinatura"`
	Plan               string             `json:"plano_assinatura"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// WorkspaceMembership is a workspace as listed for one principal.
type WorkspaceMembership struct {
	Workspace
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"data_entrada"`
}

// Member is a row of workspace_members.
type Member struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Role        Role       `json:"role"`
	InvitedBy   *uuid.UUID `json:"convidado_por"`
	JoinedAt    time.Time  `json:"data_entrada"`
	Active      bool       `json:"ativo"`
}

// MemberDetail is a membership flattened with its user's profile.
type MemberDetail struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	FirstName string     `json:"nome"`
	LastName  *string    `json:"sobrenome"`
	Email     *string    `json:"email"`
	AvatarURL *string    `json:"avatar_url"`
	Specialty *string    `json:"especialidade"`
	CRM       *string    `json:"crm"`
	Role      Role       `json:"role"`
	JoinedAt  time.Time  `json:"data_entrada"`
	Active    bool       `json:"ativo"`
	InvitedBy *uuid.UUID `json:"convidado_por"`
}
