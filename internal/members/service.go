// Package members manages who belongs to a workspace and with which role.
package members

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/apperror"
)

// Store is the persistence used by Service.
type Store interface {
	List(ctx context.Context, workspaceID uuid.UUID) ([]models.MemberDetail, error)
	Get(ctx context.Context, workspaceID, memberID uuid.UUID) (*models.MemberDetail, error)
	Invite(ctx context.Context, workspaceID, actorID uuid.UUID, email string, role models.Role) (uuid.UUID, error)
	UpdateRole(ctx context.Context, workspaceID, actorID, memberID uuid.UUID, role models.Role) error
	Remove(ctx context.Context, workspaceID, actorID, memberID uuid.UUID) error
}

// The single-admin partial index reports its own name when a concurrent
// write slips past the procedure's check.
var singleAdmin = apperror.Rule{Match: "single_admin", Status: http.StatusBadRequest, Message: "workspace already has an admin"}

var inviteRules = []apperror.Rule{
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "invalid role", Status: http.StatusBadRequest},
	{Match: "user not found", Status: http.StatusNotFound},
	{Match: "already a member", Status: http.StatusBadRequest},
	{Match: "already has an admin", Status: http.StatusBadRequest},
	singleAdmin,
}

var updateRoleRules = []apperror.Rule{
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "invalid role", Status: http.StatusBadRequest},
	{Match: "member not found", Status: http.StatusNotFound},
	{Match: "workspace admin", Status: http.StatusBadRequest},
	{Match: "already has an admin", Status: http.StatusBadRequest},
	singleAdmin,
}

var removeRules = []apperror.Rule{
	{Match: "member not found", Status: http.StatusNotFound},
	{Match: "workspace admin", Status: http.StatusBadRequest},
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "yourself", Status: http.StatusBadRequest},
}

// Service implements member operations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a member service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Invite adds an existing user to the workspace with role.
func (s *Service) Invite(ctx context.Context, workspaceID, actorID uuid.UUID, email string, role models.Role) (*models.MemberDetail, error) {
	id, err := s.store.Invite(ctx, workspaceID, actorID, email, role)
	if err != nil {
		return nil, apperror.Classify(err, inviteRules, "failed to invite member")
	}
	s.logger.Info("member invited",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("member_id", id.String()),
		zap.String("role", string(role)))
	return s.Get(ctx, workspaceID, id)
}

// List returns the workspace's members.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID) ([]models.MemberDetail, error) {
	list, err := s.store.List(ctx, workspaceID)
	if err != nil {
		return nil, apperror.Internal("failed to list members", err)
	}
	return list, nil
}

// Get returns one member.
func (s *Service) Get(ctx context.Context, workspaceID, memberID uuid.UUID) (*models.MemberDetail, error) {
	m, err := s.store.Get(ctx, workspaceID, memberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("member not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load member", err)
	}
	return m, nil
}

// UpdateRole changes a member's role and returns the updated member.
func (s *Service) UpdateRole(ctx context.Context, workspaceID, actorID, memberID uuid.UUID, role models.Role) (*models.MemberDetail, error) {
	if err := s.store.UpdateRole(ctx, workspaceID, actorID, memberID, role); err != nil {
		return nil, apperror.Classify(err, updateRoleRules, "failed to update member role")
	}
	return s.Get(ctx, workspaceID, memberID)
}

// Remove deletes a member. The workspace admin and the caller's own
// membership cannot be removed.
func (s *Service) Remove(ctx context.Context, workspaceID, actorID, memberID uuid.UUID) error {
	if err := s.store.Remove(ctx, workspaceID, actorID, memberID); err != nil {
		return apperror.Classify(err, removeRules, "failed to remove member")
	}
	s.logger.Info("member removed",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("member_id", memberID.String()))
	return nil
}
