// Package workspaces manages tenants: creation, detail, update and deletion.
package workspaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/saga"
	"github.com/clinicflow/backend/pkg/validation"
)

var errSlugInUse = apperror.Conflict("slug already in use")

// slugRules classify constraint violations raised by concurrent writers
// that passed the SlugTaken check.
var slugRules = []apperror.Rule{
	{Match: "workspaces_slug_key", Status: http.StatusBadRequest, Message: "slug already in use"},
	{Match: "workspaces_slug_format", Status: http.StatusBadRequest, Message: "invalid slug"},
}

// Counts are the resource totals shown on the workspace detail.
type Counts struct {
	Members       int `json:"members_count"`
	Patients      int `json:"patients_count"`
	Consultations int `json:"consultations_count"`
}

// Detail is a workspace as seen by one of its members.
type Detail struct {
	Workspace *models.Workspace `json:"workspace"`
	Role      models.Role       `json:"role"`
	Counts
}

// UpdateParams holds the optional fields of an update; nil leaves a field unchanged.
type UpdateParams struct {
	Name *string
	Slug *string
	Plan *string
}

// Store is the persistence used by Service.
type Store interface {
	GetBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Member, error)
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	Create(ctx context.Context, w *models.Workspace) error
	AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.Role) error
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context, id uuid.UUID) (Counts, error)
}

// Service implements workspace operations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a workspace service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create makes a new workspace owned by userID with userID as its ADMIN.
// An empty slug is derived from name.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name, slug string) (*models.Workspace, error) {
	slug, err := validation.WorkspaceSlug(name, slug)
	if err != nil {
		return nil, err
	}
	taken, err := s.store.SlugTaken(ctx, slug, uuid.Nil)
	if err != nil {
		return nil, apperror.Internal("failed to check slug", err)
	}
	if taken {
		return nil, errSlugInUse
	}

	ws := &models.Workspace{
		Slug:               slug,
		Name:               name,
		OwnerID:            userID,
		SubscriptionStatus: models.SubscriptionTrial,
		Plan:               models.DefaultPlan,
	}
	err = saga.New(s.logger).
		Add(saga.Step{
			Name: "create workspace",
			Do:   func(ctx context.Context) error { return s.store.Create(ctx, ws) },
			Compensate: func(ctx context.Context) error {
				return s.store.Delete(ctx, ws.ID)
			},
		}).
		Add(saga.Step{
			Name: "add owner as admin",
			Do: func(ctx context.Context) error {
				return s.store.AddMember(ctx, ws.ID, userID, models.RoleAdmin)
			},
		}).
		Run(ctx)
	if err != nil {
		return nil, apperror.Classify(err, slugRules, "failed to create workspace")
	}
	s.logger.Info("workspace created", zap.String("workspace_id", ws.ID.String()), zap.String("slug", ws.Slug))
	return ws, nil
}

// Get returns the workspace with the caller's role and resource counts.
// Suspended workspaces stay readable by their members.
func (s *Service) Get(ctx context.Context, slug string, userID uuid.UUID) (*Detail, error) {
	ws, err := s.store.GetBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load workspace", err)
	}
	member, err := s.store.GetMembership(ctx, ws.ID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.Forbidden("you do not have access to this workspace")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load membership", err)
	}
	counts, err := s.store.Counts(ctx, ws.ID)
	if err != nil {
		return nil, apperror.Internal("failed to count workspace resources", err)
	}
	return &Detail{Workspace: ws, Role: member.Role, Counts: counts}, nil
}

// Update changes name, slug or plan of workspaceID.
func (s *Service) Update(ctx context.Context, workspaceID uuid.UUID, p UpdateParams) (*models.Workspace, error) {
	if p.Slug != nil {
		taken, err := s.store.SlugTaken(ctx, *p.Slug, workspaceID)
		if err != nil {
			return nil, apperror.Internal("failed to check slug", err)
		}
		if taken {
			return nil, errSlugInUse
		}
	}
	ws, err := s.store.Update(ctx, workspaceID, p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("workspace not found")
	}
	if err != nil {
		return nil, apperror.Classify(err, slugRules, "failed to update workspace")
	}
	return ws, nil
}

// Delete removes the workspace. Only its owner may do so.
func (s *Service) Delete(ctx context.Context, workspaceID, ownerID, userID uuid.UUID) error {
	if ownerID != userID {
		return apperror.Forbidden("only the owner can delete the workspace")
	}
	err := s.store.Delete(ctx, workspaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("workspace not found")
	}
	if err != nil {
		return apperror.Internal("failed to delete workspace", err)
	}
	s.logger.Info("workspace deleted", zap.String("workspace_id", workspaceID.String()))
	return nil
}
