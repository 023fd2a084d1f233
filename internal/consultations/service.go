// Package consultations manages appointments between professionals and patients.
package consultations

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Filter narrows a consultation list. Dates are inclusive calendar days.
type Filter struct {
	Status         *models.ConsultationStatus
	PatientID      *uuid.UUID
	ProfessionalID *uuid.UUID
	From           *time.Time
	To             *time.Time
}

// UpdateParams holds the optional fields of an update.
type UpdateParams struct {
	ChiefComplaint *string
	Status         *models.ConsultationStatus
	CompletedAt    *time.Time
}

// Store is the persistence used by Service.
type Store interface {
	List(ctx context.Context, workspaceID uuid.UUID, f Filter, page pagination.Params) ([]models.ConsultationListItem, int, error)
	Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.ConsultationDetail, error)
	ProfessionalOf(ctx context.Context, workspaceID, id uuid.UUID) (uuid.UUID, error)
	Create(ctx context.Context, workspaceID, actorID, patientID uuid.UUID, complaint *string) (*models.Consultation, error)
	Update(ctx context.Context, workspaceID, actorID, id uuid.UUID, p UpdateParams) (*models.Consultation, error)
	Delete(ctx context.Context, workspaceID, actorID, id uuid.UUID) error
}

var createRules = []apperror.Rule{
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "patient not found", Status: http.StatusNotFound, Message: "patient not found in this workspace"},
}

var updateRules = []apperror.Rule{
	{Match: "consultation not found", Status: http.StatusNotFound},
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "invalid status", Status: http.StatusBadRequest},
}

var deleteRules = []apperror.Rule{
	{Match: "consultation not found", Status: http.StatusNotFound},
	{Match: "no permission", Status: http.StatusForbidden},
}

// Service implements consultation operations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a consultation service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create starts a consultation of patientID conducted by the caller.
func (s *Service) Create(ctx context.Context, workspaceID, actorID, patientID uuid.UUID, complaint *string) (*models.Consultation, error) {
	c, err := s.store.Create(ctx, workspaceID, actorID, patientID, complaint)
	if err != nil {
		return nil, apperror.Classify(err, createRules, "failed to create consultation")
	}
	s.logger.Info("consultation created",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("consultation_id", c.ID.String()))
	return c, nil
}

// List returns a filtered page of consultations.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID, f Filter, page pagination.Params) ([]models.ConsultationListItem, pagination.Meta, error) {
	page = page.Clamp(defaultLimit, maxLimit)
	list, total, err := s.store.List(ctx, workspaceID, f, page)
	if err != nil {
		return nil, pagination.Meta{}, apperror.Internal("failed to list consultations", err)
	}
	return list, pagination.NewMeta(total, page), nil
}

// Get returns one consultation with its related rows.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.ConsultationDetail, error) {
	d, err := s.store.Get(ctx, workspaceID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("consultation not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load consultation", err)
	}
	return d, nil
}

// OwnerOf returns the professional who conducts the consultation.
func (s *Service) OwnerOf(ctx context.Context, workspaceID, id uuid.UUID) (uuid.UUID, error) {
	owner, err := s.store.ProfessionalOf(ctx, workspaceID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperror.NotFound("consultation not found")
	}
	if err != nil {
		return uuid.Nil, apperror.Internal("failed to load consultation", err)
	}
	return owner, nil
}

// Update changes complaint, status or completion time. Completing a
// consultation stamps its completion time and duration.
func (s *Service) Update(ctx context.Context, workspaceID, actorID, id uuid.UUID, p UpdateParams) (*models.Consultation, error) {
	c, err := s.store.Update(ctx, workspaceID, actorID, id, p)
	if err != nil {
		return nil, apperror.Classify(err, updateRules, "failed to update consultation")
	}
	return c, nil
}

// Delete removes a consultation.
func (s *Service) Delete(ctx context.Context, workspaceID, actorID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, workspaceID, actorID, id); err != nil {
		return apperror.Classify(err, deleteRules, "failed to delete consultation")
	}
	s.logger.Info("consultation deleted",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("consultation_id", id.String()))
	return nil
}
