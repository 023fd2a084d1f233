// Package patients manages the patient registry of a workspace.
package patients

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
)

const (
	defaultLimit       = 10
	maxLimit           = 100
	minSearchLength    = 2
	defaultSearchLimit = 10
)

// Input carries patient fields; nil means absent.
type Input struct {
	Name      *string
	BirthDate *string
	CPF       *string
	Phone     *string
	Email     *string
	Address   *string
	Notes     *string
}

// Store is the persistence used by Service.
type Store interface {
	List(ctx context.Context, workspaceID uuid.UUID, search string, page pagination.Params) ([]models.Patient, int, error)
	Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]models.PatientSummary, error)
	Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Patient, error)
	ConsultationStats(ctx context.Context, patientID uuid.UUID) (int, *models.ConsultationSummary, error)
	Create(ctx context.Context, workspaceID, actorID uuid.UUID, in Input) (*models.Patient, error)
	Update(ctx context.Context, workspaceID, actorID, id uuid.UUID, in Input) (*models.Patient, error)
	Delete(ctx context.Context, workspaceID, actorID, id uuid.UUID) error
}

var duplicateCPF = apperror.Rule{
	Match:   "patients_workspace_id_cpf_key",
	Status:  http.StatusBadRequest,
	Message: "national id already registered in this workspace",
}

var writeRules = []apperror.Rule{
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "patient not found", Status: http.StatusNotFound},
	{Match: "national id already registered", Status: http.StatusBadRequest},
	duplicateCPF,
}

var deleteRules = []apperror.Rule{
	{Match: "no permission", Status: http.StatusForbidden},
	{Match: "patient not found", Status: http.StatusNotFound},
	{Match: "cannot be deleted", Status: http.StatusBadRequest},
}

// Service implements patient operations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a patient service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create registers a patient.
func (s *Service) Create(ctx context.Context, workspaceID, actorID uuid.UUID, in Input) (*models.Patient, error) {
	p, err := s.store.Create(ctx, workspaceID, actorID, in.compact())
	if err != nil {
		return nil, apperror.Classify(err, writeRules, "failed to create patient")
	}
	s.logger.Info("patient created", zap.String("workspace_id", workspaceID.String()), zap.String("patient_id", p.ID.String()))
	return p, nil
}

// List returns a page of patients and its pagination block.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID, search string, page pagination.Params) ([]models.Patient, pagination.Meta, error) {
	page = page.Clamp(defaultLimit, maxLimit)
	list, total, err := s.store.List(ctx, workspaceID, strings.TrimSpace(search), page)
	if err != nil {
		return nil, pagination.Meta{}, apperror.Internal("failed to list patients", err)
	}
	return list, pagination.NewMeta(total, page), nil
}

// Search returns patients matching term by name or national id. Terms
// shorter than two characters match nothing.
func (s *Service) Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]models.PatientSummary, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < minSearchLength {
		return []models.PatientSummary{}, nil
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	list, err := s.store.Search(ctx, workspaceID, term, limit)
	if err != nil {
		return nil, apperror.Internal("failed to search patients", err)
	}
	return list, nil
}

// Get returns a patient with its consultation count and latest consultation.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.PatientDetail, error) {
	p, err := s.store.Get(ctx, workspaceID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load patient", err)
	}
	count, last, err := s.store.ConsultationStats(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load patient consultations", err)
	}
	return &models.PatientDetail{Patient: *p, ConsultationsCount: count, LastConsultation: last}, nil
}

// Update changes the given fields of a patient.
func (s *Service) Update(ctx context.Context, workspaceID, actorID, id uuid.UUID, in Input) (*models.Patient, error) {
	p, err := s.store.Update(ctx, workspaceID, actorID, id, in.compact())
	if err != nil {
		return nil, apperror.Classify(err, writeRules, "failed to update patient")
	}
	return p, nil
}

// Delete removes a patient that has no consultations.
func (s *Service) Delete(ctx context.Context, workspaceID, actorID, id uuid.UUID) error {
	if err := s.store.Delete(ctx, workspaceID, actorID, id); err != nil {
		return apperror.Classify(err, deleteRules, "failed to delete patient")
	}
	s.logger.Info("patient deleted", zap.String("workspace_id", workspaceID.String()), zap.String("patient_id", id.String()))
	return nil
}

// compact turns empty optional strings into nil so they are stored as NULL.
func (in Input) compact() Input {
	for _, f := range []**string{&in.BirthDate, &in.CPF, &in.Phone, &in.Email, &in.Address, &in.Notes} {
		if *f != nil && **f == "" {
			*f = nil
		}
	}
	return in
}
