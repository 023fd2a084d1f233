// Package auth implements sign-up, sign-in, password reset and onboarding.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/identity"
	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/saga"
	"github.com/clinicflow/backend/pkg/validation"
)

// ForgotPasswordMessage is returned whether or not the email exists.
const ForgotPasswordMessage = "if the email exists, you will receive instructions to reset your password"

// Provider is the identity provider used by Service.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*identity.Principal, *identity.Session, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	SignIn(ctx context.Context, email, password string) (*identity.Principal, *identity.Session, error)
	SignOut(ctx context.Context, token string) error
	IssueResetToken(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Store is the profile persistence used by Service.
type Store interface {
	UpsertProfile(ctx context.Context, userID uuid.UUID, email, firstName, lastName string) (*models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	IsOnboarded(ctx context.Context, userID uuid.UUID) (bool, error)
	ListWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceMembership, error)
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, name, slug string) (*models.Workspace, error)
}

// SignUpParams is a new account.
type SignUpParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// SignUpResult is returned by SignUp.
type SignUpResult struct {
	User    *models.User      `json:"user"`
	Session *identity.Session `json:"session"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	User       *models.User                 `json:"user"`
	Session    *identity.Session            `json:"session"`
	Workspaces []models.WorkspaceMembership `json:"workspaces"`
	Onboarded  bool                         `json:"onboarding_completo"`
}

// MeResult is returned by Me.
type MeResult struct {
	User      *models.User `json:"user"`
	Onboarded bool         `json:"onboarding_completo"`
}

// OnboardingResult is returned by CompleteOnboarding.
type OnboardingResult struct {
	Workspace *models.Workspace `json:"workspace"`
	Onboarded bool              `json:"onboarding_completo"`
}

var onboardingRules = []apperror.Rule{
	{Match: "already completed", Status: http.StatusBadRequest, Message: "onboarding already completed"},
	{Match: "slug already in use", Status: http.StatusBadRequest, Message: "slug already in use"},
	{Match: "workspaces_slug_key", Status: http.StatusBadRequest, Message: "slug already in use"},
	{Match: "workspaces_slug_format", Status: http.StatusBadRequest, Message: "invalid slug"},
	{Match: "user not found", Status: http.StatusNotFound},
}

var errUserNotFound = apperror.NotFound("user not found")

// Service implements the auth operations.
type Service struct {
	provider         Provider
	store            Store
	exposeResetToken bool
	logger           *zap.Logger
}

// NewService creates an auth service. exposeResetToken returns reset
// tokens to the caller and must be false in production.
func NewService(provider Provider, store Store, exposeResetToken bool, logger *zap.Logger) *Service {
	return &Service{provider: provider, store: store, exposeResetToken: exposeResetToken, logger: logger}
}

// SignUp registers credentials and the profile row. A failed profile write
// removes the credentials again.
func (s *Service) SignUp(ctx context.Context, p SignUpParams) (*SignUpResult, error) {
	var (
		principal *identity.Principal
		session   *identity.Session
		user      *models.User
	)
	err := saga.New(s.logger).
		Add(saga.Step{
			Name: "register credentials",
			Do: func(ctx context.Context) (err error) {
				principal, session, err = s.provider.SignUp(ctx, p.Email, p.Password)
				return err
			},
			Compensate: func(ctx context.Context) error {
				return s.provider.DeleteUser(ctx, principal.ID)
			},
		}).
		Add(saga.Step{
			Name: "write profile",
			Do: func(ctx context.Context) (err error) {
				user, err = s.store.UpsertProfile(ctx, principal.ID, p.Email, p.FirstName, p.LastName)
				return err
			},
		}).
		Run(ctx)
	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, apperror.BadRequest("user already registered")
	}
	if err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return &SignUpResult{User: user, Session: session}, nil
}

// Login checks credentials and returns the profile, session and workspaces.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	principal, session, err := s.provider.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperror.Internal("failed to sign in", err)
	}
	user, err := s.user(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	workspaces, err := s.store.ListWorkspaces(ctx, principal.ID)
	if err != nil {
		return nil, apperror.Internal("failed to list workspaces", err)
	}
	return &LoginResult{User: user, Session: session, Workspaces: workspaces, Onboarded: user.Onboarded}, nil
}

// Logout revokes token until it expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.provider.SignOut(ctx, token); err != nil {
		return apperror.Internal("failed to log out", err)
	}
	return nil
}

// ForgotPassword issues a reset token when the email exists. The token is
// returned only when exposeResetToken is set.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	token, err := s.provider.IssueResetToken(ctx, email)
	if err != nil {
		return "", apperror.Internal("failed to request password reset", err)
	}
	if !s.exposeResetToken {
		return "", nil
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	err := s.provider.ResetPassword(ctx, token, newPassword)
	if errors.Is(err, identity.ErrInvalidResetToken) {
		return apperror.BadRequest("invalid or expired reset token")
	}
	if err != nil {
		return apperror.Internal("failed to reset password", err)
	}
	return nil
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*MeResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MeResult{User: user, Onboarded: user.Onboarded}, nil
}

// Workspaces lists the caller's active memberships.
func (s *Service) Workspaces(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceMembership, error) {
	list, err := s.store.ListWorkspaces(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to list workspaces", err)
	}
	return list, nil
}

// CompleteOnboarding creates the caller's first workspace. An empty slug is derived from name.
func (s *Service) CompleteOnboarding(ctx context.Context, userID uuid.UUID, name, slug string) (*OnboardingResult, error) {
	slug, err := validation.WorkspaceSlug(name, slug)
	if err != nil {
		return nil, err
	}
	ws, err := s.store.CompleteOnboarding(ctx, userID, name, slug)
	if err != nil {
		return nil, apperror.Classify(err, onboardingRules, "failed to complete onboarding")
	}
	s.logger.Info("onboarding completed",
		zap.String("user_id", userID.String()),
		zap.String("workspace_id", ws.ID.String()))
	return &OnboardingResult{Workspace: ws, Onboarded: true}, nil
}

// IsOnboarded serves the onboarding gates.
func (s *Service) IsOnboarded(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.store.IsOnboarded(ctx, userID)
}

func (s *Service) user(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}
