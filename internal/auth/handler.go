package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicflow/backend/internal/middleware"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/response"
	"github.com/clinicflow/backend/pkg/validation"
)

// SignUpRequest is the body for POST /auth/signup.
type SignUpRequest struct {
	FirstName string `json:"nome" normalize:"trim" validate:"required,min=2,max=100"`
	LastName  string `json:"sobrenome" normalize:"trim" validate:"required,min=2,max=100"`
	Email     string `json:"email" normalize:"trim,lower" validate:"required,email"`
	Password  string `json:"senha" validate:"required,min=8,max=100,strongpassword"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" normalize:"trim,lower" validate:"required,email"`
	Password string `json:"senha" validate:"required"`
}

// ForgotPasswordRequest is the body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" normalize:"trim,lower" validate:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" normalize:"trim" validate:"required"`
	NewPassword string `json:"nova_senha" validate:"required,min=8,max=100,strongpassword"`
}

// OnboardingRequest is the body for POST /auth/onboarding.
type OnboardingRequest struct {
	WorkspaceName string `json:"nome_workspace" normalize:"trim" validate:"required,min=3,max=100"`
	Slug          string `json:"slug" normalize:"trim" validate:"omitempty,min=3,max=50,slug"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SignUp handles POST /auth/signup.
func (h *Handler) SignUp(c *gin.Context) {
	req := validation.BodyOf[SignUpRequest](c)
	res, err := h.svc.SignUp(c.Request.Context(), SignUpParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "user created successfully", res)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	req := validation.BodyOf[LoginRequest](c)
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OKMessage(c, "login successful", res)
}

// Logout handles POST /auth/logout. A bearer token, when present, is revoked.
func (h *Handler) Logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c)
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "logout successful")
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *Handler) ForgotPassword(c *gin.Context) {
	req := validation.BodyOf[ForgotPasswordRequest](c)
	token, err := h.svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if token == "" {
		response.Message(c, ForgotPasswordMessage)
		return
	}
	response.OKMessage(c, ForgotPasswordMessage, gin.H{"dev_token": token})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	req := validation.BodyOf[ResetPasswordRequest](c)
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.Message(c, "password reset successfully")
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	res, err := h.svc.Me(c.Request.Context(), reqctx.MustPrincipal(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, res)
}

// Workspaces handles GET /auth/workspaces.
func (h *Handler) Workspaces(c *gin.Context) {
	list, err := h.svc.Workspaces(c.Request.Context(), reqctx.MustPrincipal(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, list)
}

// Onboarding handles POST /auth/onboarding.
func (h *Handler) Onboarding(c *gin.Context) {
	req := validation.BodyOf[OnboardingRequest](c)
	res, err := h.svc.CompleteOnboarding(c.Request.Context(), reqctx.MustPrincipal(c).UserID, req.WorkspaceName, req.Slug)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, "onboarding completed successfully", res)
}
