// Package identity issues and verifies sessions for email/password principals.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/pkg/utils"
)

var (
	ErrEmailTaken         = errors.New("user already registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// Principal is a verified caller.
type Principal struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"-"`
}

// Session is returned to clients after sign-up or sign-in.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Credentials is a stored email/password pair.
type Credentials struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
}

// CredentialStore persists credentials.
type CredentialStore interface {
	CreateCredentials(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	DeleteCredentials(ctx context.Context, userID uuid.UUID) error
	CredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// TokenStore tracks revoked access tokens and password-reset tokens.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	SaveResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

// Provider is the identity provider.
type Provider struct {
	creds    CredentialStore
	tokens   TokenStore
	jwt      *JWTService
	resetTTL time.Duration
	logger   *zap.Logger
}

// NewProvider creates an identity provider.
func NewProvider(creds CredentialStore, tokens TokenStore, jwt *JWTService, resetTTL time.Duration, logger *zap.Logger) *Provider {
	return &Provider{creds: creds, tokens: tokens, jwt: jwt, resetTTL: resetTTL, logger: logger}
}

// SignUp registers credentials and opens a session.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*Principal, *Session, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := p.creds.CreateCredentials(ctx, email, hash)
	if err != nil {
		return nil, nil, err
	}
	return p.open(id, email)
}

// DeleteUser removes credentials created by SignUp.
func (p *Provider) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return p.creds.DeleteCredentials(ctx, userID)
}

// SignIn checks a password and opens a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Principal, *Session, error) {
	c, err := p.creds.CredentialsByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !utils.CheckPassword(password, c.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	return p.open(c.UserID, c.Email)
}

// SignOut revokes token. Tokens that no longer validate are ignored.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.jwt.Validate(token)
	if err != nil {
		return nil
	}
	return p.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Verify returns the principal for a valid, unrevoked token.
func (p *Provider) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := p.jwt.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	revoked, err := p.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return &Principal{
		ID:        uuid.MustParse(claims.Subject),
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IssueResetToken creates a reset token for email. It returns "" without
// error when no account uses that email.
func (p *Provider) IssueResetToken(ctx context.Context, email string) (string, error) {
	c, err := p.creds.CredentialsByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token, err := newResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	if err := p.tokens.SaveResetToken(ctx, token, c.UserID, p.resetTTL); err != nil {
		return "", err
	}
	p.logger.Info("password reset requested", zap.String("user_id", c.UserID.String()))
	return token, nil
}

// ResetPassword consumes a reset token and stores the new password.
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := p.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.creds.UpdatePasswordHash(ctx, userID, hash)
}

func (p *Provider) open(userID uuid.UUID, email string) (*Principal, *Session, error) {
	token, expiresAt, err := p.jwt.Generate(userID, email)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}
	session := &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt.Unix(),
	}
	return &Principal{ID: userID, Email: email, ExpiresAt: expiresAt}, session, nil
}
