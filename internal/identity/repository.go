package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository stores credentials in auth_users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a credentials repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateCredentials inserts an email/password pair and returns the new user id.
func (r *Repository) CreateCredentials(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	const q = `INSERT INTO auth_users (email, password_hash) VALUES ($1, $2) RETURNING id`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, q, email, passwordHash).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return uuid.Nil, ErrEmailTaken
	}
	return id, err
}

// DeleteCredentials removes a user's credentials (and, by cascade, the profile).
func (r *Repository) DeleteCredentials(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, userID)
	return err
}

// CredentialsByEmail returns the credentials for email or pgx.ErrNoRows.
func (r *Repository) CredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	const q = `SELECT id, email, password_hash FROM auth_users WHERE email = $1`
	var c Credentials
	if err := r.pool.QueryRow(ctx, q, email).Scan(&c.UserID, &c.Email, &c.PasswordHash); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdatePasswordHash replaces a user's password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE auth_users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
