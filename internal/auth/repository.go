package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicflow/backend/internal/models"
)

const userColumns = `id, nome, sobrenome, nome_completo, email, avatar_url, telefone, especialidade, crm,
	ativo, onboarding, created_at, updated_at`

// Repository reads user profiles and calls the profile and onboarding procedures.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.FullName, &u.Email, &u.AvatarURL, &u.Phone,
		&u.Specialty, &u.CRM, &u.Active, &u.Onboarded, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertProfile writes the profile row of a freshly registered principal.
func (r *Repository) UpsertProfile(ctx context.Context, userID uuid.UUID, email, firstName, lastName string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM upsert_user_profile($1, $2, $3, $4)`, userID, email, firstName, lastName))
}

// GetUser returns a user profile by id.
func (r *Repository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// IsOnboarded reports whether the user finished onboarding. Unknown users are not onboarded.
func (r *Repository) IsOnboarded(ctx context.Context, userID uuid.UUID) (bool, error) {
	var done bool
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE((SELECT onboarding FROM users WHERE id = $1), FALSE)`, userID).Scan(&done)
	return done, err
}

// ListWorkspaces returns the workspaces where the user is an active member.
func (r *Repository) ListWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceMembership, error) {
	const q = `SELECT w.id, w.slug, w.nome, w.owner_id, w.status_assinatura, w.plano_assinatura, w.created_at, w.updated_at,
		m.role, m.data_entrada
		FROM workspace_members m JOIN workspaces w ON w.id = m.workspace_id
		WHERE m.user_id = $1 AND m.ativo
		ORDER BY m.data_entrada`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.WorkspaceMembership{}
	for rows.Next() {
		var w models.WorkspaceMembership
		if err := rows.Scan(&w.ID, &w.Slug, &w.Name, &w.OwnerID, &w.SubscriptionStatus, &w.Plan, &w.CreatedAt, &w.UpdatedAt,
			&w.Role, &w.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// CompleteOnboarding creates the first workspace of the user and flips the onboarding flag.
func (r *Repository) CompleteOnboarding(ctx context.Context, userID uuid.UUID, name, slug string) (*models.Workspace, error) {
	var w models.Workspace
	err := r.pool.QueryRow(ctx,
		`SELECT id, slug, nome, owner_id, status_assinatura, plano_assinatura, created_at, updated_at
		FROM complete_onboarding($1, $2, $3)`, userID, name, slug).
		Scan(&w.ID, &w.Slug, &w.Name, &w.OwnerID, &w.SubscriptionStatus, &w.Plan, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
