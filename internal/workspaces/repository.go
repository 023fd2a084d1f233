package workspaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicflow/backend/internal/models"
)

const workspaceColumns = `id, slug, nome, owner_id, status_assinatura, plano_assinatura, created_at, updated_at`

// Repository handles workspace and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a workspace repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var w models.Workspace
	if err := row.Scan(&w.ID, &w.Slug, &w.Name, &w.OwnerID, &w.SubscriptionStatus, &w.Plan, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetBySlug returns a workspace by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	return scanWorkspace(r.pool.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE slug = $1`, slug))
}

// GetMembership returns the membership of userID in workspaceID.
func (r *Repository) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Member, error) {
	const q = `SELECT id, workspace_id, user_id, role, convidado_por, data_entrada, ativo
		FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`
	var m models.Member
	err := r.pool.QueryRow(ctx, q, workspaceID, userID).
		Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.InvitedBy, &m.JoinedAt, &m.Active)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SlugTaken reports whether slug belongs to a workspace other than exclude.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM workspaces WHERE slug = $1 AND id <> $2)`, slug, exclude).Scan(&taken)
	return taken, err
}

// Create inserts a workspace and fills its generated fields.
func (r *Repository) Create(ctx context.Context, w *models.Workspace) error {
	const q = `INSERT INTO workspaces (slug, nome, owner_id, status_assinatura, plano_assinatura)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, w.Slug, w.Name, w.OwnerID, w.SubscriptionStatus, w.Plan).
		Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// AddMember inserts an active membership.
func (r *Repository) AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role models.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role, ativo) VALUES ($1, $2, $3, TRUE)`,
		workspaceID, userID, role)
	return err
}

// Update applies non-nil fields and returns the updated workspace.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Workspace, error) {
	const q = `UPDATE workspaces SET
			nome = COALESCE($2, nome),
			slug = COALESCE($3, slug),
			plano_assinatura = COALESCE($4, plano_assinatura),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workspaceColumns
	return scanWorkspace(r.pool.QueryRow(ctx, q, id, p.Name, p.Slug, p.Plan))
}

// Delete removes a workspace; members, patients and consultations cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Counts returns active members, patients and consultations of a workspace.
func (r *Repository) Counts(ctx context.Context, id uuid.UUID) (Counts, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM workspace_members WHERE workspace_id = $1 AND ativo),
		(SELECT COUNT(*) FROM patients WHERE workspace_id = $1),
		(SELECT COUNT(*) FROM consultations WHERE workspace_id = $1)`
	var c Counts
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.Members, &c.Patients, &c.Consultations)
	return c, err
}
