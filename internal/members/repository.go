package members

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicflow/backend/internal/models"
)

const detailQuery = `SELECT m.id, m.user_id, u.nome, u.sobrenome, u.email, u.avatar_url, u.especialidade, u.crm,
		m.role, m.data_entrada, m.ativo, m.convidado_por
	FROM workspace_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.workspace_id = $1`

// Repository reads memberships and calls the membership procedures.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a member repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanDetail(row pgx.Row) (models.MemberDetail, error) {
	var d models.MemberDetail
	err := row.Scan(&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Email, &d.AvatarURL, &d.Specialty, &d.CRM,
		&d.Role, &d.JoinedAt, &d.Active, &d.InvitedBy)
	return d, err
}

// List returns every member of a workspace, newest first.
func (r *Repository) List(ctx context.Context, workspaceID uuid.UUID) ([]models.MemberDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+` ORDER BY m.data_entrada DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.MemberDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// Get returns one member of a workspace.
func (r *Repository) Get(ctx context.Context, workspaceID, memberID uuid.UUID) (*models.MemberDetail, error) {
	d, err := scanDetail(r.pool.QueryRow(ctx, detailQuery+` AND m.id = $2`, workspaceID, memberID))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Invite adds the user registered under email and returns the new membership id.
func (r *Repository) Invite(ctx context.Context, workspaceID, actorID uuid.UUID, email string, role models.Role) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM invite_member($1, $2, $3, $4)`,
		workspaceID, actorID, email, string(role)).Scan(&id)
	return id, err
}

// UpdateRole changes a member's role.
func (r *Repository) UpdateRole(ctx context.Context, workspaceID, actorID, memberID uuid.UUID, role models.Role) error {
	_, err := r.pool.Exec(ctx, `SELECT update_member_role($1, $2, $3, $4)`,
		workspaceID, actorID, memberID, string(role))
	return err
}

// Remove deletes a membership.
func (r *Repository) Remove(ctx context.Context, workspaceID, actorID, memberID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `SELECT remove_member($1, $2, $3)`, workspaceID, actorID, memberID)
	return err
}
