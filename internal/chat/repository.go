package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/pagination"
)

const messageColumns = `id, consulta_id, user_id, tipo_mensagem, conteudo, audio_url, resposta_ia,
	COALESCE(metadata, '{}'::jsonb), created_at`

// Repository reads chat messages and calls create_chat_message.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanMessage(row pgx.Row, extra ...interface{}) (*models.ChatMessage, error) {
	var m models.ChatMessage
	dest := append([]interface{}{&m.ID, &m.ConsultationID, &m.UserID, &m.Type, &m.Content, &m.AudioURL,
		&m.AIResponse, &m.Metadata, &m.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &m, nil
}

// ConsultationExists reports whether the consultation belongs to the workspace.
func (r *Repository) ConsultationExists(ctx context.Context, workspaceID, consultationID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM consultations WHERE id = $1 AND workspace_id = $2)`,
		consultationID, workspaceID).Scan(&ok)
	return ok, err
}

// History returns one page of a consultation's messages, oldest first, with their authors.
func (r *Repository) History(ctx context.Context, consultationID uuid.UUID, page pagination.Params) ([]models.ChatMessage, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_messages WHERE consulta_id = $1`, consultationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT m.id, m.consulta_id, m.user_id, m.tipo_mensagem, m.conteudo, m.audio_url, m.resposta_ia,
		COALESCE(m.metadata, '{}'::jsonb), m.created_at, u.id, u.nome, u.sobrenome, u.avatar_url
		FROM chat_messages m LEFT JOIN users u ON u.id = m.user_id
		WHERE m.consulta_id = $1
		ORDER BY m.created_at ASC, m.id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, consultationID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.ChatMessage{}
	for rows.Next() {
		var (
			authorID  *uuid.UUID
			firstName *string
			author    models.UserSummary
		)
		m, err := scanMessage(rows, &authorID, &firstName, &author.LastName, &author.AvatarURL)
		if err != nil {
			return nil, 0, err
		}
		if authorID != nil {
			author.ID = *authorID
			if firstName != nil {
				author.FirstName = *firstName
			}
			m.Author = &author
		}
		list = append(list, *m)
	}
	return list, total, rows.Err()
}

// Last returns the newest message of a consultation, or nil when it has none.
func (r *Repository) Last(ctx context.Context, consultationID uuid.UUID) (*models.ChatMessage, error) {
	m, err := scanMessage(r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE consulta_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		consultationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// Create appends a message through create_chat_message.
func (r *Repository) Create(ctx context.Context, workspaceID, actorID uuid.UUID, p SendParams) (*models.ChatMessage, error) {
	return scanMessage(r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM create_chat_message($1, $2, $3, $4, $5, $6)`,
		workspaceID, actorID, p.ConsultationID, string(p.Type), p.Content, p.AudioURL))
}
