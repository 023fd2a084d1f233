package consultations

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/pagination"
)

const consultationColumns = `id, workspace_id, paciente_id, profissional_id, queixa_principal, status,
	iniciada_em, concluida_em, duracao_minutos, created_at, updated_at`

const listItemQuery = `SELECT c.id, c.workspace_id, c.paciente_id, c.profissional_id, c.queixa_principal, c.status,
		c.iniciada_em, c.concluida_em, c.duracao_minutos, c.created_at, c.updated_at,
		p.id, p.nome, p.cpf, p.data_nascimento::text, p.telefone,
		u.id, u.nome, u.sobrenome, u.especialidade, u.crm
	FROM consultations c
	JOIN patients p ON p.id = c.paciente_id
	JOIN users u ON u.id = c.profissional_id`

// Repository reads consultations and calls the consultation procedures.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a consultation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanConsultation(row pgx.Row) (*models.Consultation, error) {
	var c models.Consultation
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.PatientID, &c.ProfessionalID, &c.ChiefComplaint, &c.Status,
		&c.StartedAt, &c.CompletedAt, &c.DurationMinutes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanListItem(row pgx.Row) (models.ConsultationListItem, error) {
	var it models.ConsultationListItem
	c, p, u := &it.Consultation, &it.Patient, &it.Professional
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.PatientID, &c.ProfessionalID, &c.ChiefComplaint, &c.Status,
		&c.StartedAt, &c.CompletedAt, &c.DurationMinutes, &c.CreatedAt, &c.UpdatedAt,
		&p.ID, &p.Name, &p.CPF, &p.BirthDate, &p.Phone,
		&u.ID, &u.FirstName, &u.LastName, &u.Specialty, &u.CRM)
	return it, err
}

// List returns one page of consultations, most recently started first.
func (r *Repository) List(ctx context.Context, workspaceID uuid.UUID, f Filter, page pagination.Params) ([]models.ConsultationListItem, int, error) {
	where := ` WHERE c.workspace_id = $1`
	args := []interface{}{workspaceID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where += ` AND ` + cond + ` $` + strconv.Itoa(len(args))
	}
	if f.Status != nil {
		add(`c.status =`, string(*f.Status))
	}
	if f.PatientID != nil {
		add(`c.paciente_id =`, *f.PatientID)
	}
	if f.ProfessionalID != nil {
		add(`c.profissional_id =`, *f.ProfessionalID)
	}
	if f.From != nil {
		add(`c.iniciada_em >=`, *f.From)
	}
	if f.To != nil {
		add(`c.iniciada_em <`, f.To.AddDate(0, 0, 1))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultations c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	q := listItemQuery + where + ` ORDER BY c.iniciada_em DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.pool.Query(ctx, q, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.ConsultationListItem{}
	for rows.Next() {
		it, err := scanListItem(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, it)
	}
	return list, total, rows.Err()
}

// Get returns a consultation with its patient, professional, transcriptions and analyses.
func (r *Repository) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.ConsultationDetail, error) {
	it, err := scanListItem(r.pool.QueryRow(ctx, listItemQuery+` WHERE c.id = $1 AND c.workspace_id = $2`, id, workspaceID))
	if err != nil {
		return nil, err
	}
	d := &models.ConsultationDetail{
		ConsultationListItem: it,
		Transcriptions:       []models.Transcription{},
		AnalysisResults:      []models.AnalysisResult{},
	}

	rows, err := r.pool.Query(ctx, `SELECT id, texto_completo, audio_url, duracao_audio_segundos, idioma, confianca_score
		FROM transcriptions WHERE consulta_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t models.Transcription
		if err := rows.Scan(&t.ID, &t.FullText, &t.AudioURL, &t.AudioDurationSeconds, &t.Language, &t.ConfidenceScore); err != nil {
			rows.Close()
			return nil, err
		}
		d.Transcriptions = append(d.Transcriptions, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, diagnostico, exames_sugeridos, medicamentos_sugeridos, notas_clinicas, nivel_confianca, modelo_ia
		FROM analysis_results WHERE consulta_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.AnalysisResult
		if err := rows.Scan(&a.ID, &a.Diagnosis, &a.SuggestedExams, &a.SuggestedMedications, &a.ClinicalNotes, &a.ConfidenceLevel, &a.Model); err != nil {
			return nil, err
		}
		d.AnalysisResults = append(d.AnalysisResults, a)
	}
	return d, rows.Err()
}

// ProfessionalOf returns the professional responsible for a consultation.
func (r *Repository) ProfessionalOf(ctx context.Context, workspaceID, id uuid.UUID) (uuid.UUID, error) {
	var professional uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT profissional_id FROM consultations WHERE id = $1 AND workspace_id = $2`, id, workspaceID).Scan(&professional)
	return professional, err
}

// Create calls create_consultation.
func (r *Repository) Create(ctx context.Context, workspaceID, actorID, patientID uuid.UUID, complaint *string) (*models.Consultation, error) {
	return scanConsultation(r.pool.QueryRow(ctx,
		`SELECT `+consultationColumns+` FROM create_consultation($1, $2, $3, $4)`,
		workspaceID, actorID, patientID, complaint))
}

// Update calls update_consultation; nil fields keep their value.
func (r *Repository) Update(ctx context.Context, workspaceID, actorID, id uuid.UUID, p UpdateParams) (*models.Consultation, error) {
	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	return scanConsultation(r.pool.QueryRow(ctx,
		`SELECT `+consultationColumns+` FROM update_consultation($1, $2, $3, $4, $5, $6)`,
		workspaceID, actorID, id, p.ChiefComplaint, status, p.CompletedAt))
}

// Delete calls delete_consultation.
func (r *Repository) Delete(ctx context.Context, workspaceID, actorID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `SELECT delete_consultation($1, $2, $3)`, workspaceID, actorID, id)
	return err
}
