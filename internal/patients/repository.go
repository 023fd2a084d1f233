package patients

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/pagination"
)

const patientColumns = `id, workspace_id, nome, data_nascimento::text, cpf, telefone, email, endereco, observacoes,
	created_by, created_at, updated_at`

// Repository reads patients and calls the patient procedures.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a patient repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPatient(row pgx.Row) (*models.Patient, error) {
	var p models.Patient
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.BirthDate, &p.CPF, &p.Phone, &p.Email, &p.Address, &p.Notes,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// likePattern matches term anywhere, treating LIKE wildcards in term literally.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// List returns one page of patients, newest first, optionally filtered by
// name or national id, plus the total number of matches.
func (r *Repository) List(ctx context.Context, workspaceID uuid.UUID, search string, page pagination.Params) ([]models.Patient, int, error) {
	where := `workspace_id = $1`
	args := []interface{}{workspaceID}
	if search != "" {
		where += ` AND (nome ILIKE $2 OR cpf ILIKE $2)`
		args = append(args, likePattern(search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	q := `SELECT ` + patientColumns + ` FROM patients WHERE ` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.pool.Query(ctx, q, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := []models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

// Search returns up to limit patients whose name or national id contains term.
func (r *Repository) Search(ctx context.Context, workspaceID uuid.UUID, term string, limit int) ([]models.PatientSummary, error) {
	const q = `SELECT id, nome, cpf, data_nascimento::text, telefone FROM patients
		WHERE workspace_id = $1 AND (nome ILIKE $2 OR cpf ILIKE $2)
		ORDER BY nome LIMIT $3`
	rows, err := r.pool.Query(ctx, q, workspaceID, likePattern(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PatientSummary{}
	for rows.Next() {
		var s models.PatientSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CPF, &s.BirthDate, &s.Phone); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Get returns a patient of the workspace.
func (r *Repository) Get(ctx context.Context, workspaceID, id uuid.UUID) (*models.Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
}

// ConsultationStats returns how many consultations a patient has and the latest one.
func (r *Repository) ConsultationStats(ctx context.Context, patientID uuid.UUID) (int, *models.ConsultationSummary, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultations WHERE paciente_id = $1`, patientID).Scan(&count); err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var last models.ConsultationSummary
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, iniciada_em FROM consultations WHERE paciente_id = $1 ORDER BY iniciada_em DESC LIMIT 1`,
		patientID).Scan(&last.ID, &last.Status, &last.StartedAt)
	if err != nil {
		return 0, nil, err
	}
	return count, &last, nil
}

// Create calls create_patient.
func (r *Repository) Create(ctx context.Context, workspaceID, actorID uuid.UUID, in Input) (*models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM create_patient($1, $2, $3, $4::date, $5, $6, $7, $8, $9)`
	return scanPatient(r.pool.QueryRow(ctx, q, workspaceID, actorID,
		in.Name, in.BirthDate, in.CPF, in.Phone, in.Email, in.Address, in.Notes))
}

// Update calls update_patient; nil fields keep their value.
func (r *Repository) Update(ctx context.Context, workspaceID, actorID, id uuid.UUID, in Input) (*models.Patient, error) {
	q := `SELECT ` + patientColumns + ` FROM update_patient($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10)`
	return scanPatient(r.pool.QueryRow(ctx, q, workspaceID, actorID, id,
		in.Name, in.BirthDate, in.CPF, in.Phone, in.Email, in.Address, in.Notes))
}

// Delete calls delete_patient.
func (r *Repository) Delete(ctx context.Context, workspaceID, actorID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `SELECT delete_patient($1, $2, $3)`, workspaceID, actorID, id)
	return err
}
