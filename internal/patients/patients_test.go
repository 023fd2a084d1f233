package patients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/middleware"
	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
	"github.com/clinicflow/backend/pkg/validation"
)

type memoryStore struct {
	patients      []models.Patient
	consultations map[uuid.UUID]int
	searchTerms   []string
}

func (m *memoryStore) matching(workspaceID uuid.UUID, term string) []models.Patient {
	var out []models.Patient
	for _, p := range m.patients {
		if p.WorkspaceID != workspaceID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memoryStore) List(_ context.Context, workspaceID uuid.UUID, search string, page pagination.Params) ([]models.Patient, int, error) {
	all := m.matching(workspaceID, search)
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memoryStore) Search(_ context.Context, workspaceID uuid.UUID, term string, limit int) ([]models.PatientSummary, error) {
	m.searchTerms = append(m.searchTerms, term)
	out := []models.PatientSummary{}
	for _, p := range m.matching(workspaceID, term) {
		if len(out) == limit {
			break
		}
		out = append(out, models.PatientSummary{ID: p.ID, Name: p.Name})
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, workspaceID, id uuid.UUID) (*models.Patient, error) {
	for i := range m.patients {
		if m.patients[i].ID == id && m.patients[i].WorkspaceID == workspaceID {
			return &m.patients[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryStore) ConsultationStats(_ context.Context, id uuid.UUID) (int, *models.ConsultationSummary, error) {
	n := m.consultations[id]
	if n == 0 {
		return 0, nil, nil
	}
	return n, &models.ConsultationSummary{ID: uuid.New(), Status: models.ConsultationCompleted}, nil
}

func (m *memoryStore) Create(_ context.Context, workspaceID, actorID uuid.UUID, in Input) (*models.Patient, error) {
	for _, p := range m.patients {
		if in.CPF != nil && p.CPF != nil && *p.CPF == *in.CPF && p.WorkspaceID == workspaceID {
			return nil, &pgconn.PgError{Message: "national id already registered in this workspace"}
		}
	}
	p := models.Patient{
		ID: uuid.New(), WorkspaceID: workspaceID, Name: *in.Name, CPF: in.CPF, Email: in.Email,
		CreatedBy: &actorID, CreatedAt: time.Now(),
	}
	m.patients = append(m.patients, p)
	return &p, nil
}

func (m *memoryStore) Update(_ context.Context, workspaceID, _ uuid.UUID, id uuid.UUID, in Input) (*models.Patient, error) {
	p, err := m.Get(context.Background(), workspaceID, id)
	if err != nil {
		return nil, &pgconn.PgError{Message: "patient not found"}
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	return p, nil
}

func (m *memoryStore) Delete(_ context.Context, workspaceID, _ uuid.UUID, id uuid.UUID) error {
	if n := m.consultations[id]; n > 0 {
		return &pgconn.PgError{Message: fmt.Sprintf("patient has %d consultation(s) and cannot be deleted", n)}
	}
	for i, p := range m.patients {
		if p.ID == id && p.WorkspaceID == workspaceID {
			m.patients = append(m.patients[:i], m.patients[i+1:]...)
			return nil
		}
	}
	return &pgconn.PgError{Message: "patient not found"}
}

func seed(ws uuid.UUID, n int) *memoryStore {
	store := &memoryStore{consultations: map[uuid.UUID]int{}}
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		store.patients = append(store.patients, models.Patient{
			ID:          uuid.New(),
			WorkspaceID: ws,
			Name:        fmt.Sprintf("Paciente %02d", i+1),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return store
}

type listBody struct {
	Data       []models.Patient `json:"data"`
	Pagination pagination.Meta  `json:"pagination"`
}

func newRouter(store *memoryStore, ws uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(store, zap.NewNop()))
	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))
	scope := func(c *gin.Context) {
		reqctx.SetScope(c, reqctx.Scope{WorkspaceID: ws, Role: models.RoleProfessional})
		c.Next()
	}
	r.GET("/patients", scope, validation.Validate(validation.Query[ListQuery]()), h.List)
	r.GET("/patients/search", scope, validation.Validate(validation.Query[SearchQuery]()), h.Search)
	return r
}

func getList(t *testing.T, r *gin.Engine, url string) (int, listBody) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	var body listBody
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

func TestListPagination(t *testing.T) {
	ws := uuid.New()
	r := newRouter(seed(ws, 25), ws)

	code, body := getList(t, r, "/patients?page=1&limit=10")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body.Data, 10)
	assert.Equal(t, pagination.Meta{Total: 25, Page: 1, Limit: 10, TotalPages: 3}, body.Pagination)
	assert.Equal(t, "Paciente 25", body.Data[0].Name)

	_, body = getList(t, r, "/patients?page=3&limit=10")
	assert.Len(t, body.Data, 5)
	assert.Equal(t, 3, body.Pagination.Page)

	_, body = getList(t, r, "/patients")
	assert.Len(t, body.Data, 10)
	assert.Equal(t, 10, body.Pagination.Limit)
}

func TestListRejectsBadPaging(t *testing.T) {
	ws := uuid.New()
	r := newRouter(seed(ws, 3), ws)

	for _, url := range []string{
		"/patients?limit=101",
		"/patients?page=0",
		"/patients?page=abc",
		"/patients?page=100001",
		"/patients?page=9223372036854775807",
	} {
		code, _ := getList(t, r, url)
		assert.Equal(t, http.StatusBadRequest, code, url)
	}
}

func TestListSearchIsScopedToWorkspace(t *testing.T) {
	ws := uuid.New()
	store := seed(ws, 12)
	store.patients = append(store.patients, models.Patient{ID: uuid.New(), WorkspaceID: uuid.New(), Name: "Paciente 01 outro"})
	r := newRouter(store, ws)

	_, body := getList(t, r, "/patients?search=paciente%2001")
	assert.Equal(t, 1, body.Pagination.Total)
}

func TestSearch(t *testing.T) {
	ws := uuid.New()
	store := seed(ws, 15)
	r := newRouter(store, ws)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/search?q=p", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	assert.Empty(t, store.searchTerms)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/search?q=PAC", nil))
	var body struct {
		Data []models.PatientSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 10)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/search", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDuplicateCPF(t *testing.T) {
	ws := uuid.New()
	svc := NewService(seed(ws, 0), zap.NewNop())
	name, cpf := "Ana Souza", "123.456.789-00"

	_, err := svc.Create(context.Background(), ws, uuid.New(), Input{Name: &name, CPF: &cpf})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), ws, uuid.New(), Input{Name: &name, CPF: &cpf})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestCreateStoresBlankOptionalsAsNull(t *testing.T) {
	ws := uuid.New()
	store := seed(ws, 0)
	svc := NewService(store, zap.NewNop())
	name, empty := "Bruno Lima", ""

	p, err := svc.Create(context.Background(), ws, uuid.New(), Input{Name: &name, CPF: &empty, Email: &empty})
	require.NoError(t, err)
	assert.Nil(t, p.CPF)
	assert.Nil(t, p.Email)
}

func TestGetDetailAndDelete(t *testing.T) {
	ws := uuid.New()
	store := seed(ws, 2)
	svc := NewService(store, zap.NewNop())
	withHistory := store.patients[0].ID
	store.consultations[withHistory] = 2

	detail, err := svc.Get(context.Background(), ws, withHistory)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.ConsultationsCount)
	require.NotNil(t, detail.LastConsultation)

	_, err = svc.Get(context.Background(), uuid.New(), withHistory)
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))

	err = svc.Delete(context.Background(), ws, uuid.New(), withHistory)
	require.Error(t, err)
	e, _ := apperror.As(err)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "patient has 2 consultation(s) and cannot be deleted", e.Message)

	require.NoError(t, svc.Delete(context.Background(), ws, uuid.New(), store.patients[1].ID))
	err = svc.Delete(context.Background(), ws, uuid.New(), uuid.New())
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}
