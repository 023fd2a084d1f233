package workspaces

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/pkg/apperror"
)

type memoryStore struct {
	workspaces   map[uuid.UUID]*models.Workspace
	members      []models.Member
	addMemberErr error
	createErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{workspaces: map[uuid.UUID]*models.Workspace{}}
}

func (m *memoryStore) GetBySlug(_ context.Context, slug string) (*models.Workspace, error) {
	for _, w := range m.workspaces {
		if w.Slug == slug {
			return w, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryStore) GetMembership(_ context.Context, workspaceID, userID uuid.UUID) (*models.Member, error) {
	for i := range m.members {
		if m.members[i].WorkspaceID == workspaceID && m.members[i].UserID == userID {
			return &m.members[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryStore) SlugTaken(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	for id, w := range m.workspaces {
		if w.Slug == slug && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Create(_ context.Context, w *models.Workspace) error {
	if m.createErr != nil {
		return m.createErr
	}
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	m.workspaces[w.ID] = w
	return nil
}

func (m *memoryStore) AddMember(_ context.Context, workspaceID, userID uuid.UUID, role models.Role) error {
	if m.addMemberErr != nil {
		return m.addMemberErr
	}
	m.members = append(m.members, models.Member{ID: uuid.New(), WorkspaceID: workspaceID, UserID: userID, Role: role, Active: true})
	return nil
}

func (m *memoryStore) Update(_ context.Context, id uuid.UUID, p UpdateParams) (*models.Workspace, error) {
	w, ok := m.workspaces[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Slug != nil {
		w.Slug = *p.Slug
	}
	if p.Plan != nil {
		w.Plan = *p.Plan
	}
	return w, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.workspaces[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.workspaces, id)
	return nil
}

func (m *memoryStore) Counts(_ context.Context, id uuid.UUID) (Counts, error) {
	n := 0
	for _, mem := range m.members {
		if mem.WorkspaceID == id && mem.Active {
			n++
		}
	}
	return Counts{Members: n}, nil
}

func TestCreateDerivesSlugAndAddsAdmin(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, zap.NewNop())
	owner := uuid.New()

	ws, err := svc.Create(context.Background(), owner, "Clínica X", "")
	require.NoError(t, err)
	assert.Equal(t, "clinica-x", ws.Slug)
	assert.Equal(t, models.SubscriptionTrial, ws.SubscriptionStatus)
	assert.Equal(t, models.DefaultPlan, ws.Plan)
	assert.Equal(t, owner, ws.OwnerID)

	member, err := store.GetMembership(context.Background(), ws.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)

	_, err = svc.Create(context.Background(), owner, "Clinica X", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	assert.EqualError(t, err, "slug already in use")
}

func TestCreateRejectsUnusableDerivedSlug(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, zap.NewNop())

	for _, name := range []string{"!!!", "Ab.", "診療所"} {
		_, err := svc.Create(context.Background(), uuid.New(), name, "")
		require.Error(t, err, name)
		e, ok := apperror.As(err)
		require.True(t, ok, name)
		assert.Equal(t, http.StatusBadRequest, e.Status, name)
		require.Len(t, e.Details, 1, name)
		assert.Equal(t, "slug", e.Details[0].Field)
	}
	assert.Empty(t, store.workspaces)

	ws, err := svc.Create(context.Background(), uuid.New(), "診療所", "shinryojo")
	require.NoError(t, err)
	assert.Equal(t, "shinryojo", ws.Slug)
}

func TestCreateSlugRaceIsAConflict(t *testing.T) {
	store := newMemoryStore()
	store.createErr = &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "workspaces_slug_key",
		Message:        `duplicate key value violates unique constraint "workspaces_slug_key"`,
	}
	svc := NewService(store, zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), "Clinica Z", "")
	require.Error(t, err)
	e, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "slug already in use", e.Message)
	assert.Empty(t, store.members)
}

func TestCreateCompensatesWhenMembershipFails(t *testing.T) {
	store := newMemoryStore()
	store.addMemberErr = errors.New("insert failed")
	svc := NewService(store, zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), "Clinica Y", "clinica-y")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.StatusOf(err))
	assert.Empty(t, store.workspaces)
}

func TestGet(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, zap.NewNop())
	owner := uuid.New()
	ws, err := svc.Create(context.Background(), owner, "Clinica Z", "")
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), ws.Slug, owner)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, detail.Role)
	assert.Equal(t, 1, detail.Members)

	_, err = svc.Get(context.Background(), ws.Slug, uuid.New())
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	_, err = svc.Get(context.Background(), "missing", owner)
	assert.Equal(t, http.StatusNotFound, apperror.StatusOf(err))
}

func TestUpdateRejectsTakenSlug(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, zap.NewNop())
	owner := uuid.New()
	first, err := svc.Create(context.Background(), owner, "Clinica A", "")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), owner, "Clinica B", "")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), second.ID, UpdateParams{Slug: &first.Slug})
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	own := second.Slug
	plan := "pro"
	updated, err := svc.Update(context.Background(), second.ID, UpdateParams{Slug: &own, Plan: &plan})
	require.NoError(t, err)
	assert.Equal(t, "pro", updated.Plan)
}

func TestDeleteRequiresOwner(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, zap.NewNop())
	owner := uuid.New()
	ws, err := svc.Create(context.Background(), owner, "Clinica D", "")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), ws.ID, ws.OwnerID, uuid.New())
	assert.Equal(t, http.StatusForbidden, apperror.StatusOf(err))

	require.NoError(t, svc.Delete(context.Background(), ws.ID, ws.OwnerID, owner))
	assert.Empty(t, store.workspaces)
}
