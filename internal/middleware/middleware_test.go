package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/identity"
	"github.com/clinicflow/backend/internal/models"
	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	principals map[string]*identity.Principal
	err        error
	calls      int
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*identity.Principal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return p, nil
}

type stubOnboarding bool

func (s stubOnboarding) IsOnboarded(context.Context, uuid.UUID) (bool, error) { return bool(s), nil }

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	handlers = append(handlers, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/target", handlers...)
	return r
}

func serve(t *testing.T, r *gin.Engine, header string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/target", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func withScope(role models.Role, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqctx.SetScope(c, reqctx.Scope{
			Principal:   reqctx.Principal{UserID: userID},
			WorkspaceID: uuid.New(),
			Role:        role,
		})
		c.Next()
	}
}

func TestAuthenticateRejectsBeforeCallingProvider(t *testing.T) {
	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"no token":     "Bearer ",
		"lowercase":    "bearer abc",
	} {
		t.Run(name, func(t *testing.T) {
			v := &stubVerifier{}
			reached := false
			r := newEngine(Authenticate(v, zap.NewNop()), func(c *gin.Context) { reached = true })

			code, body := serve(t, r, header)

			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "error", body["status"])
			assert.Zero(t, v.calls)
			assert.False(t, reached)
		})
	}
}

func TestAuthenticateRejectsProviderFailures(t *testing.T) {
	v := &stubVerifier{err: identity.ErrTokenRevoked}
	code, _ := serve(t, newEngine(Authenticate(v, zap.NewNop())), "Bearer revoked")
	assert.Equal(t, http.StatusUnauthorized, code)

	v = &stubVerifier{principals: map[string]*identity.Principal{}}
	code, _ = serve(t, newEngine(Authenticate(v, zap.NewNop())), "Bearer unknown")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthenticateHidesBackendFailure(t *testing.T) {
	v := &stubVerifier{err: errors.New("redis: connection refused")}
	code, body := serve(t, newEngine(Authenticate(v, zap.NewNop())), "Bearer abc")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "failed to verify token", body["message"])
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	id := uuid.New()
	v := &stubVerifier{principals: map[string]*identity.Principal{"good": {ID: id, Email: "ana@x.com"}}}
	var got reqctx.Principal
	r := newEngine(Authenticate(v, zap.NewNop()), func(c *gin.Context) { got = reqctx.MustPrincipal(c) })

	code, _ := serve(t, r, "Bearer good")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, got.UserID)
	assert.Equal(t, "ana@x.com", got.Email)
	assert.Equal(t, "good", got.Token)
}

func TestRequireProfessional(t *testing.T) {
	code, body := serve(t, newEngine(withScope(models.RoleStaff, uuid.New()), RequireProfessional()), "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "access denied; allowed roles: ADMIN, PROFESSIONAL", body["message"])

	code, _ = serve(t, newEngine(withScope(models.RoleProfessional, uuid.New()), RequireProfessional()), "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = serve(t, newEngine(withScope(models.RoleAdmin, uuid.New()), RequireProfessional()), "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRequireRoleWithoutScope(t *testing.T) {
	code, _ := serve(t, newEngine(RequireAdmin()), "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRequireOwnership(t *testing.T) {
	owner := uuid.New()
	ownerOf := func(*gin.Context, reqctx.Scope) (uuid.UUID, error) { return owner, nil }

	code, _ := serve(t, newEngine(withScope(models.RoleProfessional, owner), RequireOwnership(ownerOf)), "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = serve(t, newEngine(withScope(models.RoleProfessional, uuid.New()), RequireOwnership(ownerOf)), "")
	assert.Equal(t, http.StatusForbidden, code)

	called := false
	adminBypass := func(*gin.Context, reqctx.Scope) (uuid.UUID, error) { called = true; return owner, nil }
	code, _ = serve(t, newEngine(withScope(models.RoleAdmin, uuid.New()), RequireOwnership(adminBypass)), "")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, called)

	missing := func(*gin.Context, reqctx.Scope) (uuid.UUID, error) { return uuid.Nil, apperror.NotFound("consultation not found") }
	code, _ = serve(t, newEngine(withScope(models.RoleProfessional, owner), RequireOwnership(missing)), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOnboardingGates(t *testing.T) {
	principal := func(c *gin.Context) {
		reqctx.SetPrincipal(c, reqctx.Principal{UserID: uuid.New()})
		c.Next()
	}

	code, _ := serve(t, newEngine(principal, RequireOnboardingComplete(stubOnboarding(false))), "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = serve(t, newEngine(principal, RequireOnboardingComplete(stubOnboarding(true))), "")
	assert.Equal(t, http.StatusOK, code)

	code, body := serve(t, newEngine(principal, RequireOnboardingPending(stubOnboarding(true))), "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "onboarding already completed", body["message"])
	code, _ = serve(t, newEngine(principal, RequireOnboardingPending(stubOnboarding(false))), "")
	assert.Equal(t, http.StatusOK, code)
}

func TestErrorHandlerHidesUntypedErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/target", func(c *gin.Context) { _ = c.Error(errors.New("pq: secret detail")) })

	code, body := serve(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body["message"])
}

func TestRecoveryRendersEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), ErrorHandler(zap.NewNop()))
	r.GET("/target", func(c *gin.Context) {
		scope := reqctx.MustScope(c)
		c.JSON(http.StatusOK, scope)
	})

	code, body := serve(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "internal server error", body["message"])
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/target", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/target", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
