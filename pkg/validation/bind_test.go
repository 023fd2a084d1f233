package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
	"github.com/clinicflow/backend/pkg/response"
)

type signupBody struct {
	Name     string `json:"nome" normalize:"trim" validate:"required,min=2,max=100"`
	Email    string `json:"email" normalize:"trim,lower" validate:"required,email"`
	Password string `json:"senha" validate:"required,min=8,max=100,strongpassword"`
}

type slugParams struct {
	Slug string `uri:"slug" validate:"required,min=3,slug"`
}

type listQuery struct {
	pagination.Params
	Search *string `form:"search" normalize:"trim" validate:"omitempty,min=1,max=100"`
}

type rangeQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

func (q rangeQuery) Check() []apperror.FieldError {
	if q.From != "" && q.To != "" && q.To < q.From {
		return []apperror.FieldError{{Field: "to", Message: "to must not be before from"}}
	}
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			response.Render(c, c.Errors.Last().Err)
		}
	})
	r.POST("/:slug/signup", Validate(Params[slugParams](), Body[signupBody]()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"slug": ParamsOf[slugParams](c).Slug, "body": BodyOf[signupBody](c)})
	})
	r.GET("/items", Validate(Query[listQuery]()), func(c *gin.Context) {
		c.JSON(http.StatusOK, QueryOf[listQuery](c))
	})
	r.GET("/range", Validate(Query[rangeQuery]()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, req)
	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func fields(t *testing.T, out map[string]interface{}) []string {
	t.Helper()
	details, ok := out["details"].([]interface{})
	require.True(t, ok, "details missing: %v", out)
	var names []string
	for _, d := range details {
		names = append(names, d.(map[string]interface{})["campo"].(string))
	}
	return names
}

func TestValidateNormalizesBody(t *testing.T) {
	w, out := do(t, http.MethodPost, "/clinica-x/signup", `{"nome":"  Ana ","email":" ANA@Example.COM ","senha":"Secret123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := out["body"].(map[string]interface{})
	assert.Equal(t, "Ana", body["nome"])
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, "clinica-x", out["slug"])
}

func TestValidateCollectsErrorsAcrossSections(t *testing.T) {
	w, out := do(t, http.MethodPost, "/Bad_Slug/signup", `{"nome":"A","email":"nope","senha":"weakpassword"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", out["status"])
	assert.ElementsMatch(t, []string{"slug", "nome", "email", "senha"}, fields(t, out))
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	w, out := do(t, http.MethodPost, "/clinica-x/signup", `{"nome":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"body"}, fields(t, out))
}

func TestValidateEmptyBodyReportsRequiredFields(t *testing.T) {
	w, out := do(t, http.MethodPost, "/clinica-x/signup", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"nome", "email", "senha"}, fields(t, out))
}

func TestQueryDefaults(t *testing.T) {
	w, out := do(t, http.MethodGet, "/items", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["Page"])
	assert.EqualValues(t, 10, out["Limit"])
	assert.Nil(t, out["Search"])
}

func TestQueryRejectsOutOfRangeAndNonNumeric(t *testing.T) {
	w, out := do(t, http.MethodGet, "/items?page=0&limit=101", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"page", "limit"}, fields(t, out))

	w, out = do(t, http.MethodGet, "/items?page=abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"page"}, fields(t, out))
}

func TestQueryChecker(t *testing.T) {
	w, _ := do(t, http.MethodGet, "/range?from=2024-02-01&to=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, http.MethodGet, "/range?from=2024-01-01&to=2024-02-01", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
