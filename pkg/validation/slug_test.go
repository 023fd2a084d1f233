package validation

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/backend/pkg/apperror"
)

func TestWorkspaceSlug(t *testing.T) {
	tests := []struct {
		name, slug string
		want       string
	}{
		{"Clínica São José", "", "clinica-sao-jose"},
		{"Clinica X", "minha-clinica", "minha-clinica"},
		{"Abc", "", "abc"},
		{strings.Repeat("consultorio ", 10), "", "consultorio-consultorio-consultorio-consultorio"},
	}
	for _, tt := range tests {
		got, err := WorkspaceSlug(tt.name, tt.slug)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
		assert.LessOrEqual(t, len(got), SlugMaxLen)
	}
}

func TestWorkspaceSlugRejectsUnusable(t *testing.T) {
	for _, tc := range []struct{ name, slug string }{
		{"!!!", ""},
		{"Ab.", ""},
		{"診療所", ""},
		{"", ""},
		{"Clinica X", "ab"},
		{"Clinica X", "Bad Slug"},
		{"Clinica X", strings.Repeat("a", SlugMaxLen+1)},
	} {
		_, err := WorkspaceSlug(tc.name, tc.slug)
		require.Error(t, err, tc)
		e, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, e.Status)
		require.Len(t, e.Details, 1)
		assert.Equal(t, "slug", e.Details[0].Field)
	}
}
