package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Clínica X":                 "clinica-x",
		"  São João  Saúde ":        "sao-joao-saude",
		"Centro Médico -- Ação!":    "centro-medico-acao",
		"Odonto_Plus 24h":           "odontoplus-24h",
		"Consultório Dr. Ângelo":    "consultorio-dr-angelo",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestPasswordHash(t *testing.T) {
	hashed, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hashed)
	assert.True(t, CheckPassword("Secret123", hashed))
	assert.False(t, CheckPassword("secret123", hashed))
}
