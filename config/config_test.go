package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("API_PREFIX", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_EXPIRE_HOURS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, "/api", cfg.Server.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, 30*time.Minute, cfg.App.ResetTokenTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PREFIX", "v1/")
	t.Setenv("DATABASE_URL", "postgres://db:5432/clinic")
	t.Setenv("JWT_EXPIRE_HOURS", "2")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/v1", cfg.Server.APIPrefix)
	assert.Equal(t, "postgres://db:5432/clinic", cfg.Database.DSN())
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
}

func TestDSNFromComponents(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", DBName: "clinic", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/clinic?sslmode=disable", c.DSN())
}

func TestNormalizePrefix(t *testing.T) {
	for in, want := range map[string]string{"": "", "/": "", "api": "/api", "/api/": "/api", " /v2 ": "/v2"} {
		assert.Equal(t, want, normalizePrefix(in), in)
	}
}
