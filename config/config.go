package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
}

// AppConfig holds environment-wide settings.
type AppConfig struct {
	Env                  string // development, test or production
	ResetTokenTTLMinutes int
}

// IsProduction reports whether the app runs in production.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	APIPrefix          string
	ReadTimeout        int
	WriteTimeout       int
	ShutdownTimeout    int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL                    string // if set, used as-is
	Host                   string
	Port                   string
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxConns               int
	MaxConnLifetimeMinutes int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the chat audio bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	AudioBucket          string // empty disables audio uploads
	PresignExpireMinutes int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// MaxConnLifetime returns the pool connection lifetime.
func (c DatabaseConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMinutes) * time.Minute
}

// TTL returns the access token lifetime.
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpireHours) * time.Hour
}

// ResetTokenTTL returns the password-reset token lifetime.
func (c AppConfig) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMinutes) * time.Minute
}

const defaultJWTSecret = "change-me-in-production"

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		App: AppConfig{
			Env:                  getEnv("APP_ENV", "development"),
			ResetTokenTTLMinutes: getEnvInt("RESET_TOKEN_TTL_MINUTES", 30),
		},
		Server: ServerConfig{
			Port:               getEnv("PORT", "3000"),
			APIPrefix:          normalizePrefix(getEnv("API_PREFIX", "/api")),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			ShutdownTimeout:    getEnvInt("SHUTDOWN_TIMEOUT_SEC", 15),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL:                    getEnv("DATABASE_URL", ""),
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnv("DB_PORT", "5432"),
			User:                   getEnv("DB_USER", "postgres"),
			Password:               getEnv("DB_PASSWORD", "postgres"),
			DBName:                 getEnv("DB_NAME", "clinic"),
			SSLMode:                getEnv("DB_SSLMODE", "disable"),
			MaxConns:               getEnvInt("DB_MAX_CONNS", 0),
			MaxConnLifetimeMinutes: getEnvInt("DB_MAX_CONN_LIFETIME_MINUTES", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", defaultJWTSecret),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			AudioBucket:          getEnv("AWS_S3_AUDIO_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWT.ExpireHours <= 0 {
		return errors.New("JWT_EXPIRE_HOURS must be positive")
	}
	if c.App.ResetTokenTTLMinutes <= 0 {
		return errors.New("RESET_TOKEN_TTL_MINUTES must be positive")
	}
	return nil
}

// normalizePrefix returns "/x" for "x", "/x/" and "/x"; "" and "/" become "".
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
