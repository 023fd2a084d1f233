package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/config"
	"github.com/clinicflow/backend/internal/auth"
	"github.com/clinicflow/backend/internal/chat"
	"github.com/clinicflow/backend/internal/consultations"
	"github.com/clinicflow/backend/internal/identity"
	"github.com/clinicflow/backend/internal/members"
	"github.com/clinicflow/backend/internal/metrics"
	"github.com/clinicflow/backend/internal/patients"
	"github.com/clinicflow/backend/internal/realtime"
	"github.com/clinicflow/backend/internal/tenant"
	"github.com/clinicflow/backend/internal/workspaces"
	"github.com/clinicflow/backend/pkg/storage"
)

// Deps are the process-wide clients shared by every request.
type Deps struct {
	Pool    *pgxpool.Pool
	Redis   *goredis.Client
	S3      *storage.S3 // nil disables audio uploads
	Metrics *metrics.Prom
}

// Build wires repositories, services and handlers into a router.
func Build(cfg *config.Config, logger *zap.Logger, d Deps) *gin.Engine {
	provider := identity.NewProvider(
		identity.NewRepository(d.Pool),
		identity.NewRedisTokenStore(d.Redis),
		identity.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL()),
		cfg.App.ResetTokenTTL(),
		logger,
	)

	pubsub := realtime.NewRedisPubSub(d.Redis, logger)
	var rtMetrics metrics.RealtimeMetrics = metrics.Noop{}
	if d.Metrics != nil {
		rtMetrics = d.Metrics
	}
	hub := realtime.NewHub(logger, pubsub, pubsub, rtMetrics)

	// Avoid handing a typed nil to the chat service.
	var presigner chat.Presigner
	if d.S3 != nil {
		presigner = d.S3
	}

	authSvc := auth.NewService(provider, auth.NewRepository(d.Pool), !cfg.App.IsProduction(), logger)
	workspaceRepo := workspaces.NewRepository(d.Pool)

	rt := Routes{
		APIPrefix:   cfg.Server.APIPrefix,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:      logger,
		Verifier:    provider,
		Onboarding:  authSvc,
		Resolver:    tenant.NewResolver(workspaceRepo),

		Auth:          auth.NewHandler(authSvc),
		Workspaces:    workspaces.NewHandler(workspaces.NewService(workspaceRepo, logger)),
		Members:       members.NewHandler(members.NewService(members.NewRepository(d.Pool), logger)),
		Patients:      patients.NewHandler(patients.NewService(patients.NewRepository(d.Pool), logger)),
		Consultations: consultations.NewHandler(consultations.NewService(consultations.NewRepository(d.Pool), logger)),
		Chat:          chat.NewHandler(chat.NewService(chat.NewRepository(d.Pool), hub, presigner, logger), hub),
		ChatStreams:   true,
	}
	if d.Metrics != nil {
		rt.Metrics = d.Metrics
		rt.MetricsHandler = d.Metrics.Handler()
	}
	return NewRouter(rt)
}

// NewHTTPServer wraps handler with the configured timeouts.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}
