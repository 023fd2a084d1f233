// Package server assembles the HTTP router and its dependencies.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicflow/backend/internal/auth"
	"github.com/clinicflow/backend/internal/chat"
	"github.com/clinicflow/backend/internal/consultations"
	"github.com/clinicflow/backend/internal/members"
	"github.com/clinicflow/backend/internal/metrics"
	"github.com/clinicflow/backend/internal/middleware"
	"github.com/clinicflow/backend/internal/patients"
	"github.com/clinicflow/backend/internal/tenant"
	"github.com/clinicflow/backend/internal/workspaces"
	"github.com/clinicflow/backend/pkg/validation"
)

// Routes holds everything the router mounts.
type Routes struct {
	APIPrefix      string
	CORSOrigins    string
	Logger         *zap.Logger
	Metrics        metrics.HTTPMetrics
	MetricsHandler http.Handler
	Verifier       middleware.TokenVerifier
	Onboarding     middleware.OnboardingLookup
	Resolver       *tenant.Resolver

	Auth          *auth.Handler
	Workspaces    *workspaces.Handler
	Members       *members.Handler
	Patients      *patients.Handler
	Consultations *consultations.Handler
	Chat          *chat.Handler
	ChatStreams   bool
}

// NewRouter builds the gin engine.
func NewRouter(rt Routes) *gin.Engine {
	if rt.Metrics == nil {
		rt.Metrics = metrics.Noop{}
	}
	logger := rt.Logger

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(rt.CORSOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(rt.Metrics))
	router.Use(middleware.ErrorHandler(logger))
	router.NoRoute(middleware.NotFound())

	if rt.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(rt.MetricsHandler))
	}

	api := router.Group(rt.APIPrefix)
	authenticate := middleware.Authenticate(rt.Verifier, logger)

	// Health
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", validation.Validate(validation.Body[auth.SignUpRequest]()), rt.Auth.SignUp)
		authGroup.POST("/login", validation.Validate(validation.Body[auth.LoginRequest]()), rt.Auth.Login)
		authGroup.POST("/logout", rt.Auth.Logout)
		authGroup.POST("/forgot-password", validation.Validate(validation.Body[auth.ForgotPasswordRequest]()), rt.Auth.ForgotPassword)
		authGroup.POST("/reset-password", validation.Validate(validation.Body[auth.ResetPasswordRequest]()), rt.Auth.ResetPassword)
		authGroup.GET("/me", authenticate, rt.Auth.Me)
		authGroup.GET("/workspaces", authenticate, rt.Auth.Workspaces)
		authGroup.POST("/onboarding", authenticate, middleware.RequireOnboardingPending(rt.Onboarding),
			validation.Validate(validation.Body[auth.OnboardingRequest]()), rt.Auth.Onboarding)
	}

	// Workspaces
	wsGroup := api.Group("/workspaces", authenticate)
	{
		slug := validation.Params[workspaces.SlugParam]()
		wsGroup.POST("", middleware.RequireOnboardingComplete(rt.Onboarding),
			validation.Validate(validation.Body[workspaces.CreateRequest]()), rt.Workspaces.Create)
		wsGroup.GET("/:slug", validation.Validate(slug), rt.Workspaces.Get)
		wsGroup.PATCH("/:slug", validation.Validate(slug, validation.Body[workspaces.UpdateRequest]()),
			rt.Resolver.Middleware("slug"), middleware.RequireAdmin(), rt.Workspaces.Update)
		wsGroup.DELETE("/:slug", validation.Validate(slug),
			rt.Resolver.Middleware("slug"), middleware.RequireAdmin(), rt.Workspaces.Delete)
	}

	// Workspace-scoped resources
	scoped := api.Group("/:workspace_slug",
		authenticate,
		validation.Validate(validation.Params[tenant.SlugParam]()),
		rt.Resolver.Middleware("workspace_slug"),
	)

	memberGroup := scoped.Group("/members")
	{
		id := validation.Params[members.IDParam]()
		memberGroup.POST("", middleware.RequireAdmin(), validation.Validate(validation.Body[members.InviteRequest]()), rt.Members.Invite)
		memberGroup.GET("", rt.Members.List)
		memberGroup.GET("/:id", validation.Validate(id), rt.Members.Get)
		memberGroup.PATCH("/:id", middleware.RequireAdmin(),
			validation.Validate(id, validation.Body[members.UpdateRoleRequest]()), rt.Members.UpdateRole)
		memberGroup.DELETE("/:id", middleware.RequireAdmin(), validation.Validate(id), rt.Members.Remove)
	}

	patientGroup := scoped.Group("/patients")
	{
		id := validation.Params[patients.IDParam]()
		patientGroup.POST("", middleware.RequireProfessional(),
			validation.Validate(validation.Body[patients.CreateRequest]()), rt.Patients.Create)
		patientGroup.GET("", validation.Validate(validation.Query[patients.ListQuery]()), rt.Patients.List)
		patientGroup.GET("/search", validation.Validate(validation.Query[patients.SearchQuery]()), rt.Patients.Search)
		patientGroup.GET("/:id", validation.Validate(id), rt.Patients.Get)
		patientGroup.PATCH("/:id", middleware.RequireProfessional(),
			validation.Validate(id, validation.Body[patients.UpdateRequest]()), rt.Patients.Update)
		patientGroup.DELETE("/:id", middleware.RequireProfessional(), validation.Validate(id), rt.Patients.Delete)
	}

	consultationGroup := scoped.Group("/consultations")
	{
		id := validation.Params[consultations.IDParam]()
		owner := middleware.RequireOwnership(rt.Consultations.Owner)
		consultationGroup.POST("", middleware.RequireProfessional(),
			validation.Validate(validation.Body[consultations.CreateRequest]()), rt.Consultations.Create)
		consultationGroup.GET("", validation.Validate(validation.Query[consultations.ListQuery]()), rt.Consultations.List)
		consultationGroup.GET("/:id", validation.Validate(id), rt.Consultations.Get)
		consultationGroup.PATCH("/:id", middleware.RequireProfessional(),
			validation.Validate(id, validation.Body[consultations.UpdateRequest]()), owner, rt.Consultations.Update)
		consultationGroup.DELETE("/:id", middleware.RequireProfessional(), validation.Validate(id), owner, rt.Consultations.Delete)
	}

	chatGroup := scoped.Group("/chat")
	{
		consultation := validation.Params[chat.ConsultationParam]()
		chatGroup.POST("/message", middleware.RequireProfessional(),
			validation.Validate(validation.Body[chat.SendRequest]()), rt.Chat.Send)
		chatGroup.POST("/audio-upload-url", middleware.RequireProfessional(),
			validation.Validate(validation.Body[chat.AudioUploadRequest]()), rt.Chat.AudioUploadURL)
		chatGroup.GET("/:consultationId", validation.Validate(consultation, validation.Query[chat.HistoryQuery]()), rt.Chat.History)
		chatGroup.GET("/:consultationId/last", validation.Validate(consultation), rt.Chat.Last)
	}

	// Live chat stream. Browsers cannot set headers on WebSocket upgrades, so the
	// token may travel as ?token= and is copied into the header before authentication.
	if rt.ChatStreams {
		api.GET("/:workspace_slug/chat/:consultationId/ws",
			middleware.TokenFromQuery("token"),
			authenticate,
			validation.Validate(validation.Params[tenant.SlugParam](), validation.Params[chat.ConsultationParam]()),
			rt.Resolver.Middleware("workspace_slug"),
			rt.Chat.Stream,
		)
	}

	return router
}
