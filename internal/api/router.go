package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/app"
	iauth "github.com/agoralabs/agora/internal/auth"
	"github.com/agoralabs/agora/internal/handlers"
	"github.com/agoralabs/agora/internal/middleware"
	"github.com/agoralabs/agora/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the full
// /api/v3 route surface.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, sessions *iauth.SessionService, credentials *iauth.CredentialService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))
	}

	conversationSvc, err := services.NewConversationService(db)
	if err != nil {
		return nil, err
	}
	participantSvc, err := services.NewParticipantService(db)
	if err != nil {
		return nil, err
	}
	commentSvc, err := services.NewCommentService(db, conversationSvc)
	if err != nil {
		return nil, err
	}
	voteSvc, err := services.NewVoteService(db, conversationSvc)
	if err != nil {
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(jwt, sessions, credentials)
	userHandler := handlers.NewUserHandler(db)
	conversationHandler := handlers.NewConversationHandler(conversationSvc)
	participantHandler := handlers.NewParticipantHandler(jwt, conversationSvc, participantSvc, commentSvc, voteSvc)
	commentHandler := handlers.NewCommentHandler(conversationSvc, participantHandler, commentSvc)
	voteHandler := handlers.NewVoteHandler(conversationSvc, participantHandler, commentSvc, voteSvc)
	inviteHandler := handlers.NewInviteHandler(conversationSvc)
	mathHandler := handlers.NewMathHandler(conversationSvc)

	requireAuth := middleware.Auth(sessions)
	optionalAuth := middleware.OptionalAuth(sessions, jwt)

	r.GET("/", handlers.Root())

	v3 := r.Group("/api/v3")

	// Public probes
	v3.GET("/", handlers.Root())
	v3.GET("/health", handlers.Health())
	v3.GET("/testConnection", handlers.TestConnection())
	v3.GET("/testDatabase", handlers.TestDatabase(db))

	// Account lifecycle
	v3.POST("/auth/new", authHandler.Register)
	v3.POST("/auth/login", authHandler.Login)
	v3.POST("/auth/pwresettoken", authHandler.RequestPasswordReset)
	v3.POST("/auth/password", optionalAuth, authHandler.ChangePassword)
	v3.POST("/auth/logout", requireAuth, authHandler.Logout)
	v3.POST("/auth/deregister", requireAuth, authHandler.Deregister)

	// Current account
	v3.GET("/users", requireAuth, userHandler.Get)
	v3.PUT("/users", requireAuth, userHandler.Update)

	// Conversation management (owner surface)
	owner := v3.Group("")
	owner.Use(requireAuth)
	{
		owner.GET("/conversations", conversationHandler.List)
		owner.POST("/conversations", conversationHandler.Create)
		owner.PUT("/conversations", conversationHandler.Update)
		owner.POST("/conversation/close", conversationHandler.Close)
		owner.POST("/conversation/reopen", conversationHandler.Reopen)
		owner.GET("/zinvites/:zid", inviteHandler.Get)
		owner.POST("/zinvites/:zid", inviteHandler.Rotate)
		owner.PUT("/comments", commentHandler.Moderate)
	}

	// Public conversation reads
	v3.GET("/conversations/preload", conversationHandler.Preload)
	v3.GET("/conversationStats", conversationHandler.Stats)
	v3.GET("/math/pca", mathHandler.PCA)
	v3.GET("/math/pca2", mathHandler.PCA)

	// Participation surface: works for signed-in users and anonymous
	// participants carrying the identity cookie.
	participation := v3.Group("")
	participation.Use(optionalAuth)
	{
		participation.GET("/participants", participantHandler.Get)
		participation.POST("/participants", participantHandler.Join)
		participation.POST("/joinWithInvite", participantHandler.Join)
		participation.GET("/participationInit", participantHandler.ParticipationInit)
		participation.GET("/comments", commentHandler.List)
		participation.POST("/comments", commentHandler.Create)
		participation.GET("/nextComment", commentHandler.Next)
		participation.GET("/votes", voteHandler.List)
		participation.POST("/votes", voteHandler.Submit)
		participation.GET("/votes/me", voteHandler.Mine)
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
