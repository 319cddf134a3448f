// Package devapi is a development stand-in for the fleet REST API. It
// implements the authentication and user administration endpoints the
// portal talks to.
package devapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/auth"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/config"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/database"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/tasks"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/workers"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	issuer      *auth.Issuer
	asynqClient *asynq.Client
	dispatcher  tasks.Dispatcher
	purge       *cron.Cron
}

// Option customizes a Server
type Option func(*Server)

// WithDispatcher overrides how reset mails are handed off
func WithDispatcher(d tasks.Dispatcher) Option {
	return func(s *Server) {
		s.dispatcher = d
	}
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, opts ...Option) (*Server, error) {
	db, err := database.Open(cfg.Database.URL, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrateAPI(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// 64 hex characters = 32 bytes of randomness
		secret, err = auth.GenerateSecret(32)
		if err != nil {
			return nil, err
		}
		zlog.Warn().Msg("JWT_SECRET not set - using a random secret, tokens will not survive a restart")
	}

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		issuer:    auth.NewIssuer(secret, cfg.Auth.JWTExpiry),
	}

	for _, opt := range opts {
		opt(server)
	}

	if server.dispatcher == nil {
		if cfg.Redis.Address != "" {
			server.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
				Addr: cfg.Redis.Address,
			})
			server.dispatcher = tasks.NewAsynqDispatcher(server.asynqClient)
		} else {
			mailer := workers.NewLogMailer(zlog.With().Str("component", "mailer").Logger())
			server.dispatcher = tasks.NewInlineDispatcher(func(ctx context.Context, p tasks.PasswordResetPayload) error {
				return workers.DeliverPasswordReset(ctx, p, mailer, zlog)
			})
			zlog.Info().Msg("REDIS_ADDRESS not set - reset mails are delivered inline")
		}
	}

	server.setupRouter()

	return server, nil
}

// newValidator builds the request validator with the fleet-specific rules
func newValidator() *validator.Validate {
	validate := validator.New()

	// Accepts DRIVER as well as ROLE_DRIVER
	validate.RegisterValidation("fleetrole", func(fl validator.FieldLevel) bool {
		_, err := session.ParseRole(fl.Field().String())
		return err == nil
	})

	return validate
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Auth.PortalOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/setup", s.setupFirstAdmin)
	s.router.POST("/api/auth/login", s.login)
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/forgot-password", s.forgotPassword)
	s.router.POST("/api/auth/reset-password", s.resetPassword)
	// Older clients post the reset outside /api/auth
	s.router.POST("/reset-password", s.resetPassword)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.issuer, s.logger))
	{
		api.GET("/auth/me", s.getCurrentUser)
		api.POST("/auth/change-password", s.changePassword)

		// User management (admin only)
		userRoutes := api.Group("/admin/users")
		userRoutes.Use(AdminOnlyMiddleware(s.logger))
		{
			userRoutes.GET("", s.listUsers)
			userRoutes.PUT("/:id/enable", s.setUserEnabled)
			userRoutes.PUT("/:id/role", s.updateUserRole)
			userRoutes.DELETE("/:id", s.deleteUser)
		}
	}

	// Task dashboard, only when tasks go through Redis
	if s.config.Redis.Address != "" {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     "/asynqmon",
			RedisConnOpt: asynq.RedisClientOpt{Addr: s.config.Redis.Address},
		})
		s.router.Any("/asynqmon/*any", gin.WrapH(mon))
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "fleet-devapi",
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Close releases the Asynq client, the purge schedule and the database
func (s *Server) Close() error {
	if s.purge != nil {
		<-s.purge.Stop().Done()
	}

	if s.asynqClient != nil {
		if err := s.asynqClient.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	return database.Close(s.db)
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	purge, err := workers.StartResetTokenPurge(s.db, workers.DefaultPurgeSchedule, s.logger)
	if err != nil {
		return fmt.Errorf("failed to schedule reset token purge: %w", err)
	}
	s.purge = purge

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Auth.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting fleet dev API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing resources")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
