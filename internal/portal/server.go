// Package portal serves the fleet management web portal: the edge gate,
// the per-browser auth context and the page models behind every screen.
package portal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/api"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authctx"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/config"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/database"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/gate"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/guard"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/ratelimit"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Server represents the portal HTTP server
type Server struct {
	router *gin.Engine
	db     *gorm.DB
	config *config.Config
	logger zerolog.Logger
	api    *api.Client
	seq    *authctx.Sequencer
}

// New creates a new portal server
func New(cfg *config.Config, zlog zerolog.Logger) (*Server, error) {
	db, err := database.Open(cfg.Portal.DatabaseURL, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigratePortal(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	server := &Server{
		db:     db,
		config: cfg,
		logger: zlog,
		api:    api.New(cfg.API.URL, cfg.API.Timeout, zlog.With().Str("component", "api").Logger()),
		seq:    authctx.NewSequencer(),
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Health check endpoint (no session required)
	s.router.GET("/health", s.healthCheck)

	s.router.Use(s.browserIDMiddleware())
	s.router.Use(gate.Middleware(s.logger, s.config.Portal.CookieSecure))
	s.router.Use(s.sessionMiddleware())

	// One budget shared by every credential form
	throttle := ratelimit.Middleware(s.config.Portal.AuthRateLimit, s.config.Portal.AuthBurst)

	// Public pages
	s.router.GET("/", s.homePage)
	s.router.GET("/login", s.loginPage)
	s.router.POST("/login", throttle, s.login)
	s.router.GET("/register", s.registerPage)
	s.router.POST("/register", throttle, s.register)
	s.router.GET("/forgot-password", s.forgotPasswordPage)
	s.router.POST("/forgot-password", throttle, s.forgotPassword)
	s.router.GET("/reset-password", s.resetPasswordPage)
	s.router.POST("/reset-password", throttle, s.resetPassword)
	s.router.POST("/logout", s.logout)

	// Session endpoints, reachable whatever the sign-in state
	authRoutes := s.router.Group("/api/auth")
	{
		authRoutes.GET("/session", s.sessionState)
		authRoutes.POST("/logout", s.logoutAPI)
	}

	signedIn := guard.Require(providerFromContext)
	s.router.GET("/dashboard", signedIn, s.dashboardPage)
	s.router.GET("/change-password", signedIn, s.changePasswordPage)
	s.router.POST("/change-password", signedIn, s.changePassword)

	driverOnly := guard.Require(providerFromContext, session.RoleDriver)
	s.router.GET("/profile", driverOnly, s.profilePage)
	s.router.GET("/my-vehicles", driverOnly, s.sectionPage("My Vehicles"))

	ownerOrAdmin := guard.Require(providerFromContext, session.RoleAdmin, session.RoleOwner)
	s.router.GET("/drivers", ownerOrAdmin, s.sectionPage("Drivers"))
	s.router.GET("/vehicles", ownerOrAdmin, s.sectionPage("Vehicles"))
	s.router.GET("/reports", ownerOrAdmin, s.sectionPage("Reports"))

	adminOnly := guard.Require(providerFromContext, session.RoleAdmin)
	s.router.GET("/settings", adminOnly, s.sectionPage("Settings"))
	s.router.GET("/admin/users", adminOnly, s.adminUsersPage)
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if d, ok := gate.FromContext(c); ok {
			event = event.Str("gate", string(d.Reason))
		}
		event.Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "fleet-portal",
		"api":       s.api.BaseURL(),
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the session database
func (s *Server) Close() error {
	return database.Close(s.db)
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Portal.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 10*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", srv.Addr).Str("api", s.api.BaseURL()).Msg("Starting fleet portal")
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
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Portal shutdown complete")
	return nil
}
