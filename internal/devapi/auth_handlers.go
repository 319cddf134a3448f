package devapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/auth"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a self-service registration
type RegisterRequest struct {
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Role          string `json:"role" validate:"required,fleetrole"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"licenseNumber"`
}

// AuthResponse is returned by login, register and setup
type AuthResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Role          string     `json:"role"`
	Phone         string     `json:"phone,omitempty"`
	LicenseNumber string     `json:"licenseNumber,omitempty"`
	Enabled       bool       `json:"enabled"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toUserDetail(u *models.User) UserDetail {
	return UserDetail{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		Phone:         u.Phone,
		LicenseNumber: u.LicenseNumber,
		Enabled:       u.Enabled,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

func badRequest(c *gin.Context, message, kind string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message, "error": kind})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"message": message, "error": "Internal server error"})
}

// issueSession signs a token for user and writes the login response
func (s *Server) issueSession(c *gin.Context, user *models.User) {
	token, err := s.issuer.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		internalError(c, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		Type:      "Bearer",
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	})
}

// setupFirstAdmin creates the first admin account. It only works on an empty database.
func (s *Server) setupFirstAdmin(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error(), "Validation failed")
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		internalError(c, "Internal server error")
		return
	}

	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Setup already completed", "error": "Conflict"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		internalError(c, "Failed to create user")
		return
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Role:         string(session.RoleAdmin),
		Enabled:      true,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create admin user")
		internalError(c, "Failed to create user")
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("First admin user created")
	s.issueSession(c, user)
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Bad credentials", "error": "Authentication failed"})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Bad credentials", "error": "Authentication failed"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		internalError(c, "Internal server error")
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Bad credentials", "error": "Authentication failed"})
		return
	}

	if !user.Enabled {
		c.JSON(http.StatusForbidden, gin.H{"message": "User is disabled", "error": "Authentication failed"})
		return
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record last login")
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	s.issueSession(c, &user)
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error(), "Validation failed")
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		badRequest(c, "Invalid role. Available: ROLE_ADMIN, ROLE_OWNER, ROLE_DRIVER", "Validation failed")
		return
	}

	role, _ := session.ParseRole(req.Role)
	license := strings.TrimSpace(req.LicenseNumber)
	if role == session.RoleDriver && license == "" {
		badRequest(c, "licenseNumber is required for DRIVER", "Validation failed")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check email")
		internalError(c, "Internal server error")
		return
	}
	if existing > 0 {
		badRequest(c, "Email already in use", "Registration failed")
		return
	}

	if license != "" {
		var taken int64
		if err := s.db.Model(&models.User{}).Where("license_number = ?", license).Count(&taken).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to check license number")
			internalError(c, "Internal server error")
			return
		}
		if taken > 0 {
			badRequest(c, "licenseNumber already exists", "Validation failed")
			return
		}
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		internalError(c, "Failed to create user")
		return
	}

	user := &models.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         email,
		PasswordHash:  passwordHash,
		Phone:         req.Phone,
		LicenseNumber: license,
		Role:          string(role),
		Enabled:       true,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		internalError(c, "Failed to create user")
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("User registered")
	s.issueSession(c, user)
}

func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Not authenticated"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", sessionData.UserID).Msg("Failed to find user")
		internalError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, toUserDetail(&user))
}
