package devapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,fleetrole"`
}

// listUsers returns all users, optionally filtered by ?enabled=true|false
func (s *Server) listUsers(c *gin.Context) {
	query := s.db.Order("id ASC")

	if raw := c.Query("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "enabled must be true or false", "Validation failed")
			return
		}
		query = query.Where("enabled = ?", enabled)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		internalError(c, "Internal server error")
		return
	}

	userDetails := make([]UserDetail, len(users))
	for i := range users {
		userDetails[i] = toUserDetail(&users[i])
	}

	c.JSON(http.StatusOK, userDetails)
}

// loadUser resolves the :id path parameter. It writes the error response
// and returns false when the user cannot be loaded.
func (s *Server) loadUser(c *gin.Context, user *models.User) bool {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid user id", "Validation failed")
		return false
	}

	if err := models.FindByID(s.db, id, user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found", "error": "Not found"})
			return false
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		internalError(c, "Internal server error")
		return false
	}
	return true
}

func (s *Server) setUserEnabled(c *gin.Context) {
	value, err := strconv.ParseBool(c.Query("value"))
	if err != nil {
		badRequest(c, "value must be true or false", "Validation failed")
		return
	}

	var user models.User
	if !s.loadUser(c, &user) {
		return
	}

	sessionData, _ := GetSessionData(c)
	if user.ID == sessionData.UserID && !value {
		badRequest(c, "Cannot disable yourself", "Validation failed")
		return
	}

	if err := s.db.Model(&user).Update("enabled", value).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update user")
		internalError(c, "Failed to update user")
		return
	}
	user.Enabled = value

	s.logger.Info().
		Int64("user_id", user.ID).
		Bool("enabled", value).
		Int64("updated_by", sessionData.UserID).
		Msg("User enabled flag changed")

	c.JSON(http.StatusOK, toUserDetail(&user))
}

// updateUserRole changes another user's role. Live sessions of that user
// pick up the new role on their next API call.
func (s *Server) updateUserRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error(), "Validation failed")
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		badRequest(c, "Invalid role", "Validation failed")
		return
	}
	role, _ := session.ParseRole(req.Role)

	var user models.User
	if !s.loadUser(c, &user) {
		return
	}

	sessionData, _ := GetSessionData(c)
	if user.ID == sessionData.UserID {
		badRequest(c, "Cannot change your own role", "Validation failed")
		return
	}

	if err := s.db.Model(&user).Update("role", string(role)).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update role")
		internalError(c, "Failed to update user")
		return
	}
	user.Role = string(role)

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("role", string(role)).
		Int64("updated_by", sessionData.UserID).
		Msg("User role changed")

	c.JSON(http.StatusOK, toUserDetail(&user))
}

func (s *Server) deleteUser(c *gin.Context) {
	var user models.User
	if !s.loadUser(c, &user) {
		return
	}

	sessionData, _ := GetSessionData(c)
	if user.ID == sessionData.UserID {
		badRequest(c, "Cannot delete yourself", "Validation failed")
		return
	}

	if err := s.db.Delete(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete user")
		internalError(c, "Failed to delete user")
		return
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Int64("deleted_by", sessionData.UserID).
		Msg("User deleted")

	c.Status(http.StatusNoContent)
}
