package devapi

import (
	"crypto/rand"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/auth"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/tasks"
)

const forgotPasswordMessage = "If the email exists, a reset link has been sent."

// ForgotPasswordRequest starts the reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the reset flow
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

var (
	errResetTokenInvalid = errors.New("invalid reset token")
	errResetTokenUsed    = errors.New("reset token already used")
	errResetTokenExpired = errors.New("reset token expired")
)

// forgotPassword always answers 200 with the same message so the response
// does not reveal whether the email is registered
func (s *Server) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug().Err(err).Msg("Unreadable forgot-password request")
		c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
		return
	}

	if err := s.createResetToken(c, strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		s.logger.Info().Err(err).Msg("Forgot-password request not fulfilled")
	}

	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

func (s *Server) createResetToken(c *gin.Context, email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return err
	}

	token := strings.ToLower(ulid.MustNew(ulid.Now(), rand.Reader).String())
	resetToken := &models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.config.Auth.ResetTokenTTL),
	}

	// One live token per user
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(resetToken).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to store reset token")
		return err
	}

	link, err := resetLink(s.config.Auth.ResetURL, token)
	if err != nil {
		return err
	}

	payload := tasks.PasswordResetPayload{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		ResetLink: link,
		ExpiresAt: resetToken.ExpiresAt,
	}
	if err := s.dispatcher.DispatchPasswordReset(c.Request.Context(), payload); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to dispatch reset mail")
		return err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("Password reset requested")
	return nil
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error(), "Validation failed")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		internalError(c, "Failed to reset password")
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var resetToken models.PasswordResetToken
		if err := tx.Where("token = ?", req.Token).First(&resetToken).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errResetTokenInvalid
			}
			return err
		}
		if resetToken.Used {
			return errResetTokenUsed
		}
		if resetToken.Expired(time.Now()) {
			return errResetTokenExpired
		}

		if err := tx.Model(&models.User{}).Where("id = ?", resetToken.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		return tx.Model(&resetToken).Update("used", true).Error
	})

	switch {
	case err == nil:
		s.logger.Info().Msg("Password reset completed")
		c.JSON(http.StatusOK, gin.H{"message": "Password has been reset."})
	case errors.Is(err, errResetTokenInvalid):
		badRequest(c, "Invalid token", "Validation failed")
	case errors.Is(err, errResetTokenUsed):
		badRequest(c, "Token already used", "Validation failed")
	case errors.Is(err, errResetTokenExpired):
		badRequest(c, "Token expired", "Validation failed")
	default:
		s.logger.Error().Err(err).Msg("Failed to reset password")
		internalError(c, "Failed to reset password")
	}
}

func (s *Server) changePassword(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error(), "Validation failed")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", sessionData.UserID).Msg("Failed to find user")
		internalError(c, "Internal server error")
		return
	}

	// 400 rather than 401: a wrong old password must not end the session
	if err := auth.VerifyPassword(req.OldPassword, user.PasswordHash); err != nil {
		badRequest(c, "Old password is incorrect", "Validation failed")
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		internalError(c, "Failed to change password")
		return
	}

	if err := s.db.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update password")
		internalError(c, "Failed to change password")
		return
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("Password changed")
	c.JSON(http.StatusOK, gin.H{"message": "Password changed."})
}
