package portal

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/authctx"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// LoginForm represents the login form
type LoginForm struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
	From     string `form:"from" json:"from"`
}

// RegisterForm represents the registration form
type RegisterForm struct {
	FirstName     string `form:"firstName" json:"firstName" binding:"required"`
	LastName      string `form:"lastName" json:"lastName" binding:"required"`
	Email         string `form:"email" json:"email" binding:"required,email"`
	Password      string `form:"password" json:"password" binding:"required,min=6"`
	Role          string `form:"role" json:"role" binding:"required"`
	Phone         string `form:"phone" json:"phone"`
	LicenseNumber string `form:"licenseNumber" json:"licenseNumber"`
	From          string `form:"from" json:"from"`
}

// ForgotPasswordForm represents the forgot-password form
type ForgotPasswordForm struct {
	Email string `form:"email" json:"email" binding:"required,email"`
}

// ResetPasswordForm represents the reset-password form
type ResetPasswordForm struct {
	Token           string `form:"token" json:"token" binding:"required"`
	NewPassword     string `form:"newPassword" json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" binding:"required"`
}

// ChangePasswordForm represents the change-password form
type ChangePasswordForm struct {
	OldPassword     string `form:"oldPassword" json:"oldPassword" binding:"required"`
	NewPassword     string `form:"newPassword" json:"newPassword" binding:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" binding:"required"`
}

// SessionState is the body of GET /api/auth/session
type SessionState struct {
	Status string        `json:"status"`
	User   *session.User `json:"user,omitempty"`
}

const errPasswordMismatch = "Passwords do not match"

var registerRoles = []string{string(session.RoleDriver), string(session.RoleOwner), string(session.RoleAdmin)}

func (s *Server) homePage(c *gin.Context) {
	c.JSON(http.StatusOK, Page{
		Title: "Fleet Management",
		Data: gin.H{
			"login":    authctx.LoginPath,
			"register": "/register",
		},
	})
}

func (s *Server) loginPage(c *gin.Context) {
	page := Page{
		Title: "Sign in",
		Data:  gin.H{"from": safeReturnPath(c.Query("from"))},
	}
	switch {
	case c.Query("expired") == "true":
		page.Error = "Your session has expired. Please sign in again."
	case c.Query("reset") == "true":
		page.Message = "Password has been reset. Please sign in."
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) login(c *gin.Context) {
	ra := mustAuth(c)

	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{Title: "Sign in", Error: "Email and password are required"})
		return
	}

	result := ra.provider.Login(c.Request.Context(), form.Email, form.Password)
	if !result.Success {
		s.formFailure(c, "Sign in", result)
		return
	}

	s.redirectAfterSignIn(c, ra, form.From)
}

func (s *Server) registerPage(c *gin.Context) {
	c.JSON(http.StatusOK, Page{
		Title: "Create account",
		Data:  gin.H{"roles": registerRoles},
	})
}

func (s *Server) register(c *gin.Context) {
	ra := mustAuth(c)

	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{Title: "Create account", Error: "Please fill in all required fields"})
		return
	}

	role, err := session.ParseRole(form.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, Page{Title: "Create account", Error: "Unknown role"})
		return
	}
	if role == session.RoleDriver && form.LicenseNumber == "" {
		c.JSON(http.StatusBadRequest, Page{Title: "Create account", Error: "License number is required for drivers"})
		return
	}

	result := ra.provider.Register(c.Request.Context(), authsvc.RegisterRequest{
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Email:         form.Email,
		Password:      form.Password,
		Role:          role.Short(),
		Phone:         form.Phone,
		LicenseNumber: form.LicenseNumber,
	})
	if !result.Success {
		s.formFailure(c, "Create account", result)
		return
	}

	s.redirectAfterSignIn(c, ra, form.From)
}

// redirectAfterSignIn sends a freshly signed-in user to the page they were
// bounced from, or wherever the provider navigated
func (s *Server) redirectAfterSignIn(c *gin.Context, ra *requestAuth, from string) {
	dest := ra.nav.target
	if back := safeReturnPath(from); back != "" {
		dest = back
	}
	if dest == "" {
		dest = authctx.DashboardPath
	}
	c.Redirect(http.StatusSeeOther, dest)
}

// formFailure renders a failed auth action. A request overtaken by a newer
// one from the same browser is answered with 409.
func (s *Server) formFailure(c *gin.Context, title string, result authctx.Result) {
	status := http.StatusBadRequest
	if result.Superseded {
		status = http.StatusConflict
	}
	c.JSON(status, Page{Title: title, Error: result.Message})
}

func (s *Server) logout(c *gin.Context) {
	ra := mustAuth(c)
	ra.provider.Logout()

	dest := ra.nav.target
	if dest == "" {
		dest = authctx.LoginPath
	}
	c.Redirect(http.StatusSeeOther, dest)
}

func (s *Server) logoutAPI(c *gin.Context) {
	mustAuth(c).provider.Logout()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) sessionState(c *gin.Context) {
	snap := mustAuth(c).provider.Snapshot()

	state := SessionState{Status: snap.Status.String()}
	if snap.Authenticated() {
		user := snap.User
		state.User = &user
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) forgotPasswordPage(c *gin.Context) {
	c.JSON(http.StatusOK, Page{Title: "Forgot password"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var form ForgotPasswordForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{Title: "Forgot password", Error: "A valid email is required"})
		return
	}

	result := mustAuth(c).provider.ForgotPassword(c.Request.Context(), form.Email)
	if !result.Success {
		c.JSON(http.StatusBadGateway, Page{Title: "Forgot password", Error: result.Message})
		return
	}

	c.JSON(http.StatusOK, Page{Title: "Forgot password", Message: result.Message})
}

func (s *Server) resetPasswordPage(c *gin.Context) {
	token := c.Query("token")
	page := Page{Title: "Reset password", Data: gin.H{"token": token}}
	if token == "" {
		page.Error = "Missing reset token"
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) resetPassword(c *gin.Context) {
	var form ResetPasswordForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{Title: "Reset password", Error: "Token and a new password of at least 6 characters are required"})
		return
	}
	if form.NewPassword != form.ConfirmPassword {
		c.JSON(http.StatusBadRequest, Page{Title: "Reset password", Error: errPasswordMismatch})
		return
	}

	result := mustAuth(c).provider.ResetPassword(c.Request.Context(), form.Token, form.NewPassword)
	if !result.Success {
		c.JSON(http.StatusBadRequest, Page{Title: "Reset password", Error: result.Message})
		return
	}

	c.JSON(http.StatusOK, Page{
		Title:   "Reset password",
		Message: result.Message,
		Data:    gin.H{"next": authctx.LoginPath + "?reset=true"},
	})
}

func (s *Server) changePasswordPage(c *gin.Context) {
	ra := mustAuth(c)
	c.JSON(http.StatusOK, s.signedInPage(ra, "Change password", nil))
}

func (s *Server) changePassword(c *gin.Context) {
	ra := mustAuth(c)

	var form ChangePasswordForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Page{Title: "Change password", Error: "Old and new password (at least 6 characters) are required"})
		return
	}
	if form.NewPassword != form.ConfirmPassword {
		c.JSON(http.StatusBadRequest, Page{Title: "Change password", Error: errPasswordMismatch})
		return
	}

	result := ra.provider.ChangePassword(c.Request.Context(), form.OldPassword, form.NewPassword)
	if ra.nav.target != "" {
		// Success logs out; a rejected token expires the session
		c.Redirect(http.StatusSeeOther, ra.nav.target)
		return
	}
	if !result.Success {
		page := s.signedInPage(ra, "Change password", nil)
		page.Error = result.Message
		c.JSON(http.StatusBadRequest, page)
		return
	}

	s.logger.Warn().Msg("Password changed without ending the session")
	c.Redirect(http.StatusSeeOther, authctx.LoginPath)
}
