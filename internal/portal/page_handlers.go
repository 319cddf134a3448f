package portal

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/api"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authctx"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/authsvc"
)

// Profile is the signed-in user's record as the API reports it
type Profile struct {
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

const adminUsersPath = "/api/admin/users"

// signedInPage builds the page model shared by every guarded screen
func (s *Server) signedInPage(ra *requestAuth, title string, data any) Page {
	snap := ra.provider.Snapshot()
	user := snap.User
	return Page{
		Title: title,
		User:  &user,
		Nav:   navFor(user.Role),
		Data:  data,
	}
}

// fetch loads path from the API on behalf of the signed-in user. On failure
// it writes the response: a rejected session follows the provider to the
// login page, a forbidden resource goes back to the dashboard.
func (s *Server) fetch(c *gin.Context, ra *requestAuth, title, path string, out any) bool {
	err := ra.client.Get(c.Request.Context(), path, out)
	if err == nil {
		return true
	}

	if ra.nav.target != "" {
		c.Redirect(http.StatusFound, ra.nav.target)
		return false
	}

	switch api.StatusOf(err) {
	case http.StatusForbidden:
		c.Redirect(http.StatusFound, authctx.DashboardPath)
	default:
		s.logger.Error().Err(err).Str("path", path).Msg("Failed to load page data")
		page := s.signedInPage(ra, title, nil)
		page.Error = authsvc.MessageOf(err, "Could not load data")
		c.JSON(http.StatusBadGateway, page)
	}
	return false
}

func (s *Server) dashboardPage(c *gin.Context) {
	ra := mustAuth(c)

	var profile Profile
	if !s.fetch(c, ra, "Dashboard", authsvc.MePath, &profile) {
		return
	}

	page := s.signedInPage(ra, "Dashboard", profile)
	page.Message = "Welcome, " + page.User.FullName()
	c.JSON(http.StatusOK, page)
}

func (s *Server) profilePage(c *gin.Context) {
	ra := mustAuth(c)

	var profile Profile
	if !s.fetch(c, ra, "Profile", authsvc.MePath, &profile) {
		return
	}

	c.JSON(http.StatusOK, s.signedInPage(ra, "Profile", profile))
}

func (s *Server) adminUsersPage(c *gin.Context) {
	ra := mustAuth(c)

	path := adminUsersPath
	if enabled := c.Query("enabled"); enabled == "true" || enabled == "false" {
		path += "?enabled=" + enabled
	}

	var users []Profile
	if !s.fetch(c, ra, "Users", path, &users) {
		return
	}

	c.JSON(http.StatusOK, s.signedInPage(ra, "Users", gin.H{"users": users}))
}

// sectionPage renders a guarded screen whose content lives client-side
func (s *Server) sectionPage(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.signedInPage(mustAuth(c), title, nil))
	}
}
