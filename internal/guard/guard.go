package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/authctx"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Outcome is the guard verdict for one render
type Outcome int

const (
	Allow Outcome = iota
	// Pending means the auth state is still loading; render a placeholder
	Pending
	RedirectLogin
	RedirectDashboard
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "unknown"
	}
}

// Location returns the navigation target of a redirect outcome
func (o Outcome) Location() string {
	switch o {
	case RedirectLogin:
		return authctx.LoginPath
	case RedirectDashboard:
		return authctx.DashboardPath
	default:
		return ""
	}
}

// Check re-validates a page against the auth state. An empty allowed set
// admits any signed-in user.
func Check(snap authctx.Snapshot, allowed session.RoleSet) Outcome {
	switch snap.Status {
	case authctx.StatusLoading:
		return Pending
	case authctx.StatusAuthenticated:
		if !allowed.Allows(snap.User.Role) {
			return RedirectDashboard
		}
		return Allow
	default:
		return RedirectLogin
	}
}

// ProviderFunc resolves the auth context for a request
type ProviderFunc func(c *gin.Context) (*authctx.Provider, bool)

// Require builds a gin middleware that only lets users with one of roles
// through. Redirects carry no message.
func Require(provider ProviderFunc, roles ...session.Role) gin.HandlerFunc {
	allowed := session.NewRoleSet(roles...)

	return func(c *gin.Context) {
		p, ok := provider(c)
		if !ok {
			c.Redirect(http.StatusFound, authctx.LoginPath)
			c.Abort()
			return
		}

		outcome := Check(p.Snapshot(), allowed)
		switch outcome {
		case Allow:
			c.Next()
		case Pending:
			c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
			c.Abort()
		default:
			c.Redirect(http.StatusFound, outcome.Location())
			c.Abort()
		}
	}
}
