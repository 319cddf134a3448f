package gate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Middleware runs the edge gate before any page handler. secure sets the
// Secure attribute on the cookie deletions it issues.
func Middleware(log zerolog.Logger, secure bool) gin.HandlerFunc {
	return MiddlewareWithTable(DefaultTable, log, secure)
}

// MiddlewareWithTable is Middleware over a custom route table
func MiddlewareWithTable(table Table, log zerolog.Logger, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(session.CookieToken)
		role, _ := c.Cookie(session.CookieRole)

		path := c.Request.URL.Path
		decision := table.Evaluate(path, Cookies{Token: token, Role: role})
		c.Set(ContextKey, decision)

		if decision.Action == Allow {
			c.Next()
			return
		}

		if decision.ClearCookies {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(session.CookieToken, "", -1, "/", "", secure, true)
			c.SetCookie(session.CookieRole, "", -1, "/", "", secure, true)
			log.Warn().Str("path", path).Msg("Cleared malformed session cookies")
		}

		log.Debug().
			Str("path", path).
			Str("reason", string(decision.Reason)).
			Str("location", decision.Location).
			Msg("Edge gate redirect")

		c.Redirect(http.StatusFound, decision.Location)
		c.Abort()
	}
}

// ContextKey is where the middleware stores its Decision on the gin context
const ContextKey = "gate.decision"

// FromContext returns the decision recorded by the middleware
func FromContext(c *gin.Context) (Decision, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return Decision{}, false
	}
	d, ok := v.(Decision)
	return d, ok
}
