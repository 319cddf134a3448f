package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		cookies  Cookies
		action   Action
		location string
		clear    bool
		reason   Reason
	}{
		{
			name:     "protected without cookies",
			path:     "/drivers",
			action:   Redirect,
			location: "/login?from=%2Fdrivers",
			reason:   ReasonUnauthenticated,
		},
		{
			name:     "driver on owner-or-admin prefix",
			path:     "/drivers",
			cookies:  Cookies{Token: "abc", Role: "ROLE_DRIVER"},
			action:   Redirect,
			location: "/dashboard",
			reason:   ReasonInsufficientRole,
		},
		{
			name:    "owner on drivers",
			path:    "/drivers/12",
			cookies: Cookies{Token: "abc", Role: "ROLE_OWNER"},
			action:  Allow,
			reason:  ReasonAuthorized,
		},
		{
			name:     "owner on settings",
			path:     "/settings",
			cookies:  Cookies{Token: "abc", Role: "ROLE_OWNER"},
			action:   Redirect,
			location: "/dashboard",
			reason:   ReasonInsufficientRole,
		},
		{
			name:    "admin on admin users",
			path:    "/admin/users",
			cookies: Cookies{Token: "abc", Role: "ROLE_ADMIN"},
			action:  Allow,
			reason:  ReasonAuthorized,
		},
		{
			name:     "signed in user on login",
			path:     "/login",
			cookies:  Cookies{Token: "abc", Role: "ROLE_DRIVER"},
			action:   Redirect,
			location: "/dashboard",
			reason:   ReasonAlreadySignedIn,
		},
		{
			name:     "signed in user on root",
			path:     "/",
			cookies:  Cookies{Token: "abc", Role: "ROLE_DRIVER"},
			action:   Redirect,
			location: "/dashboard",
			reason:   ReasonAlreadySignedIn,
		},
		{
			name:    "auth callback stays reachable",
			path:    "/api/auth/session",
			cookies: Cookies{Token: "abc", Role: "ROLE_DRIVER"},
			action:  Allow,
			reason:  ReasonAuthCallback,
		},
		{
			name:   "anonymous on login",
			path:   "/login",
			action: Allow,
			reason: ReasonAnonymousOnPublic,
		},
		{
			name:   "anonymous on root",
			path:   "/",
			action: Allow,
			reason: ReasonAnonymousOnPublic,
		},
		{
			name:    "root is exact match only",
			path:    "/health",
			cookies: Cookies{Token: "abc"},
			action:  Allow,
			reason:  ReasonUnrestricted,
		},
		{
			name:     "missing role on restricted path",
			path:     "/settings",
			cookies:  Cookies{Token: "abc"},
			action:   Redirect,
			location: "/login",
			clear:    true,
			reason:   ReasonMalformedSession,
		},
		{
			name:     "garbage role on restricted path",
			path:     "/reports",
			cookies:  Cookies{Token: "abc", Role: "ROLE_GOD"},
			action:   Redirect,
			location: "/login",
			clear:    true,
			reason:   ReasonMalformedSession,
		},
		{
			name:    "missing role on generic protected path",
			path:    "/dashboard",
			cookies: Cookies{Token: "abc"},
			action:  Allow,
			reason:  ReasonAuthorized,
		},
		{
			name:    "bare role accepted",
			path:    "/vehicles",
			cookies: Cookies{Token: "abc", Role: "OWNER"},
			action:  Allow,
			reason:  ReasonAuthorized,
		},
		{
			name:     "prefixes are case-sensitive",
			path:     "/Drivers",
			cookies:  Cookies{},
			action:   Allow,
			location: "",
			reason:   ReasonUnrestricted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.path, tt.cookies)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.location, d.Location)
			assert.Equal(t, tt.clear, d.ClearCookies)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestEvaluate_EveryProtectedPathRedirectsAnonymous(t *testing.T) {
	for _, prefix := range DefaultTable.Protected {
		for _, path := range []string{prefix, prefix + "/sub"} {
			d := Evaluate(path, Cookies{})
			require.Equal(t, Redirect, d.Action, path)
			assert.Equal(t, LoginRedirect(path), d.Location, path)
			assert.False(t, d.ClearCookies, path)
		}
	}
}

func TestEvaluate_EveryPublicPathRedirectsSignedIn(t *testing.T) {
	paths := append([]string{"/"}, DefaultTable.Public...)
	for _, path := range paths {
		d := Evaluate(path, Cookies{Token: "abc", Role: "ROLE_ADMIN"})
		if path == DefaultTable.CallbackPrefix {
			assert.Equal(t, Allow, d.Action, path)
			continue
		}
		assert.Equal(t, Redirect, d.Action, path)
		assert.Equal(t, DashboardPath, d.Location, path)
	}
}

func TestEvaluate_AdminOnlyRejectsOtherRoles(t *testing.T) {
	roles := []session.Role{session.RoleOwner, session.RoleDriver, session.RoleAPIClient}
	for _, prefix := range DefaultTable.AdminOnly {
		for _, role := range roles {
			d := Evaluate(prefix, Cookies{Token: "abc", Role: string(role)})
			assert.Equal(t, Redirect, d.Action, "%s as %s", prefix, role)
			assert.Equal(t, DashboardPath, d.Location, "%s as %s", prefix, role)
			assert.False(t, d.ClearCookies)
		}

		d := Evaluate(prefix, Cookies{Token: "abc", Role: string(session.RoleAdmin)})
		assert.Equal(t, Allow, d.Action, prefix)
	}
}

func TestLoginRedirect_EscapesPath(t *testing.T) {
	assert.Equal(t, "/login?from=%2Fadmin%2Fusers", LoginRedirect("/admin/users"))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware(zerolog.Nop(), false))
	router.GET("/*path", func(c *gin.Context) {
		d, ok := FromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(d.Reason))
	})

	t.Run("redirects anonymous request", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/drivers", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?from=%2Fdrivers", w.Header().Get("Location"))
	})

	t.Run("clears cookies of a malformed session", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/settings", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieToken, Value: "abc"})
		req.AddCookie(&http.Cookie{Name: session.CookieRole, Value: "nonsense"})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		cleared := map[string]bool{}
		for _, c := range w.Result().Cookies() {
			if c.MaxAge < 0 {
				cleared[c.Name] = true
			}
		}
		assert.True(t, cleared[session.CookieToken])
		assert.True(t, cleared[session.CookieRole])
	})

	t.Run("passes allowed request through", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/reports", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieToken, Value: "abc"})
		req.AddCookie(&http.Cookie{Name: session.CookieRole, Value: "ROLE_OWNER"})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(ReasonAuthorized), w.Body.String())
	})
}
