package gate

import (
	"net/url"
	"strings"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Action is what the gate does with a request
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Reason explains a Decision
type Reason string

const (
	ReasonUnrestricted      Reason = "unrestricted"
	ReasonAuthorized        Reason = "authorized"
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonAlreadySignedIn   Reason = "already_signed_in"
	ReasonMalformedSession  Reason = "malformed_session"
	ReasonInsufficientRole  Reason = "insufficient_role"
	ReasonAuthCallback      Reason = "auth_callback"
	ReasonAnonymousOnPublic Reason = "anonymous_public"
)

// Redirect targets
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Cookies carries the session cookie mirror the gate decides on. An empty
// value means the cookie is absent.
type Cookies struct {
	Token string
	Role  string
}

// Decision is the gate's verdict for one request
type Decision struct {
	Action Action
	// Location is set for Redirect
	Location string
	// ClearCookies asks the caller to delete the token and role cookies
	ClearCookies bool
	Reason       Reason
}

// Table is the static route classification. All entries are case-sensitive
// prefixes except RootPath, which only matches exactly.
type Table struct {
	RootPath       string
	Public         []string
	CallbackPrefix string
	Protected      []string
	AdminOnly      []string
	OwnerOrAdmin   []string
}

// DefaultTable is the portal's route table
var DefaultTable = Table{
	RootPath:       "/",
	Public:         []string{"/login", "/register", "/forgot-password", "/reset-password", "/api/auth"},
	CallbackPrefix: "/api/auth",
	Protected: []string{
		"/dashboard", "/drivers", "/vehicles", "/reports", "/settings",
		"/admin", "/profile", "/change-password", "/my-vehicles",
	},
	AdminOnly:    []string{"/settings", "/admin"},
	OwnerOrAdmin: []string{"/drivers", "/vehicles", "/reports"},
}

var (
	adminRoles        = session.NewRoleSet(session.RoleAdmin)
	ownerOrAdminRoles = session.NewRoleSet(session.RoleAdmin, session.RoleOwner)
)

// Evaluate classifies path against DefaultTable
func Evaluate(path string, cookies Cookies) Decision {
	return DefaultTable.Evaluate(path, cookies)
}

// Evaluate decides what to do with a request for path. It only looks at the
// cookies; the session behind them is validated later by the page guard.
func (t Table) Evaluate(path string, cookies Cookies) Decision {
	hasToken := cookies.Token != ""

	if !hasToken {
		if t.IsProtected(path) {
			return Decision{
				Action:   Redirect,
				Location: LoginRedirect(path),
				Reason:   ReasonUnauthenticated,
			}
		}
		if t.IsPublic(path) {
			return Decision{Action: Allow, Reason: ReasonAnonymousOnPublic}
		}
		return Decision{Action: Allow, Reason: ReasonUnrestricted}
	}

	if t.IsPublic(path) {
		if t.CallbackPrefix != "" && strings.HasPrefix(path, t.CallbackPrefix) {
			return Decision{Action: Allow, Reason: ReasonAuthCallback}
		}
		return Decision{Action: Redirect, Location: DashboardPath, Reason: ReasonAlreadySignedIn}
	}

	allowed := t.RequiredRoles(path)
	if allowed == nil {
		if t.IsProtected(path) {
			return Decision{Action: Allow, Reason: ReasonAuthorized}
		}
		return Decision{Action: Allow, Reason: ReasonUnrestricted}
	}

	role, err := session.ParseRole(cookies.Role)
	if err != nil {
		return Decision{
			Action:       Redirect,
			Location:     LoginPath,
			ClearCookies: true,
			Reason:       ReasonMalformedSession,
		}
	}
	if !allowed.Allows(role) {
		return Decision{Action: Redirect, Location: DashboardPath, Reason: ReasonInsufficientRole}
	}

	return Decision{Action: Allow, Reason: ReasonAuthorized}
}

// IsPublic reports whether path is reachable without a session
func (t Table) IsPublic(path string) bool {
	if t.RootPath != "" && path == t.RootPath {
		return true
	}
	return hasAnyPrefix(path, t.Public)
}

// IsProtected reports whether path requires a session
func (t Table) IsProtected(path string) bool {
	return hasAnyPrefix(path, t.Protected)
}

// RequiredRoles returns the roles allowed on path, or nil when any signed-in
// user may open it
func (t Table) RequiredRoles(path string) session.RoleSet {
	switch {
	case hasAnyPrefix(path, t.AdminOnly):
		return adminRoles
	case hasAnyPrefix(path, t.OwnerOrAdmin):
		return ownerOrAdminRoles
	default:
		return nil
	}
}

// LoginRedirect builds the login URL that returns to path afterwards
func LoginRedirect(path string) string {
	q := url.Values{}
	q.Set("from", path)
	return LoginPath + "?" + q.Encode()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
