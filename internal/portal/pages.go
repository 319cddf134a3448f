package portal

import (
	"net/url"
	"strings"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/gate"
	"github.com/farahmhedhbi/fleet-management-sub000/internal/session"
)

// Page is the JSON model every portal page renders from
type Page struct {
	Title   string        `json:"title"`
	User    *session.User `json:"user,omitempty"`
	Nav     []NavItem     `json:"nav,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Data    any           `json:"data,omitempty"`
}

// NavItem is one sidebar link
type NavItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type navEntry struct {
	item  NavItem
	roles session.RoleSet
}

// Sidebar entries in display order. An empty role set shows the entry to everyone.
var navEntries = []navEntry{
	{NavItem{"Dashboard", "/dashboard"}, session.NewRoleSet()},
	{NavItem{"My Vehicles", "/my-vehicles"}, session.NewRoleSet(session.RoleDriver)},
	{NavItem{"Profile", "/profile"}, session.NewRoleSet(session.RoleDriver)},
	{NavItem{"Vehicles", "/vehicles"}, session.NewRoleSet(session.RoleOwner)},
	{NavItem{"Drivers", "/drivers"}, session.NewRoleSet(session.RoleOwner)},
	{NavItem{"Users Admin", "/admin/users"}, session.NewRoleSet(session.RoleAdmin)},
	{NavItem{"Reports", "/reports"}, session.NewRoleSet(session.RoleAdmin, session.RoleOwner)},
	{NavItem{"Change Password", "/change-password"}, session.NewRoleSet()},
	{NavItem{"Settings", "/settings"}, session.NewRoleSet(session.RoleAdmin)},
}

func navFor(role session.Role) []NavItem {
	items := make([]NavItem, 0, len(navEntries))
	for _, e := range navEntries {
		if e.roles.Allows(role) {
			items = append(items, e.item)
		}
	}
	return items
}

// safeReturnPath accepts a post-login destination only when it is a local
// protected path. Anything else yields "".
func safeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if !gate.DefaultTable.IsProtected(u.Path) {
		return ""
	}
	return u.RequestURI()
}
