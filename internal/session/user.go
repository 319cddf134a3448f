package session

import (
	"fmt"
	"strings"
)

// Role is a fleet role claim as issued by the upstream API
type Role string

const (
	RoleAdmin     Role = "ROLE_ADMIN"
	RoleOwner     Role = "ROLE_OWNER"
	RoleDriver    Role = "ROLE_DRIVER"
	RoleAPIClient Role = "ROLE_API_CLIENT"
)

const rolePrefix = "ROLE_"

var knownRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleOwner:     true,
	RoleDriver:    true,
	RoleAPIClient: true,
}

// ParseRole normalizes a role string ("DRIVER" or "ROLE_DRIVER") and rejects
// anything outside the known enumeration
func ParseRole(s string) (Role, error) {
	value := strings.ToUpper(strings.TrimSpace(s))
	if value == "" {
		return "", fmt.Errorf("empty role")
	}
	if !strings.HasPrefix(value, rolePrefix) {
		value = rolePrefix + value
	}

	role := Role(value)
	if !knownRoles[role] {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return knownRoles[r]
}

// Short returns the role without its ROLE_ prefix, e.g. "ADMIN"
func (r Role) Short() string {
	return strings.TrimPrefix(string(r), rolePrefix)
}

// RoleSet is a set of roles; the empty set admits any role
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allows reports whether role is a member of the set. An empty set allows every role.
func (s RoleSet) Allows(role Role) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[role]
	return ok
}

// User is the identity payload stored alongside the bearer token
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// FullName joins first and last name
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session is the (token, user) pair that identifies the caller
type Session struct {
	Token string
	User  User
}
