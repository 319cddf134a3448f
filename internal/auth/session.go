package auth

// SessionData represents the authenticated caller of an API request
type SessionData struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the caller holds ROLE_ADMIN
func (s *SessionData) IsAdmin() bool {
	return s.Role == "ROLE_ADMIN"
}
