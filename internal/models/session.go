package models

import "time"

// Session is the request-scoped identity of a browser.
// A zero Session (empty Token) is an anonymous visitor without a stored session.
type Session struct {
	// Token is the random value carried by the session cookie.
	Token string
	// UserID is nil until the visitor logs in.
	UserID    *int64
	Username  string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsAdmin reports whether the bound user has the admin role.
func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role == RoleAdmin
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
