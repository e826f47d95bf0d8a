// Package authz decides whether a session may reach a protected page.
package authz

import "github.com/atinyakov/sneakvault/internal/models"

// Decision is the explicit outcome of an authorization check.
type Decision struct {
	Allowed bool
	// Reason explains a denial for the operator log.
	Reason string
}

// State is the identity state of a session.
type State struct {
	Authenticated bool
	Role          models.Role
}

// Anonymous is the state of a visitor that has not logged in.
var Anonymous = State{}

// Authenticated returns the state of a logged-in user with role.
func Authenticated(role models.Role) State {
	return State{Authenticated: true, Role: role}
}

// StateOf derives the identity state of sess.
func StateOf(sess *models.Session) State {
	if !sess.IsAuthenticated() {
		return Anonymous
	}
	return Authenticated(sess.Role)
}

// Guard evaluates role requirements.
type Guard struct{}

// NewGuard returns a Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Authorize allows sess when it is authenticated with exactly the required
// role. Admin pages are the only protected surface, so no role hierarchy is
// modelled.
func (g *Guard) Authorize(sess *models.Session, required models.Role) Decision {
	st := StateOf(sess)
	switch {
	case !st.Authenticated:
		return Decision{Reason: "not logged in"}
	case st.Role != required:
		return Decision{Reason: "role " + string(st.Role) + " lacks " + string(required)}
	}
	return Decision{Allowed: true}
}
