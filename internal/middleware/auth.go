package middleware

import (
	"net/http"

	"github.com/atinyakov/sneakvault/internal/authz"
	"github.com/atinyakov/sneakvault/internal/models"
	"go.uber.org/zap"
)

// Authorizer returns an explicit allow/deny decision for a session.
type Authorizer interface {
	Authorize(sess *models.Session, required models.Role) authz.Decision
}

// RequireRole lets the request through only when guard allows the session
// for role. Denied requests are redirected to /login before the wrapped
// handler runs.
func RequireRole(guard Authorizer, role models.Role, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			noStore(w)

			d := guard.Authorize(SessionFromContext(r.Context()), role)
			if !d.Allowed {
				log.Info("access denied",
					zap.String("path", r.URL.Path),
					zap.String("reason", d.Reason),
				)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGuest redirects logged-in users away from the login and
// registration pages.
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess.IsAuthenticated() {
			target := "/"
			if sess.IsAdmin() {
				target = "/admin"
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
