// Package middleware provides HTTP middlewares for sessions, authorization
// and request logging.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/sneakvault/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "sneakvault_session"

// SessionLoader resolves a cookie token into a live session.
// It returns (nil, nil) for unknown or expired tokens.
type SessionLoader interface {
	Load(ctx context.Context, token string) (*models.Session, error)
}

// WithSession resolves the session cookie and stores the resulting session
// in the request context. Requests without a valid cookie get an anonymous
// session, and a stale cookie is cleared.
func WithSession(loader SessionLoader, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &models.Session{}

			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				loaded, err := loader.Load(r.Context(), c.Value)
				switch {
				case err != nil:
					log.Error("load session", zap.Error(err))
				case loaded == nil:
					ClearSessionCookie(w)
				default:
					sess = loaded
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// ContextWithSession returns a copy of ctx carrying sess.
func ContextWithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the request session. It never returns nil;
// a context without a session yields an anonymous one.
func SessionFromContext(ctx context.Context) *models.Session {
	if s, ok := ctx.Value(sessionKey).(*models.Session); ok && s != nil {
		return s
	}
	return &models.Session{}
}

// SetSessionCookie writes the cookie for sess.
func SetSessionCookie(w http.ResponseWriter, sess *models.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
