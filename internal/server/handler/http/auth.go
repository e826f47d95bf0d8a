package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/sneakvault/internal/middleware"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/atinyakov/sneakvault/internal/validation"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	// Register creates a regular account.
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	// Authenticate checks a username and password pair.
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// SessionManager binds users to browser sessions.
type SessionManager interface {
	Login(ctx context.Context, current *models.Session, user *models.User) (*models.Session, error)
	Logout(ctx context.Context, sess *models.Session) error
}

// AuthHandler handles login, registration and logout.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	Sessions    SessionManager
	View        *Renderer
	Log         *zap.Logger
	// SecureCookie marks the session cookie as Secure.
	SecureCookie bool
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.View.Render(w, r, http.StatusOK, "login", &View{Title: "Login"})
}

// Login checks the submitted credentials and starts an authenticated
// session. Admins land on the dashboard, everyone else on the home page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := validation.NewForm(r.PostForm)
	username := f.String("username")

	user, err := h.AuthService.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		var errs validation.Errors
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.Log.Info("failed login", zap.String("username", username))
			errs = validation.Errors{"Invalid username or password."}
		case errors.As(err, &errs):
		default:
			serverError(w, h.Log, err)
			return
		}
		h.View.Render(w, r, http.StatusUnprocessableEntity, "login", &View{
			Title:  "Login",
			Errors: errs,
			Form:   map[string]string{"username": username},
		})
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	if user.Role == models.RoleAdmin {
		redirect(w, r, "/admin")
		return
	}
	redirect(w, r, "/")
}

// RegisterForm renders the sign-up page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.View.Render(w, r, http.StatusOK, "register", &View{Title: "Register"})
}

// Register creates a regular account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	f := validation.NewForm(r.PostForm)
	in := service.RegisterInput{
		Username:        f.String("username"),
		Email:           f.String("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}

	user, err := h.AuthService.Register(r.Context(), in)
	if err != nil {
		errs, ok := formErrors(h.Log, err)
		if !ok {
			serverError(w, h.Log, err)
			return
		}
		h.View.Render(w, r, http.StatusUnprocessableEntity, "register", &View{
			Title:  "Register",
			Errors: errs,
			Form:   map[string]string{"username": in.Username, "email": in.Email},
		})
		return
	}

	h.Log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	if !h.startSession(w, r, user) {
		return
	}
	redirect(w, r, "/")
}

// Logout ends the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), middleware.SessionFromContext(r.Context())); err != nil {
		h.Log.Error("failed to end session", zap.Error(err))
	}
	middleware.ClearSessionCookie(w)
	redirect(w, r, "/")
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) bool {
	sess, err := h.Sessions.Login(r.Context(), middleware.SessionFromContext(r.Context()), user)
	if err != nil {
		serverError(w, h.Log, err)
		return false
	}
	middleware.SetSessionCookie(w, sess, h.SecureCookie)
	return true
}
