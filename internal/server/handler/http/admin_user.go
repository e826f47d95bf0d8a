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

// UserManager defines the account administration operations.
type UserManager interface {
	List(ctx context.Context) (service.UserList, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, in service.UserInput) (*models.User, error)
	Update(ctx context.Context, id int64, in service.UserInput) error
	Delete(ctx context.Context, actorID, id int64) error
}

// AdminUserHandler serves the user manager page.
type AdminUserHandler struct {
	Users UserManager
	View  *Renderer
	Log   *zap.Logger
}

type userPage struct {
	service.UserList
	Editing *models.User
}

var userFlash = [][2]string{
	{"created", "User created successfully!"},
	{"updated", "User updated successfully!"},
	{"deleted", "User deleted successfully!"},
}

// List shows every account with the create form, or the edit form for
// ?edit=<id>.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	v := &View{Flash: flash(r, userFlash)}

	var editing *models.User
	if id, ok := queryID(r, "edit"); ok {
		u, err := h.Users.Get(r.Context(), id)
		switch {
		case errors.Is(err, service.ErrNotFound):
			redirect(w, r, "/admin/users")
			return
		case err != nil:
			serverError(w, h.Log, err)
			return
		}
		editing = u
		v.Form = map[string]string{"username": u.Username, "email": u.Email, "role": string(u.Role)}
	}
	h.render(w, r, http.StatusOK, editing, v)
}

// Create adds an account with the chosen role.
func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parse(w, r)
	if !ok {
		return
	}

	u, err := h.Users.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, nil, in, err)
		return
	}
	h.Log.Info("user created", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	redirect(w, r, "/admin/users?created=1")
}

// Update edits the {id} account. An empty password keeps the current one.
func (h *AdminUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin/users")
		return
	}
	in, ok := h.parse(w, r)
	if !ok {
		return
	}

	err := h.Users.Update(r.Context(), id, in)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/admin/users")
		return
	}
	if err != nil {
		h.fail(w, r, &models.User{ID: id}, in, err)
		return
	}
	h.Log.Info("user updated", zap.Int64("user_id", id))
	redirect(w, r, "/admin/users?updated=1")
}

// Delete removes the {id} account. Admins cannot delete themselves.
func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin/users")
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	var actor int64
	if sess.UserID != nil {
		actor = *sess.UserID
	}

	err := h.Users.Delete(r.Context(), actor, id)
	switch {
	case err == nil:
		h.Log.Info("user deleted", zap.Int64("user_id", id), zap.Int64("actor_id", actor))
		redirect(w, r, "/admin/users?deleted=1")
	case errors.Is(err, service.ErrSelfDelete):
		h.render(w, r, http.StatusConflict, nil, &View{
			Errors: validation.Errors{"You cannot delete your own account while logged in."},
		})
	case errors.Is(err, service.ErrNotFound):
		redirect(w, r, "/admin/users")
	default:
		serverError(w, h.Log, err)
	}
}

func (h *AdminUserHandler) parse(w http.ResponseWriter, r *http.Request) (service.UserInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return service.UserInput{}, false
	}
	f := validation.NewForm(r.PostForm)
	return service.UserInput{
		Username: f.String("username"),
		Email:    f.String("email"),
		Password: r.PostForm.Get("password"),
		Role:     models.Role(f.String("role")),
	}, true
}

func (h *AdminUserHandler) fail(w http.ResponseWriter, r *http.Request, editing *models.User, in service.UserInput, err error) {
	errs, ok := formErrors(h.Log, err)
	if !ok {
		serverError(w, h.Log, err)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, editing, &View{
		Errors: errs,
		Form:   map[string]string{"username": in.Username, "email": in.Email, "role": string(in.Role)},
	})
}

func (h *AdminUserHandler) render(w http.ResponseWriter, r *http.Request, status int, editing *models.User, v *View) {
	list, err := h.Users.List(r.Context())
	if err != nil {
		serverError(w, h.Log, err)
		return
	}
	v.Title = "Manage Users"
	v.Data = userPage{UserList: list, Editing: editing}
	h.View.Render(w, r, status, "admin_users", v)
}
