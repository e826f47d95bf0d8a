package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/atinyakov/sneakvault/internal/validation"
	"go.uber.org/zap"
)

// CategoryManager defines the category administration operations.
type CategoryManager interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, in service.CategoryInput) (int64, error)
	Update(ctx context.Context, id int64, in service.CategoryInput) error
	Delete(ctx context.Context, id int64) error
}

// AdminCategoryHandler serves the category manager page.
type AdminCategoryHandler struct {
	Categories CategoryManager
	View       *Renderer
	Log        *zap.Logger
}

type categoryPage struct {
	Categories []models.Category
	// Editing is the category loaded into the edit form, if any.
	Editing *models.Category
}

var categoryFlash = [][2]string{
	{"created", "Category created successfully!"},
	{"updated", "Category updated successfully!"},
	{"deleted", "Category deleted successfully!"},
}

// List shows every category with the create form, or the edit form when
// ?edit=<id> names an existing category.
func (h *AdminCategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	v := &View{Flash: flash(r, categoryFlash)}

	var editing *models.Category
	if id, ok := queryID(r, "edit"); ok {
		c, err := h.Categories.Get(r.Context(), id)
		switch {
		case errors.Is(err, service.ErrNotFound):
			redirect(w, r, "/admin/categories")
			return
		case err != nil:
			serverError(w, h.Log, err)
			return
		}
		editing = c
		v.Form = map[string]string{"name": c.Name, "slug": c.Slug, "description": c.Description}
	}
	h.render(w, r, http.StatusOK, editing, v)
}

// Create adds a category.
func (h *AdminCategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parse(w, r)
	if !ok {
		return
	}

	id, err := h.Categories.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, nil, in, err)
		return
	}
	h.Log.Info("category created", zap.Int64("category_id", id))
	redirect(w, r, "/admin/categories?created=1")
}

// Update edits the {id} category.
func (h *AdminCategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin/categories")
		return
	}
	in, ok := h.parse(w, r)
	if !ok {
		return
	}

	err := h.Categories.Update(r.Context(), id, in)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/admin/categories")
		return
	}
	if err != nil {
		h.fail(w, r, &models.Category{ID: id}, in, err)
		return
	}
	h.Log.Info("category updated", zap.Int64("category_id", id))
	redirect(w, r, "/admin/categories?updated=1")
}

// Delete removes the {id} category unless sneakers still use it.
func (h *AdminCategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin/categories")
		return
	}

	err := h.Categories.Delete(r.Context(), id)
	var inUse *service.CategoryInUseError
	switch {
	case err == nil:
		h.Log.Info("category deleted", zap.Int64("category_id", id))
		redirect(w, r, "/admin/categories?deleted=1")
	case errors.Is(err, service.ErrNotFound):
		redirect(w, r, "/admin/categories")
	case errors.As(err, &inUse):
		h.render(w, r, http.StatusConflict, nil, &View{Errors: validation.Errors{inUse.Message()}})
	default:
		serverError(w, h.Log, err)
	}
}

func (h *AdminCategoryHandler) parse(w http.ResponseWriter, r *http.Request) (service.CategoryInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return service.CategoryInput{}, false
	}
	f := validation.NewForm(r.PostForm)
	return service.CategoryInput{
		Name:        f.String("name"),
		Slug:        f.String("slug"),
		Description: f.String("description"),
	}, true
}

// fail re-renders the page for a rejected create or update.
func (h *AdminCategoryHandler) fail(w http.ResponseWriter, r *http.Request, editing *models.Category, in service.CategoryInput, err error) {
	errs, ok := formErrors(h.Log, err)
	if !ok {
		serverError(w, h.Log, err)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, editing, &View{
		Errors: errs,
		Form:   map[string]string{"name": in.Name, "slug": in.Slug, "description": in.Description},
	})
}

func (h *AdminCategoryHandler) render(w http.ResponseWriter, r *http.Request, status int, editing *models.Category, v *View) {
	cats, err := h.Categories.List(r.Context())
	if err != nil {
		serverError(w, h.Log, err)
		return
	}
	v.Title = "Manage Categories"
	v.Data = categoryPage{Categories: cats, Editing: editing}
	h.View.Render(w, r, status, "admin_categories", v)
}
