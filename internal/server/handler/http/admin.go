package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/atinyakov/sneakvault/internal/media"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/atinyakov/sneakvault/internal/validation"
	"go.uber.org/zap"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

// DashboardLoader assembles the admin landing page.
type DashboardLoader interface {
	Load(ctx context.Context, sort string) (service.Dashboard, error)
}

// SneakerEditor defines the sneaker write operations.
type SneakerEditor interface {
	Get(ctx context.Context, id int64) (*models.Sneaker, error)
	Create(ctx context.Context, in service.SneakerInput, upload io.Reader) (int64, error)
	Update(ctx context.Context, id int64, in service.SneakerInput, upload io.Reader, removeImage bool) error
	Delete(ctx context.Context, id int64) error
}

// CategoryLister lists categories for form selects.
type CategoryLister interface {
	List(ctx context.Context) ([]models.Category, error)
}

// AdminHandler serves the dashboard and the sneaker editor.
type AdminHandler struct {
	Dashboard  DashboardLoader
	Sneakers   SneakerEditor
	Categories CategoryLister
	View       *Renderer
	Log        *zap.Logger
}

type sneakerForm struct {
	// Sneaker is nil on the create form.
	Sneaker    *models.Sneaker
	Categories []models.Category
	Action     string
}

// Index shows counters and the sneaker table.
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	d, err := h.Dashboard.Load(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		serverError(w, h.Log, err)
		return
	}
	h.View.Render(w, r, http.StatusOK, "admin_dashboard", &View{
		Title: "Dashboard",
		Flash: flash(r, [][2]string{
			{"created", "Sneaker created successfully!"},
			{"updated", "Sneaker updated successfully!"},
			{"deleted", "Sneaker deleted successfully!"},
		}),
		Data: d,
	})
}

// NewSneaker renders the empty create form.
func (h *AdminHandler) NewSneaker(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, nil, &View{Title: "Add Sneaker"})
}

// CreateSneaker stores a new sneaker with its optional image.
func (h *AdminHandler) CreateSneaker(w http.ResponseWriter, r *http.Request) {
	in, upload, closeUpload, errs := h.parseSneaker(w, r)
	defer closeUpload()
	if errs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, &View{Title: "Add Sneaker", Errors: errs, Form: sneakerValues(r)})
		return
	}

	id, err := h.Sneakers.Create(r.Context(), in, upload)
	if err != nil {
		errs, ok := formErrors(h.Log, err)
		if !ok {
			serverError(w, h.Log, err)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, nil, &View{Title: "Add Sneaker", Errors: errs, Form: sneakerValues(r)})
		return
	}

	h.Log.Info("sneaker created", zap.Int64("sneaker_id", id))
	redirect(w, r, "/admin?created=1")
}

// EditSneaker renders the edit form of an existing sneaker.
func (h *AdminHandler) EditSneaker(w http.ResponseWriter, r *http.Request) {
	sn, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, sn, &View{Title: "Edit Sneaker", Form: sneakerFields(sn)})
}

// UpdateSneaker overwrites a sneaker. A new upload replaces the image and
// delete_image drops it.
func (h *AdminHandler) UpdateSneaker(w http.ResponseWriter, r *http.Request) {
	sn, ok := h.load(w, r)
	if !ok {
		return
	}

	in, upload, closeUpload, errs := h.parseSneaker(w, r)
	defer closeUpload()
	if errs != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, sn, &View{Title: "Edit Sneaker", Errors: errs, Form: sneakerValues(r)})
		return
	}

	removeImage := validation.NewForm(r.PostForm).Bool("delete_image")
	err := h.Sneakers.Update(r.Context(), sn.ID, in, upload, removeImage)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/admin")
		return
	}
	if err != nil {
		errs, ok := formErrors(h.Log, err)
		if !ok {
			serverError(w, h.Log, err)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, sn, &View{Title: "Edit Sneaker", Errors: errs, Form: sneakerValues(r)})
		return
	}

	h.Log.Info("sneaker updated", zap.Int64("sneaker_id", sn.ID))
	redirect(w, r, "/admin?updated=1")
}

// ConfirmDelete asks before removing a sneaker.
func (h *AdminHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	sn, ok := h.load(w, r)
	if !ok {
		return
	}
	h.View.Render(w, r, http.StatusOK, "admin_sneaker_delete", &View{Title: "Delete Sneaker", Data: sn})
}

// DeleteSneaker removes a sneaker, its comments and its image.
func (h *AdminHandler) DeleteSneaker(w http.ResponseWriter, r *http.Request) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin")
		return
	}

	err := h.Sneakers.Delete(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/admin")
		return
	}
	if err != nil {
		serverError(w, h.Log, err)
		return
	}

	h.Log.Info("sneaker deleted", zap.Int64("sneaker_id", id))
	redirect(w, r, "/admin?deleted=1")
}

// load fetches the {id} sneaker, redirecting to the dashboard when it is
// missing.
func (h *AdminHandler) load(w http.ResponseWriter, r *http.Request) (*models.Sneaker, bool) {
	id, ok := paramID(r)
	if !ok {
		redirect(w, r, "/admin")
		return nil, false
	}
	sn, err := h.Sneakers.Get(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/admin")
		return nil, false
	}
	if err != nil {
		serverError(w, h.Log, err)
		return nil, false
	}
	return sn, true
}

// parseSneaker reads the multipart sneaker form. The returned close func
// must always be called.
func (h *AdminHandler) parseSneaker(w http.ResponseWriter, r *http.Request) (service.SneakerInput, io.Reader, func(), validation.Errors) {
	noop := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.SneakerInput{}, nil, noop, validation.Errors{"Image file is too large. Maximum size is 10 MB."}
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.Log.Info("bad sneaker form", zap.Error(err))
			return service.SneakerInput{}, nil, noop, validation.Errors{"The form could not be read. Please try again."}
		}
		if err := r.ParseForm(); err != nil {
			return service.SneakerInput{}, nil, noop, validation.Errors{"The form could not be read. Please try again."}
		}
	}

	f := validation.NewForm(r.PostForm)
	in := service.SneakerInput{
		Name:        f.String("name"),
		Brand:       f.String("brand"),
		Colorway:    f.String("colorway"),
		ReleaseDate: f.String("release_date"),
		RetailPrice: f.Float("retail_price"),
		Description: f.String("description"),
		SKU:         f.String("sku"),
	}
	if id := f.Int("category_id"); id != nil {
		in.CategoryID = *id
	}

	var upload io.Reader
	closeUpload := noop
	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		upload = file
		closeUpload = func() { _ = file.Close() }
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.Log.Error("failed to read upload", zap.Error(err))
		return in, nil, noop, validation.Errors{"Failed to upload image."}
	}
	return in, upload, closeUpload, nil
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, sn *models.Sneaker, v *View) {
	cats, err := h.Categories.List(r.Context())
	if err != nil {
		serverError(w, h.Log, err)
		return
	}
	action := "/admin/sneakers/new"
	if sn != nil {
		action = fmt.Sprintf("/admin/sneakers/%d/edit", sn.ID)
	}
	v.Data = sneakerForm{Sneaker: sn, Categories: cats, Action: action}
	h.View.Render(w, r, status, "admin_sneaker_form", v)
}

var sneakerFieldNames = []string{"name", "brand", "colorway", "release_date", "retail_price", "description", "category_id", "sku"}

// sneakerValues keeps the raw submitted values for redisplay.
func sneakerValues(r *http.Request) map[string]string {
	v := make(map[string]string, len(sneakerFieldNames))
	for _, name := range sneakerFieldNames {
		v[name] = r.PostForm.Get(name)
	}
	return v
}

func sneakerFields(sn *models.Sneaker) map[string]string {
	v := map[string]string{
		"name":        sn.Name,
		"brand":       sn.Brand,
		"colorway":    sn.Colorway,
		"description": sn.Description,
		"category_id": strconv.FormatInt(sn.CategoryID, 10),
		"sku":         sn.SKU,
	}
	if sn.ReleaseDate != nil {
		v["release_date"] = sn.ReleaseDate.Format("2006-01-02")
	}
	if sn.RetailPrice != nil {
		v["retail_price"] = strconv.FormatFloat(*sn.RetailPrice, 'f', 2, 64)
	}
	return v
}
