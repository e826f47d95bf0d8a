// Package http provides the HTTP surface of SneakVault: routing, page
// handlers and template rendering.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/atinyakov/sneakvault/internal/captcha"
	"github.com/atinyakov/sneakvault/internal/middleware"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/atinyakov/sneakvault/internal/validation"
	"go.uber.org/zap"
)

// CatalogReader defines the public read operations used by CatalogHandler.
type CatalogReader interface {
	List(ctx context.Context, page int) (models.SneakerPage, error)
	ByCategory(ctx context.Context, id int64, page int) (*models.Category, models.SneakerPage, error)
	Search(ctx context.Context, q service.SearchQuery) (models.SneakerPage, error)
	Sneaker(ctx context.Context, id int64) (*models.Sneaker, []models.Comment, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// CommentSubmitter accepts public comments.
type CommentSubmitter interface {
	Submit(ctx context.Context, sess *models.Session, sneakerID int64, in service.CommentInput) (int64, error)
}

// CaptchaIssuer stores a fresh CAPTCHA code for the visitor.
type CaptchaIssuer interface {
	IssueCaptcha(ctx context.Context, sess *models.Session) (*models.Session, string, error)
}

// CatalogHandler serves the public pages: listings, search, sneaker
// details with comments, and the CAPTCHA image.
type CatalogHandler struct {
	Catalog  CatalogReader
	Comments CommentSubmitter
	Captchas CaptchaIssuer
	View     *Renderer
	Log      *zap.Logger
	// SecureCookie marks session cookies set by the CAPTCHA endpoint as Secure.
	SecureCookie bool
}

type listingPage struct {
	Heading  string
	Category *models.Category
	Results  models.SneakerPage
	// BaseURL is the listing URL the page parameter is appended to.
	BaseURL string
}

type searchPage struct {
	Keyword    string
	CategoryID int64
	Searched   bool
	Results    models.SneakerPage
	BaseURL    string
}

type sneakerPage struct {
	Sneaker  *models.Sneaker
	Comments []models.Comment
}

// Home lists the whole catalog, newest first.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	res, err := h.Catalog.List(r.Context(), queryPage(r))
	if err != nil {
		serverError(w, h.Log, err)
		return
	}
	h.View.Render(w, r, http.StatusOK, "home", &View{
		Title: "Latest Sneakers",
		Data:  listingPage{Heading: "Latest Sneakers", Results: res, BaseURL: "/?"},
	})
}

// Category lists the sneakers of one category. Unknown categories redirect
// to the home page.
func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		redirect(w, r, "/")
		return
	}

	c, res, err := h.Catalog.ByCategory(r.Context(), id, queryPage(r))
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/")
		return
	}
	if err != nil {
		serverError(w, h.Log, err)
		return
	}

	h.View.Render(w, r, http.StatusOK, "category", &View{
		Title: c.Name,
		Data: listingPage{
			Heading:  c.Name,
			Category: c,
			Results:  res,
			BaseURL:  fmt.Sprintf("/category?id=%d&", c.ID),
		},
	})
}

// Search filters the catalog by keyword and category. Without criteria the
// form is shown alone.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	f := validation.NewForm(r.URL.Query())
	q := service.SearchQuery{
		Keyword:    f.String("keyword"),
		CategoryID: f.Int("category_id"),
		Page:       queryPage(r),
	}

	res, err := h.Catalog.Search(r.Context(), q)
	if err != nil {
		serverError(w, h.Log, err)
		return
	}

	data := searchPage{Keyword: q.Keyword, Searched: q.Active(), Results: res}
	if q.CategoryID != nil {
		data.CategoryID = *q.CategoryID
	}
	data.BaseURL = fmt.Sprintf("/search?keyword=%s&category_id=%d&", url.QueryEscape(q.Keyword), data.CategoryID)

	h.View.Render(w, r, http.StatusOK, "search", &View{Title: "Search", Data: data})
}

// Sneaker shows one sneaker with its visible comments.
func (h *CatalogHandler) Sneaker(w http.ResponseWriter, r *http.Request) {
	h.renderSneaker(w, r, http.StatusOK, &View{
		Flash: flash(r, [][2]string{{"commented", "Your comment has been posted successfully!"}}),
	})
}

// Comment handles the comment form of a sneaker page.
func (h *CatalogHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r, "id")
	if !ok {
		redirect(w, r, "/")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f := validation.NewForm(r.PostForm)
	in := service.CommentInput{
		AuthorName: f.String("author_name"),
		Content:    f.String("content"),
		Captcha:    f.String("captcha"),
	}

	sess := middleware.SessionFromContext(r.Context())
	_, err := h.Comments.Submit(r.Context(), sess, id, in)
	if err == nil {
		redirect(w, r, fmt.Sprintf("/sneaker?id=%d&commented=1#comments", id))
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/")
		return
	}
	errs, ok := formErrors(h.Log, err)
	if !ok {
		serverError(w, h.Log, err)
		return
	}

	h.renderSneaker(w, r, http.StatusUnprocessableEntity, &View{
		Errors: errs,
		Form: map[string]string{
			"author_name": in.AuthorName,
			"content":     in.Content,
		},
	})
}

func (h *CatalogHandler) renderSneaker(w http.ResponseWriter, r *http.Request, status int, v *View) {
	id, ok := queryID(r, "id")
	if !ok {
		redirect(w, r, "/")
		return
	}

	sn, comments, err := h.Catalog.Sneaker(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		redirect(w, r, "/")
		return
	}
	if err != nil {
		serverError(w, h.Log, err)
		return
	}

	v.Title = sn.Name
	v.Data = sneakerPage{Sneaker: sn, Comments: comments}
	h.View.Render(w, r, status, "sneaker", v)
}

// Captcha issues a new code for the visitor and serves it as an image.
// Visitors without a session get one here so the code can be checked on
// submission.
func (h *CatalogHandler) Captcha(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	held, code, err := h.Captchas.IssueCaptcha(r.Context(), sess)
	if err != nil {
		serverError(w, h.Log, err)
		return
	}

	buf := new(bytes.Buffer)
	if err := captcha.Render(buf, code); err != nil {
		serverError(w, h.Log, err)
		return
	}

	if held.Token != sess.Token {
		middleware.SetSessionCookie(w, held, h.SecureCookie)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	_, _ = buf.WriteTo(w)
}
