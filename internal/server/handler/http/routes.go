package http

import (
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/sneakvault/internal/middleware"
	"github.com/atinyakov/sneakvault/internal/models"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the page handlers mounted by NewRouter.
type Handlers struct {
	Catalog    *CatalogHandler
	Auth       *AuthHandler
	Admin      *AdminHandler
	Categories *AdminCategoryHandler
	Users      *AdminUserHandler
	Comments   *AdminCommentHandler
}

// NewRouter constructs the HTTP handler of the site.
//
// Middleware chain (applied in order):
//  1. RequestID, RealIP, Recoverer, Timeout
//  2. WithRequestLogging(logger)
//  3. WithSession(sessions, logger), which puts the visitor's session in the context
//
// The /admin tree additionally requires the admin role, and the login and
// registration pages are only served to visitors who are not logged in.
// Uploaded images are served from publicDir/uploads.
func NewRouter(
	h Handlers,
	sessions middleware.SessionLoader,
	guard middleware.Authorizer,
	publicDir string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	static, _ := fs.Sub(assets, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", files(http.FS(static))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", files(http.Dir(filepath.Join(publicDir, "uploads")))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.WithSession(sessions, logger))

		r.Get("/", h.Catalog.Home)
		r.Get("/category", h.Catalog.Category)
		r.Get("/search", h.Catalog.Search)
		r.Get("/sneaker", h.Catalog.Sneaker)
		r.Post("/sneaker", h.Catalog.Comment)
		r.Get("/captcha", h.Catalog.Captcha)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireGuest)
			r.Get("/login", h.Auth.LoginForm)
			r.Post("/login", h.Auth.Login)
			r.Get("/register", h.Auth.RegisterForm)
			r.Post("/register", h.Auth.Register)
		})
		r.Post("/logout", h.Auth.Logout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(guard, models.RoleAdmin, logger))

			r.Get("/", h.Admin.Index)

			r.Route("/sneakers", func(r chi.Router) {
				r.Get("/new", h.Admin.NewSneaker)
				r.Post("/new", h.Admin.CreateSneaker)
				r.Get("/{id}/edit", h.Admin.EditSneaker)
				r.Post("/{id}/edit", h.Admin.UpdateSneaker)
				r.Get("/{id}/delete", h.Admin.ConfirmDelete)
				r.Post("/{id}/delete", h.Admin.DeleteSneaker)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Post("/", h.Categories.Create)
				r.Post("/{id}", h.Categories.Update)
				r.Post("/{id}/delete", h.Categories.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.List)
				r.Post("/", h.Users.Create)
				r.Post("/{id}", h.Users.Update)
				r.Post("/{id}/delete", h.Users.Delete)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", h.Comments.List)
				r.Post("/{id}/{action}", h.Comments.Moderate)
			})
		})
	})

	return r
}

// files serves root without directory listings.
func files(root http.FileSystem) http.Handler {
	fsrv := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fsrv.ServeHTTP(w, r)
	})
}
